package cache

import (
	"context"
	"fmt"
	"os"
)

// Driver identifies a concrete cache backend implementation.
type Driver string

const (
	DriverFilesystem Driver = "fs"     // local directory (default)
	DriverS3         Driver = "s3"     // S3-compatible object store
	DriverMemory     Driver = "memory" // in-process (tests, embedded)
)

// Open selects a KV implementation using environment variables.
//
//	CDMCORE_CACHE_DRIVER: fs|s3|memory (default fs)
//	CDMCORE_CACHE_FS_ROOT: directory root when driver=fs (default ./cachedata)
//	(S3 specific variables documented in s3.go)
func Open(ctx context.Context) (KV, error) {
	driver := os.Getenv("CDMCORE_CACHE_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		root := os.Getenv("CDMCORE_CACHE_FS_ROOT")
		return NewFilesystem(root)
	case DriverS3:
		return OpenS3FromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %s", driver)
	}
}
