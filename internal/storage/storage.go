package storage

import "context"

// ObjectInfo is metadata for one remote object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStorage is the minimal S3-compatible surface the pipeline needs:
// pulling raw exports and archiving run outputs.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DownloadObject(ctx context.Context, key, destPath string) error
	UploadFile(ctx context.Context, key, srcPath string) error
}
