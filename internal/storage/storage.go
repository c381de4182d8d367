package storage

import "context"

// ObjectStorage captures the minimal S3-compatible operations the upload
// archive needs. Archiving is best effort and never blocks a forecast run.
type ObjectStorage interface {
	UploadObject(ctx context.Context, key string, data []byte, contentType string) error
}
