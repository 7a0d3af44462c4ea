package storage

import (
	"context"
	"io"
	"path"
)

// Storage archives uploaded spreadsheets for the ingestion worker.
type Storage interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Upload(ctx context.Context, key string, data io.Reader) error
	Exists(ctx context.Context, key string) (bool, error)
}

// UploadKey addresses an upload by content, so the same workbook uploaded
// twice is stored once. Only the base name of fileName is kept.
func UploadKey(prefix, checksum, fileName string) string {
	name := path.Base(path.Clean("/" + fileName))
	if name == "/" || name == "." {
		name = "upload.xlsx"
	}
	return prefix + checksum + "/" + name
}
