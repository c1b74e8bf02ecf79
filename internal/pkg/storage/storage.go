// Package storage is a bucket-scoped object store over S3, GCS and MinIO.
// The dead-letter archive writes one JSON object per dead-lettered message.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrObjectNotFound is returned when the key does not exist.
	ErrObjectNotFound = errors.New("storage: object not found")
	// ErrBucketRequired is returned when a driver is built without a bucket.
	ErrBucketRequired = errors.New("storage: bucket is required")
)

// Storage defines object operations on a single bucket.
type Storage interface {
	io.Closer

	// Put stores data under key, replacing any existing object.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (ObjectInfo, error)
	// Get opens the object. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Stat returns object metadata without reading its contents.
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns one page of objects under prefix in key order.
	List(ctx context.Context, prefix string, opts ListOptions) (Page, error)
}

// PutOptions configures upload behavior.
type PutOptions struct {
	// Size is the content length, or -1 when unknown.
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ListOptions configures listing behavior.
type ListOptions struct {
	// Limit caps the page size. Zero means the driver default.
	Limit int32
	// Token continues from a previous Page.NextToken.
	Token string
}

// Page is one listing page.
type Page struct {
	Objects []ObjectInfo
	// NextToken is empty on the last page.
	NextToken string
}

// ObjectInfo describes object metadata.
type ObjectInfo struct {
	Key         string
	Size        int64
	ETag        string
	ContentType string
	Metadata    map[string]string
	UpdatedAt   time.Time
}
