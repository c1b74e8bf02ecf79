package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const defaultGCSPageSize = 100

// GCSAdapter implements Storage using Google Cloud Storage.
type GCSAdapter struct {
	client *gcs.Client
	bucket *gcs.BucketHandle
}

// GCSOptions configures GCS client initialization.
type GCSOptions struct {
	Bucket string
	// Client provides an existing GCS client.
	Client *gcs.Client
	// ClientOptions are used when creating a new client.
	ClientOptions []option.ClientOption
}

// NewGCS constructs a GCS adapter.
func NewGCS(ctx context.Context, opts GCSOptions) (*GCSAdapter, error) {
	if opts.Bucket == "" {
		return nil, ErrBucketRequired
	}

	client := opts.Client
	if client == nil {
		created, err := gcs.NewClient(ctx, opts.ClientOptions...)
		if err != nil {
			return nil, fmt.Errorf("storage: gcs new client: %w", err)
		}
		client = created
	}
	return &GCSAdapter{client: client, bucket: client.Bucket(opts.Bucket)}, nil
}

func (g *GCSAdapter) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	writer := g.bucket.Object(key).NewWriter(ctx)
	writer.ContentType = opts.ContentType
	writer.Metadata = opts.Metadata

	if _, err := io.Copy(writer, r); err != nil {
		return ObjectInfo{}, errors.Join(err, writer.Close())
	}
	if err := writer.Close(); err != nil {
		return ObjectInfo{}, err
	}
	return gcsAttrsToInfo(writer.Attrs()), nil
}

func (g *GCSAdapter) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	obj := g.bucket.Object(key)

	reader, err := obj.NewReader(ctx)
	if err != nil {
		return nil, ObjectInfo{}, mapGCSError(err)
	}
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return nil, ObjectInfo{}, errors.Join(mapGCSError(err), reader.Close())
	}
	return reader, gcsAttrsToInfo(attrs), nil
}

func (g *GCSAdapter) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	attrs, err := g.bucket.Object(key).Attrs(ctx)
	if err != nil {
		return ObjectInfo{}, mapGCSError(err)
	}
	return gcsAttrsToInfo(attrs), nil
}

func (g *GCSAdapter) Delete(ctx context.Context, key string) error {
	err := g.bucket.Object(key).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (g *GCSAdapter) List(ctx context.Context, prefix string, opts ListOptions) (Page, error) {
	size := defaultGCSPageSize
	if opts.Limit > 0 {
		size = int(opts.Limit)
	}

	var attrs []*gcs.ObjectAttrs
	pager := iterator.NewPager(g.bucket.Objects(ctx, &gcs.Query{Prefix: prefix}), size, opts.Token)
	next, err := pager.NextPage(&attrs)
	if err != nil {
		return Page{}, err
	}

	page := Page{Objects: make([]ObjectInfo, 0, len(attrs)), NextToken: next}
	for _, a := range attrs {
		page.Objects = append(page.Objects, gcsAttrsToInfo(a))
	}
	return page, nil
}

func (g *GCSAdapter) Close() error {
	return g.client.Close()
}

func gcsAttrsToInfo(attrs *gcs.ObjectAttrs) ObjectInfo {
	if attrs == nil {
		return ObjectInfo{}
	}
	return ObjectInfo{
		Key:         attrs.Name,
		Size:        attrs.Size,
		ETag:        attrs.Etag,
		ContentType: attrs.ContentType,
		Metadata:    attrs.Metadata,
		UpdatedAt:   attrs.Updated,
	}
}

func mapGCSError(err error) error {
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("%w: %w", ErrObjectNotFound, err)
	}
	return err
}
