package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	DriverS3    = "s3"
	DriverGCS   = "gcs"
	DriverMinIO = "minio"
)

var ErrUnknownDriver = errors.New("storage: unknown driver")

// FactoryOptions carries the settings of every driver. Only the selected
// driver's section is read.
type FactoryOptions struct {
	S3    S3Options
	GCS   GCSOptions
	MinIO MinIOOptions
}

// NewFromDriver opens the object store selected by driver. Bucket checks are
// left to each constructor.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Storage, error) {
	switch d := strings.ToLower(strings.TrimSpace(driver)); d {
	case DriverS3:
		return NewS3(ctx, opts.S3)
	case DriverGCS, "google-cloud-storage":
		return NewGCS(ctx, opts.GCS)
	case DriverMinIO:
		return NewMinIO(opts.MinIO)
	case "":
		return nil, fmt.Errorf("%w: driver is empty", ErrUnknownDriver)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, d)
	}
}
