package storage

import (
	"context"
	"errors"
	"testing"

	gcs "cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/minio/minio-go/v7"
)

func TestNotFoundMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "s3 no such key", err: mapS3Error(&types.NoSuchKey{}), want: true},
		{name: "s3 head not found", err: mapS3Error(&types.NotFound{}), want: true},
		{name: "s3 other", err: mapS3Error(errors.New("access denied")), want: false},
		{name: "gcs missing", err: mapGCSError(gcs.ErrObjectNotExist), want: true},
		{name: "minio missing", err: mapMinIOError(minio.ErrorResponse{Code: "NoSuchKey"}), want: true},
		{name: "minio other", err: mapMinIOError(minio.ErrorResponse{Code: "AccessDenied"}), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, ErrObjectNotFound); got != tt.want {
				t.Fatalf("errors.Is(%v, ErrObjectNotFound) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}

	if mapS3Error(nil) != nil {
		t.Fatal("mapS3Error(nil) must be nil")
	}
}

func TestNewFromDriver_Errors(t *testing.T) {
	ctx := context.Background()

	if _, err := NewFromDriver(ctx, "azure", FactoryOptions{}); !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("error = %v, want %v", err, ErrUnknownDriver)
	}
	if _, err := NewFromDriver(ctx, DriverMinIO, FactoryOptions{}); !errors.Is(err, ErrBucketRequired) {
		t.Fatalf("error = %v, want %v", err, ErrBucketRequired)
	}
}
