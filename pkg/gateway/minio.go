package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/tdeslauriers/tandem/internal/util"
)

// MinioConfig holds the connection details for an s3 compatible endpoint.
type MinioConfig struct {
	Url       string // host:port, no scheme
	AccessKey string
	SecretKey string
	Secure    bool
	Region    string
}

// NewMinioLister creates a BucketLister for any s3 compatible endpoint (minio, ceph, localstack).
// transport may be nil to use the minio default.
func NewMinioLister(config MinioConfig, transport http.RoundTripper) (BucketLister, error) {

	region := config.Region
	if region == "" {
		// pinned so the client never issues a bucket location lookup first
		region = "us-east-1"
	}

	client, err := minio.New(config.Url, &minio.Options{
		Creds:     credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure:    config.Secure,
		Region:    region,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for '%s': %v", config.Url, err)
	}

	return &minioLister{
		client: client,

		logger: slog.Default().
			With(slog.String(util.PackageKey, util.PackageGateway)).
			With(slog.String(util.ComponentKey, util.ComponentMinio)),
	}, nil
}

var _ BucketLister = (*minioLister)(nil)

type minioLister struct {
	client *minio.Client

	logger *slog.Logger
}

// ListBuckets lists every bucket visible to the configured credentials.
func (m *minioLister) ListBuckets(ctx context.Context) ([]string, error) {

	buckets, err := m.client.ListBuckets(ctx)
	if err != nil {
		m.logger.Error("failed to list buckets", slog.String("err", err.Error()))
		return nil, classify("list buckets", err)
	}

	names := make([]string, 0, len(buckets))
	for _, b := range buckets {
		names = append(names, b.Name)
	}

	return names, nil
}
