package gateway

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/tdeslauriers/tandem/internal/util"
)

// S3Api is the subset of the s3 client used here.
type S3Api interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
}

// NewS3Lister creates a BucketLister backed by aws s3.
func NewS3Lister(cfg aws.Config) BucketLister {
	return newS3Lister(s3.NewFromConfig(cfg))
}

func newS3Lister(api S3Api) *s3Lister {
	return &s3Lister{
		api: api,

		logger: slog.Default().
			With(slog.String(util.PackageKey, util.PackageGateway)).
			With(slog.String(util.ComponentKey, util.ComponentS3)),
	}
}

var _ BucketLister = (*s3Lister)(nil)

type s3Lister struct {
	api S3Api

	logger *slog.Logger
}

// ListBuckets makes a single ListBuckets call; continuation pages are not followed.
func (l *s3Lister) ListBuckets(ctx context.Context) ([]string, error) {

	out, err := l.api.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		l.logger.Error("failed to list buckets", slog.String("err", err.Error()))
		return nil, classify("list buckets", err)
	}

	names := make([]string, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		names = append(names, aws.ToString(b.Name))
	}

	return names, nil
}
