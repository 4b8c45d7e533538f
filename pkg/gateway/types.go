// Package gateway wraps the cloud provider apis the auxiliary service fronts:
// object storage bucket listing and a parameter (secrets) store.
package gateway

import (
	"context"
	"errors"
)

// BucketLister lists object storage buckets.
type BucketLister interface {

	// ListBuckets returns bucket names in the order the provider reports them.
	ListBuckets(ctx context.Context) ([]string, error)
}

// ParameterStore reads from a managed key-value parameter store.
type ParameterStore interface {

	// DescribeParameters returns the names from the first page of parameter
	// descriptors. maxResults <= 0 leaves the page size to the provider.
	DescribeParameters(ctx context.Context, maxResults int32) ([]string, error)

	// GetParameter returns a parameter's value, decrypted when withDecryption is set.
	GetParameter(ctx context.Context, name string, withDecryption bool) (string, error)
}

var (
	ErrParameterNotFound = errors.New("parameter not found")
	ErrAccessDenied      = errors.New("access denied")
)
