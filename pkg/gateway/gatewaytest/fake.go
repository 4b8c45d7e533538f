// Package gatewaytest provides an in-memory gateway for tests of the services.
package gatewaytest

import (
	"context"
	"fmt"
	"sync"

	"github.com/tdeslauriers/tandem/pkg/gateway"
)

// Fake implements gateway.BucketLister and gateway.ParameterStore from fixed data.
// Setting an Err field makes the matching operation fail with it.
type Fake struct {
	Buckets    []string
	Parameters map[string]string
	Names      []string // describe order; defaults to nothing when unset

	ListErr     error
	DescribeErr error
	GetErr      error

	mu          sync.Mutex
	GotNames    []string // names passed to GetParameter, in call order
	GotMaxes    []int32  // maxResults passed to DescribeParameters
	GotDecrypts []bool
}

var (
	_ gateway.BucketLister   = (*Fake)(nil)
	_ gateway.ParameterStore = (*Fake)(nil)
)

func (f *Fake) ListBuckets(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]string(nil), f.Buckets...), nil
}

func (f *Fake) DescribeParameters(ctx context.Context, maxResults int32) ([]string, error) {
	f.mu.Lock()
	f.GotMaxes = append(f.GotMaxes, maxResults)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.DescribeErr != nil {
		return nil, f.DescribeErr
	}

	names := append([]string(nil), f.Names...)
	if maxResults > 0 && int(maxResults) < len(names) {
		names = names[:maxResults]
	}
	return names, nil
}

func (f *Fake) GetParameter(ctx context.Context, name string, withDecryption bool) (string, error) {
	f.mu.Lock()
	f.GotNames = append(f.GotNames, name)
	f.GotDecrypts = append(f.GotDecrypts, withDecryption)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.GetErr != nil {
		return "", f.GetErr
	}

	value, ok := f.Parameters[name]
	if !ok {
		return "", fmt.Errorf("get parameter '%s': %w", name, gateway.ErrParameterNotFound)
	}
	return value, nil
}
