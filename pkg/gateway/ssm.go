package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/tdeslauriers/tandem/internal/util"
)

// SsmApi is the subset of the ssm client used here.
type SsmApi interface {
	DescribeParameters(ctx context.Context, params *ssm.DescribeParametersInput, optFns ...func(*ssm.Options)) (*ssm.DescribeParametersOutput, error)
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// NewSsmStore creates a ParameterStore backed by aws systems manager parameter store.
func NewSsmStore(cfg aws.Config) ParameterStore {
	return newSsmStore(ssm.NewFromConfig(cfg))
}

func newSsmStore(api SsmApi) *ssmStore {
	return &ssmStore{
		api: api,

		logger: slog.Default().
			With(slog.String(util.PackageKey, util.PackageGateway)).
			With(slog.String(util.ComponentKey, util.ComponentSsm)),
	}
}

var _ ParameterStore = (*ssmStore)(nil)

type ssmStore struct {
	api SsmApi

	logger *slog.Logger
}

// DescribeParameters returns names from the first page only; NextToken is ignored.
func (s *ssmStore) DescribeParameters(ctx context.Context, maxResults int32) ([]string, error) {

	in := &ssm.DescribeParametersInput{}
	if maxResults > 0 {
		in.MaxResults = aws.Int32(maxResults)
	}

	out, err := s.api.DescribeParameters(ctx, in)
	if err != nil {
		s.logger.Error("failed to describe parameters", slog.String("err", err.Error()))
		return nil, classify("describe parameters", err)
	}

	names := make([]string, 0, len(out.Parameters))
	for _, p := range out.Parameters {
		names = append(names, aws.ToString(p.Name))
	}

	return names, nil
}

// GetParameter reads a single parameter by its exact name.
func (s *ssmStore) GetParameter(ctx context.Context, name string, withDecryption bool) (string, error) {

	out, err := s.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(withDecryption),
	})
	if err != nil {
		// missing parameters are routine, so warn rather than error
		classified := classify(fmt.Sprintf("get parameter '%s'", name), err)
		s.logger.Warn("failed to get parameter",
			slog.String("parameter", name),
			slog.String("err", err.Error()))
		return "", classified
	}

	if out.Parameter == nil {
		return "", fmt.Errorf("get parameter '%s': response contained no parameter", name)
	}

	return aws.ToString(out.Parameter.Value), nil
}
