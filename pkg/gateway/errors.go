package gateway

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/smithy-go"
	"github.com/minio/minio-go/v7"
)

// api error codes that mean the caller's credentials may not perform the operation
var deniedCodes = map[string]bool{
	"AccessDenied":                true,
	"AccessDeniedException":       true,
	"UnauthorizedOperation":       true,
	"UnrecognizedClientException": true,
	"InvalidAccessKeyId":          true,
	"SignatureDoesNotMatch":       true,
	"ExpiredToken":                true,
}

// classify wraps err with a sentinel when the provider reported a known condition,
// keeping the original error in the chain.
func classify(op string, err error) error {

	var notFound *types.ParameterNotFound
	if errors.As(err, &notFound) {
		return fmt.Errorf("%s: %w: %w", op, ErrParameterNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.ErrorCode() == "ParameterNotFound":
			return fmt.Errorf("%s: %w: %w", op, ErrParameterNotFound, err)
		case deniedCodes[apiErr.ErrorCode()]:
			return fmt.Errorf("%s: %w: %w", op, ErrAccessDenied, err)
		}
	}

	if code := minio.ToErrorResponse(err).Code; deniedCodes[code] {
		return fmt.Errorf("%s: %w: %w", op, ErrAccessDenied, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}
