package s3

import (
	"errors"
	"fmt"
	"net/http"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"discover-release/pkg/storage"
)

// Error codes that indicate a misconfigured or unauthorized run rather than a
// transient provider hiccup. No retry fixes these.
var fatalCodes = map[string]struct{}{
	"AccessDenied":          {},
	"AccountProblem":        {},
	"ExpiredToken":          {},
	"InvalidAccessKeyId":    {},
	"NoSuchBucket":          {},
	"PermanentRedirect":     {},
	"SignatureDoesNotMatch": {},
}

// classify maps an SDK error onto the engine's error taxonomy. Anything not
// recognized as not-found or fatal is left as an ordinary entry-scoped error:
// the SDK retryer has already exhausted transient retries by the time an
// error reaches this point.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if isFatal(err) {
		return &storage.FatalError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		// localstack returns a bare "NotFound" where AWS uses NoSuchKey
		case "NoSuchKey", "NoSuchVersion", "NotFound":
			return true
		}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode() == http.StatusNotFound
	}

	return false
}

func isFatal(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if _, ok := fatalCodes[apiErr.ErrorCode()]; ok {
			return true
		}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		status := respErr.HTTPStatusCode()
		return status == http.StatusForbidden || status == http.StatusMovedPermanently
	}

	return false
}
