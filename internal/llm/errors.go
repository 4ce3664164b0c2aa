package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/joseph-ayodele/papertrans/internal/common"
)

// FromStatus maps an HTTP status from a capability endpoint onto the error taxonomy.
func FromStatus(op string, status int, err error) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return common.Fatal("AUTH", fmt.Sprintf("%s endpoint rejected credentials (%d)", op, status), err)
	case status == http.StatusNotFound:
		return common.Fatal("ENDPOINT", fmt.Sprintf("%s endpoint or model not found", op), err)
	case status == http.StatusRequestTimeout, status == http.StatusConflict,
		status == http.StatusTooManyRequests, status >= 500:
		return common.Transient(op, err)
	default:
		return common.Malformed(op, "status %d: %v", status, err)
	}
}

// FromTransport classifies an error that carried no HTTP status.
// Context errors pass through so cancellation is never retried.
func FromTransport(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return common.Transient(op, err)
}
