//go:build unit || e2e

package httptest

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// RequestIDPattern matches the X-Request-ID set by the logging middleware.
const RequestIDPattern = `^\d{14}-[0-9a-f]{8}$`

// AssertHeaders checks each response header against a regular expression.
func AssertHeaders(t *testing.T, w *httptest.ResponseRecorder, expected map[string]string) {
	t.Helper()
	for k, pattern := range expected {
		assert.Regexp(t, pattern, w.Header().Get(k), "header %s mismatch", k)
	}
}
