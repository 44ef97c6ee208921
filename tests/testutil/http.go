// Package testutil provides HTTP helpers for tests that drive the ledger API
// through a full gin engine.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// HTTPTestCase represents a test case for HTTP handler testing.
type HTTPTestCase struct {
	Name           string
	Method         string
	Path           string
	Body           interface{}
	Headers        map[string]string
	ExpectedStatus int
	// ExpectedCode is the first error code of a failed response
	ExpectedCode string
	Validate     func(t *testing.T, w *httptest.ResponseRecorder)
}

// RunHTTPTestCases runs a slice of HTTP test cases against a handler.
func RunHTTPTestCases(t *testing.T, h http.Handler, cases []HTTPTestCase) {
	t.Helper()

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			RunHTTPTestCase(t, h, tc)
		})
	}
}

// RunHTTPTestCase runs a single HTTP test case.
func RunHTTPTestCase(t *testing.T, h http.Handler, tc HTTPTestCase) {
	t.Helper()

	method := tc.Method
	if method == "" {
		method = http.MethodGet
	}
	w := Do(t, h, method, tc.Path, tc.Body, tc.Headers)

	if tc.ExpectedStatus != 0 {
		assert.Equal(t, tc.ExpectedStatus, w.Code, "Unexpected status code: %s", w.Body.String())
	}
	if tc.ExpectedCode != "" {
		AssertErrorCode(t, w, tc.ExpectedCode)
	}
	if tc.Validate != nil {
		tc.Validate(t, w)
	}
}

// Do sends a request to h. A string body is sent as is, any other non-nil
// body is JSON encoded.
func Do(t *testing.T, h http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		reader = ToJSONReader(t, b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// DoJSON sends a JSON request without extra headers.
func DoJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return Do(t, h, method, path, body, nil)
}

// Envelope decodes the standard response envelope.
func Envelope(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "Failed to parse response envelope: %s", w.Body.String())
	return resp
}

// DataAs decodes the data field of a successful response into T.
func DataAs[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), "Failed to parse response envelope")
	require.True(t, envelope.Success, "Expected a successful response: %s", w.Body.String())

	var result T
	require.NoError(t, json.Unmarshal(envelope.Data, &result), "Failed to parse response data")
	return result
}

// AssertSuccessResponse asserts the response is a successful API response.
func AssertSuccessResponse(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()

	resp := Envelope(t, w)
	assert.True(t, resp.Success, "Expected success to be true: %s", w.Body.String())
	assert.Empty(t, resp.Errors, "Expected no errors")
}

// AssertErrorCode asserts the response failed and its first error carries code.
func AssertErrorCode(t *testing.T, w *httptest.ResponseRecorder, expectedCode string) {
	t.Helper()

	resp := Envelope(t, w)
	assert.False(t, resp.Success, "Expected success to be false")
	require.NotEmpty(t, resp.Errors, "Expected error entries in response")
	assert.Equal(t, expectedCode, resp.Errors[0].Code, "Unexpected error code")
}

// ToJSONReader converts a value to a JSON io.Reader.
func ToJSONReader(t *testing.T, v interface{}) io.Reader {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err, "Failed to marshal to JSON")
	return bytes.NewReader(data)
}
