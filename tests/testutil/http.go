package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// HTTPTestCase drives one handler call without a router. Params fill the
// gin path parameters; Actor is stored the way ActorAuth stores it.
type HTTPTestCase struct {
	Name           string
	Method         string
	Path           string
	Params         map[string]string
	Actor          string
	Body           any
	Headers        map[string]string
	ExpectedStatus int
	// ExpectedCode is the error code of a failed envelope, empty for success
	ExpectedCode string
	Validate     func(t *testing.T, env Envelope)
}

// Envelope is the decoded response body of every API call
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string          `json:"code"`
		Message   string          `json:"message"`
		RequestID string          `json:"request_id"`
		Details   json.RawMessage `json:"details"`
		Fields    []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"fields"`
	} `json:"error"`
}

// RunHTTPTestCases runs each case as a subtest
func RunHTTPTestCases(t *testing.T, handler gin.HandlerFunc, cases []HTTPTestCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			RunHTTPTestCase(t, handler, tc)
		})
	}
}

// RunHTTPTestCase runs a single case and checks status and envelope shape
func RunHTTPTestCase(t *testing.T, handler gin.HandlerFunc, tc HTTPTestCase) Envelope {
	t.Helper()

	var body bytes.Buffer
	if tc.Body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(tc.Body), "Failed to marshal request body")
	}
	method := tc.Method
	if method == "" {
		method = http.MethodGet
	}
	path := tc.Path
	if path == "" {
		path = "/"
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, &body)
	if tc.Body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	for k, v := range tc.Headers {
		c.Request.Header.Set(k, v)
	}
	for k, v := range tc.Params {
		c.Params = append(c.Params, gin.Param{Key: k, Value: v})
	}
	if tc.Actor != "" {
		c.Set("actor_id", tc.Actor)
	}

	handler(c)

	if tc.ExpectedStatus != 0 {
		assert.Equal(t, tc.ExpectedStatus, w.Code, "Unexpected status code: %s", w.Body.String())
	}
	if w.Code == http.StatusNoContent {
		return Envelope{Success: true}
	}

	env := DecodeEnvelope(t, w.Body.Bytes())
	if tc.ExpectedCode != "" {
		AssertErrorCode(t, env, tc.ExpectedCode)
	} else if tc.ExpectedStatus != 0 && tc.ExpectedStatus < http.StatusBadRequest {
		assert.True(t, env.Success, "Expected a success envelope")
		assert.Nil(t, env.Error)
	}
	if tc.Validate != nil {
		tc.Validate(t, env)
	}
	return env
}

// DecodeEnvelope parses a response body
func DecodeEnvelope(t *testing.T, body []byte) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(body, &env), "Failed to parse response envelope: %s", body)
	return env
}

// DataAs decodes the envelope's data into T
func DataAs[T any](t *testing.T, env Envelope) T {
	t.Helper()
	var out T
	require.NotEmpty(t, env.Data, "Envelope carries no data")
	require.NoError(t, json.Unmarshal(env.Data, &out), "Failed to decode envelope data")
	return out
}

// AssertErrorCode asserts a failed envelope with the given code
func AssertErrorCode(t *testing.T, env Envelope, code string) {
	t.Helper()
	assert.False(t, env.Success, "Expected success to be false")
	require.NotNil(t, env.Error, "Expected error object in response")
	assert.Equal(t, code, env.Error.Code, "Unexpected error code: %s", env.Error.Message)
}

// AssertShortage asserts an INSUFFICIENT_STOCK envelope naming exactly the
// given order items, and returns the decoded lines.
func AssertShortage(t *testing.T, env Envelope, itemIDs ...uuid.UUID) []inventory.ShortageLine {
	t.Helper()
	AssertErrorCode(t, env, "INSUFFICIENT_STOCK")

	var lines []inventory.ShortageLine
	require.NoError(t, json.Unmarshal(env.Error.Details, &lines), "Failed to decode shortage lines")
	got := make([]uuid.UUID, len(lines))
	for i, l := range lines {
		got[i] = l.OrderItemID
		assert.Greater(t, l.Requested, l.Available, "line %s is not short", l.OrderItemID)
	}
	assert.ElementsMatch(t, itemIDs, got)
	return lines
}
