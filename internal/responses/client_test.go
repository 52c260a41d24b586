package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const imageRunBody = `{
  "id": "resp_1",
  "status": "completed",
  "model": "gpt-5-mini",
  "output": [
    {"type": "reasoning", "id": "rs_1", "summary": []},
    {"type": "image_generation_call", "id": "ig_1", "status": "completed", "result": "aGVsbG8="},
    {"type": "mcp_list_tools", "id": "x_1"},
    {"type": "message", "id": "msg_1", "role": "assistant", "status": "completed",
     "content": [{"type": "output_text", "text": "Here is "}, {"type": "output_text", "text": "your image."}]}
  ]
}`

func newUpstream(t *testing.T, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCreateSendsRequestAndDecodesItems(t *testing.T) {
	srv := newUpstream(t, http.StatusOK, imageRunBody, func(r *http.Request) {
		assert.Equal(t, "/v1/responses", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req CreateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-5-mini", req.Model)
		assert.Equal(t, "draw a cat", req.Input)
		require.Len(t, req.Tools, 1)
		assert.Equal(t, ToolImageGeneration, req.Tools[0].Type)
		assert.Equal(t, "1536x1024", req.Tools[0].Size)
	})

	c := NewClient("sk-test", WithBaseURL(srv.URL+"/v1/"))
	resp, err := c.Create(context.Background(), CreateRequest{
		Model: "gpt-5-mini",
		Input: "draw a cat",
		Tools: []Tool{ImageGenerationTool("high", "gpt-image-1", "1536x1024")},
	})
	require.NoError(t, err)
	require.Len(t, resp.Output, 4)

	assert.NotNil(t, resp.Output[0].Reasoning)
	require.NotNil(t, resp.Output[1].ImageGenerationCall)
	assert.Equal(t, "aGVsbG8=", resp.Output[1].ImageGenerationCall.Result)

	unknown := resp.Output[2]
	assert.Equal(t, "mcp_list_tools", unknown.Type)
	assert.Nil(t, unknown.Message)
	assert.Nil(t, unknown.ImageGenerationCall)
	assert.JSONEq(t, `{"type": "mcp_list_tools", "id": "x_1"}`, string(unknown.Raw))

	assert.Equal(t, "Here is your image.", resp.OutputText())
}

func TestCreateMissingKey(t *testing.T) {
	_, err := NewClient("").Create(context.Background(), CreateRequest{Model: "m", Input: "x"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestCreateMapsProviderError(t *testing.T) {
	srv := newUpstream(t, http.StatusTooManyRequests,
		`{"error": {"message": "Rate limit reached", "type": "requests", "code": "rate_limit_exceeded"}}`, nil)

	_, err := NewClient("sk-test", WithBaseURL(srv.URL)).Create(context.Background(), CreateRequest{Model: "m", Input: "x"})
	var apiErr *openai.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.HTTPStatusCode)
	assert.Equal(t, "Rate limit reached", apiErr.Message)
}

func TestCreateMapsUnstructuredError(t *testing.T) {
	srv := newUpstream(t, http.StatusBadGateway, `upstream connect error`, nil)

	_, err := NewClient("sk-test", WithBaseURL(srv.URL)).Create(context.Background(), CreateRequest{Model: "m", Input: "x"})
	var reqErr *openai.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusBadGateway, reqErr.HTTPStatusCode)
	assert.Contains(t, reqErr.Err.Error(), "upstream connect error")
}

func TestCreateFailedStatus(t *testing.T) {
	srv := newUpstream(t, http.StatusOK,
		`{"id": "resp_9", "status": "failed", "output": [], "error": {"code": "server_error", "message": "boom"}}`, nil)

	resp, err := NewClient("sk-test", WithBaseURL(srv.URL)).Create(context.Background(), CreateRequest{Model: "m", Input: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	require.NotNil(t, resp)
	assert.Equal(t, "resp_9", resp.ID)
}

func TestOutputTextUsesLastAssistantMessage(t *testing.T) {
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(`{"output": [
		{"type": "message", "role": "assistant", "content": [{"type": "output_text", "text": "draft"}]},
		{"type": "web_search_call", "id": "ws_1", "status": "completed", "action": {"type": "search", "query": "q"}},
		{"type": "message", "role": "assistant", "content": [{"type": "refusal", "refusal": "no"}, {"type": "output_text", "text": "final"}]}
	]}`), &resp))

	require.NotNil(t, resp.Output[1].WebSearchCall)
	assert.Equal(t, "q", resp.Output[1].WebSearchCall.Action.Query)
	assert.Equal(t, "final", resp.OutputText())

	assert.Equal(t, "", (&Response{}).OutputText())
}
