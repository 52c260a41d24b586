package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atlas/agents/internal/events"
)

type sample struct {
	Name  string `json:"name" validate:"required"`
	Count *int   `json:"count,omitempty" validate:"omitnil,min=1,max=5"`
}

func TestBind(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		ok     bool
		status int
		detail string
	}{
		{name: "valid", body: `{"name": "a", "count": 3}`, ok: true},
		{name: "empty body", body: "", status: http.StatusUnprocessableEntity, detail: "name: field required"},
		{name: "malformed", body: `{"name":`, status: http.StatusBadRequest, detail: "invalid JSON body"},
		{name: "trailing garbage", body: `{"name": "a"} trailing`, status: http.StatusBadRequest, detail: "invalid JSON body"},
		{name: "second value", body: `{"name": "a"} {"name": "b"}`, status: http.StatusBadRequest, detail: "invalid JSON body"},
		{name: "trailing whitespace", body: "{\"name\": \"a\"}\n\n", ok: true},
		{name: "missing field", body: `{}`, status: http.StatusUnprocessableEntity, detail: "name: field required"},
		{name: "below min", body: `{"name": "a", "count": 0}`, status: http.StatusUnprocessableEntity, detail: "count: must be greater than or equal to 1"},
		{name: "above max", body: `{"name": "a", "count": 6}`, status: http.StatusUnprocessableEntity, detail: "count: must be less than or equal to 5"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))

			var dst sample
			ok := Bind(rec, req, &dst)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, "a", dst.Name)
				return
			}
			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.detail)
		})
	}
}

func TestWriteDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteDetail(rec, http.StatusBadGateway, "upstream down")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"detail": "upstream down"}`, rec.Body.String())
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })

	t.Run("wildcard without credentials", func(t *testing.T) {
		h := CORS(CORSOptions{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         600 * time.Second,
		})(ok)

		req := httptest.NewRequest(http.MethodOptions, "/generate", nil)
		req.Header.Set("Origin", "https://app.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "content-type, x-other")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "content-type", rec.Header().Get("Access-Control-Allow-Headers"))
		assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("simple request passes through", func(t *testing.T) {
		h := CORS(CORSOptions{AllowedOrigins: []string{"*"}})(ok)

		req := httptest.NewRequest(http.MethodPost, "/generate", nil)
		req.Header.Set("Origin", "https://app.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("no origin header", func(t *testing.T) {
		h := CORS(CORSOptions{AllowedOrigins: []string{"*"}})(ok)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

type recordingPublisher struct {
	got []events.Outcome
}

func (p *recordingPublisher) Publish(o events.Outcome) { p.got = append(p.got, o) }

func TestObserveAndChain(t *testing.T) {
	pub := &recordingPublisher{}
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteDetail(w, http.StatusUnprocessableEntity, "nope")
	})
	h := Chain(Observe(pub, "search", "query")(inner), RequestID, LogRequest, Recover)

	req := httptest.NewRequest(http.MethodPost, "/search", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Len(t, pub.got, 1)
	o := pub.got[0]
	assert.Equal(t, "search", o.Service)
	assert.Equal(t, "query", o.Operation)
	assert.Equal(t, "req-1", o.RequestID)
	assert.Equal(t, http.StatusUnprocessableEntity, o.Status)
	assert.Equal(t, "/search", o.Path)
}

func TestObservePublishesPanicAsServerError(t *testing.T) {
	pub := &recordingPublisher{}
	h := Chain(Observe(pub, "image", "generate")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("nil map")
	})), RequestID, Recover)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Len(t, pub.got, 1)
	assert.Equal(t, http.StatusInternalServerError, pub.got[0].Status)
	assert.Equal(t, "generate", pub.got[0].Operation)
}

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
