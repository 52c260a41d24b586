// Package search answers questions with a web-search agent whose
// instructions carry the caller's source preferences.
package search

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"k8s.io/klog/v2"

	"atlas/agents/internal/agent"
	"atlas/agents/internal/httpx"
)

var corsOptions = httpx.CORSOptions{
	AllowedOrigins: []string{"*"},
	AllowedMethods: []string{http.MethodPost, http.MethodOptions},
	AllowedHeaders: []string{"Content-Type"},
	MaxAge:         600 * time.Second,
}

// Response always carries an empty, non-nil source list; sources are
// expected inline in the answer text.
type Response struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// AgentRunner is implemented by *agent.Runner.
type AgentRunner interface {
	Run(ctx context.Context, a *agent.Agent, input string, cfg agent.RunConfig) (*agent.RunResult, error)
}

type Handler struct {
	runner AgentRunner
	model  string
}

func NewHandler(runner AgentRunner, model string) *Handler {
	return &Handler{runner: runner, model: model}
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req Request
	if !httpx.Bind(w, r, &req) {
		return
	}

	res, err := h.runner.Run(r.Context(), BuildAgent(h.model, req), *req.Query, agent.RunConfig{WorkflowName: "web_search"})
	if err != nil {
		klog.ErrorS(err, "search failed", "requestID", httpx.RequestIDFrom(r.Context()))
		httpx.WriteDetail(w, http.StatusInternalServerError, "Search failed: "+err.Error())
		return
	}
	httpx.WriteJSON(w, http.StatusOK, Response{Answer: res.FinalOutput, Sources: []string{}})
}

// NewRouter wires the search service routes and middleware.
func NewRouter(h *Handler, pub httpx.OutcomePublisher) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", httpx.Healthz).Methods(http.MethodGet)
	r.Handle("/search", httpx.Observe(pub, "search", "query")(http.HandlerFunc(h.Search))).Methods(http.MethodPost)
	return httpx.Chain(r, httpx.RequestID, httpx.LogRequest, httpx.CORS(corsOptions), httpx.Recover)
}
