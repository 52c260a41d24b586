// Package image serves POST /generate: a plain-language request in, PNG bytes out.
package image

import (
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"k8s.io/klog/v2"

	"atlas/agents/internal/httpx"
	"atlas/agents/internal/responses"
)

const (
	noOutputDetail   = "Image generation tool produced no output."
	missingKeyDetail = "Server missing OPENAI_API_KEY"
)

var corsOptions = httpx.CORSOptions{
	AllowedOrigins: []string{"*"},
	AllowedMethods: []string{http.MethodPost, http.MethodOptions},
	AllowedHeaders: []string{"Content-Type"},
	MaxAge:         600 * time.Second,
}

// GenerateRequest requires input to be present; an empty string is passed on.
type GenerateRequest struct {
	Input *string `json:"input" validate:"required"`
}

type Handler struct {
	gen Generator
}

func NewHandler(gen Generator) *Handler {
	return &Handler{gen: gen}
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !httpx.Bind(w, r, &req) {
		return
	}

	b64, err := h.gen.Generate(r.Context(), *req.Input)
	switch {
	case errors.Is(err, ErrNoImage):
		httpx.WriteDetail(w, http.StatusInternalServerError, noOutputDetail)
		return
	case errors.Is(err, responses.ErrMissingAPIKey):
		httpx.WriteDetail(w, http.StatusInternalServerError, missingKeyDetail)
		return
	case err != nil:
		klog.ErrorS(err, "image generation failed", "requestID", httpx.RequestIDFrom(r.Context()))
		httpx.WriteDetail(w, http.StatusInternalServerError, "Image generation failed: "+err.Error())
		return
	}

	img, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		httpx.WriteDetail(w, http.StatusInternalServerError, "Image generation tool returned invalid base64: "+err.Error())
		return
	}
	if len(img) == 0 {
		httpx.WriteDetail(w, http.StatusInternalServerError, noOutputDetail)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img); err != nil {
		klog.ErrorS(err, "write image")
	}
}

// NewRouter wires the image service routes and middleware.
func NewRouter(h *Handler, pub httpx.OutcomePublisher) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", httpx.Healthz).Methods(http.MethodGet)
	r.Handle("/generate", httpx.Observe(pub, "image", "generate")(http.HandlerFunc(h.Generate))).Methods(http.MethodPost)
	return httpx.Chain(r, httpx.RequestID, httpx.LogRequest, httpx.CORS(corsOptions), httpx.Recover)
}
