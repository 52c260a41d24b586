// Package voice mints short-lived realtime session tokens for the bundled
// browser client, so the long-lived API key never leaves the server.
package voice

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"
	"k8s.io/klog/v2"

	"atlas/agents/internal/config"
	"atlas/agents/internal/httpx"
)

//go:embed static
var staticFS embed.FS

// SessionMinter is implemented by *Minter.
type SessionMinter interface {
	Configured() bool
	Mint(ctx context.Context, p SessionParams) (string, error)
}

type SessionRequest struct {
	Model string `json:"model"`
	Voice string `json:"voice"`
}

type SessionResponse struct {
	ClientSecret string `json:"client_secret"`
}

type Handler struct {
	minter       SessionMinter
	defaultModel string
	defaultVoice string
	static       fs.FS
}

func NewHandler(m SessionMinter, cfg *config.Voice) (*Handler, error) {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}
	return &Handler{
		minter:       m,
		defaultModel: cfg.DefaultModel,
		defaultVoice: cfg.DefaultVoice,
		static:       sub,
	}, nil
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, h.static, "index.html")
}

func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	if !h.minter.Configured() {
		httpx.WriteDetail(w, http.StatusInternalServerError, "Server missing OPENAI_API_KEY")
		return
	}

	var req SessionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil && !errors.Is(err, httpx.ErrEmptyBody) {
		httpx.WriteDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	params := SessionParams{Model: req.Model, Voice: req.Voice}
	if params.Model == "" {
		params.Model = h.defaultModel
	}
	if params.Voice == "" {
		params.Voice = h.defaultVoice
	}

	token, err := h.minter.Mint(r.Context(), params)
	if err != nil {
		h.writeMintError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, SessionResponse{ClientSecret: token})
}

func (h *Handler) writeMintError(w http.ResponseWriter, r *http.Request, err error) {
	var upstream *UpstreamError
	var transport *TransportError
	switch {
	case errors.As(err, &upstream):
		klog.InfoS("realtime session rejected", "status", upstream.StatusCode, "requestID", httpx.RequestIDFrom(r.Context()))
		httpx.WriteDetail(w, upstream.StatusCode, upstream.Body)
	case errors.As(err, &transport):
		klog.ErrorS(err, "realtime session transport failure", "requestID", httpx.RequestIDFrom(r.Context()))
		httpx.WriteDetail(w, http.StatusBadGateway, transport.Error())
	case errors.Is(err, ErrMissingAPIKey):
		httpx.WriteDetail(w, http.StatusInternalServerError, "Server missing OPENAI_API_KEY")
	case errors.Is(err, ErrMissingSecret):
		httpx.WriteDetail(w, http.StatusInternalServerError, "Missing client_secret.value in OpenAI response")
	default:
		httpx.WriteDetail(w, http.StatusInternalServerError, err.Error())
	}
}

// NewRouter wires the voice service routes. Unlike the other services it
// allows credentialed cross-origin calls from the configured origins.
func NewRouter(h *Handler, cfg *config.Voice, pub httpx.OutcomePublisher) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", h.Index).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/healthz", httpx.Healthz).Methods(http.MethodGet)
	r.Handle("/session", httpx.Observe(pub, "voice", "session")(http.HandlerFunc(h.Session))).Methods(http.MethodPost)
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(h.static))))

	cors := httpx.CORS(httpx.CORSOptions{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"*"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return httpx.Chain(r, httpx.RequestID, httpx.LogRequest, cors, httpx.Recover)
}
