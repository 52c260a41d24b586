package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSOptions configures cross-origin access. "*" in AllowedOrigins,
// AllowedMethods or AllowedHeaders matches anything.
type CORSOptions struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// CORS returns middleware applying opts. It wraps the whole router so that
// preflight requests are answered before route matching.
func CORS(opts CORSOptions) func(http.Handler) http.Handler {
	allowAllOrigins := contains(opts.AllowedOrigins, "*")
	allowAllMethods := contains(opts.AllowedMethods, "*")
	allowAllHeaders := contains(opts.AllowedHeaders, "*")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			var allowOrigin string
			switch {
			case allowAllOrigins && opts.AllowCredentials:
				// browsers reject "*" on credentialed requests
				allowOrigin = origin
			case allowAllOrigins:
				allowOrigin = "*"
			case contains(opts.AllowedOrigins, origin):
				allowOrigin = origin
			default:
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			if allowOrigin != "*" {
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Origin", allowOrigin)
			if opts.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			reqMethod := r.Header.Get("Access-Control-Request-Method")
			if r.Method != http.MethodOptions || reqMethod == "" {
				next.ServeHTTP(w, r)
				return
			}

			if allowAllMethods {
				h.Set("Access-Control-Allow-Methods", reqMethod)
			} else {
				h.Set("Access-Control-Allow-Methods", strings.Join(opts.AllowedMethods, ", "))
			}

			reqHeaders := r.Header.Get("Access-Control-Request-Headers")
			switch {
			case reqHeaders != "" && allowAllHeaders:
				h.Set("Access-Control-Allow-Headers", reqHeaders)
			case reqHeaders != "":
				var allowed []string
				for _, rh := range strings.Split(reqHeaders, ",") {
					rh = strings.TrimSpace(rh)
					for _, ah := range opts.AllowedHeaders {
						if strings.EqualFold(ah, rh) {
							allowed = append(allowed, rh)
							break
						}
					}
				}
				if len(allowed) > 0 {
					h.Set("Access-Control-Allow-Headers", strings.Join(allowed, ", "))
				}
			case !allowAllHeaders && len(opts.AllowedHeaders) > 0:
				h.Set("Access-Control-Allow-Headers", strings.Join(opts.AllowedHeaders, ", "))
			}

			if opts.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", strconv.FormatInt(int64(opts.MaxAge/time.Second), 10))
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
