// Package httpx holds the HTTP plumbing shared by the agent services:
// JSON bodies, the {"detail": ...} error shape, request validation,
// middleware and the server lifecycle.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"k8s.io/klog/v2"
)

const maxBodyBytes = 1 << 20

// ErrEmptyBody is returned by DecodeJSON when the request carries no body.
var ErrEmptyBody = errors.New("request body is empty")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Detail is the error body every service returns.
type Detail struct {
	Detail string `json:"detail"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		klog.ErrorS(err, "encode response")
	}
}

func WriteDetail(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, Detail{Detail: msg})
}

// Healthz is the liveness probe. It never touches an upstream.
func Healthz(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// DecodeJSON reads a single JSON value from the request body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return ErrEmptyBody
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("invalid JSON body: unexpected data after top-level value")
	}
	return nil
}

// Validate checks struct tags and returns a message naming the first failing field.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s: field required", fe.Field())
	case "min":
		return fmt.Sprintf("%s: must be greater than or equal to %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s: must be less than or equal to %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s: failed %q check", fe.Field(), fe.Tag())
	}
}

// Bind decodes and validates a request body, writing a 400 or 422 on failure.
// An empty body is treated as {} so missing fields are reported as such.
// It reports whether the handler should continue.
func Bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := DecodeJSON(r, dst); err != nil && !errors.Is(err, ErrEmptyBody) {
		WriteDetail(w, http.StatusBadRequest, err.Error())
		return false
	}
	if err := Validate(dst); err != nil {
		WriteDetail(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}
