// Package errmodel defines the compact, categorized error payload used
// across the agent: configuration failures are fatal at startup, tool
// failures are fed back into the agent loop, model failures propagate to
// the caller that invoked the session.
package errmodel

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Category values for compact errors.
const (
	CategoryConfig     = "config"
	CategoryValidation = "validation"
	CategoryTool       = "tool"
	CategoryModel      = "model"
	CategoryNetwork    = "network"
	CategorySystem     = "system"
)

const (
	maxMessageLen = 512
	maxContextLen = 256
)

// Error is the compact error payload returned by the API and used internally.
// It implements the error interface.
type Error struct {
	Category string         `json:"category"`
	Code     string         `json:"code"`
	Message  string         `json:"message"`
	Context  map[string]any `json:"context,omitempty"`
	Causes   []Error        `json:"causes,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

// New constructs a compact error. Messages and context values are truncated
// so envelopes stay small even when they carry upstream payloads.
func New(category, code, message string, ctx map[string]any, causes ...error) *Error {
	ce := &Error{Category: category, Code: code, Message: truncate(message, maxMessageLen)}
	if len(ctx) > 0 {
		ce.Context = compactContext(ctx)
	}
	for _, c := range causes {
		if c != nil {
			ce.Causes = append(ce.Causes, *From(c))
		}
	}
	return ce
}

// From converts any error into a compact Error. An error that already is (or
// wraps) an *Error comes back unchanged; anything else becomes system/internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	return &Error{Category: CategorySystem, Code: "internal", Message: truncate(err.Error(), maxMessageLen)}
}

// Config marks fatal startup conditions: missing or malformed credentials.
func Config(code, message string, ctx map[string]any) *Error {
	return New(CategoryConfig, code, message, ctx)
}

func Validation(code, message string, ctx map[string]any) *Error {
	return New(CategoryValidation, code, message, ctx)
}

// Tool marks a failure inside a tool's Invoke. These surface to the agent
// loop as observations, never as uncaught errors.
func Tool(code, message string, ctx map[string]any, cause error) *Error {
	return withCause(CategoryTool, code, message, ctx, cause)
}

// Model marks model-adapter failures: transport/auth ("unavailable") or
// unparseable output ("malformed_response").
func Model(code, message string, ctx map[string]any, cause error) *Error {
	return withCause(CategoryModel, code, message, ctx, cause)
}

func Network(code, message string, ctx map[string]any, cause error) *Error {
	return withCause(CategoryNetwork, code, message, ctx, cause)
}

func System(code, message string, ctx map[string]any, cause error) *Error {
	return withCause(CategorySystem, code, message, ctx, cause)
}

func withCause(category, code, message string, ctx map[string]any, cause error) *Error {
	if cause == nil {
		return New(category, code, message, ctx)
	}
	return New(category, code, message, ctx, cause)
}

// HTTPStatus maps category/code to an HTTP status.
func HTTPStatus(e *Error) int {
	if e == nil {
		return http.StatusInternalServerError
	}
	switch e.Category {
	case CategoryValidation:
		switch e.Code {
		case "not_found":
			return http.StatusNotFound
		case "conflict":
			return http.StatusConflict
		}
		return http.StatusBadRequest
	case CategoryNetwork, CategoryTool, CategoryModel:
		return http.StatusBadGateway
	}
	// config and system are the server's fault
	return http.StatusInternalServerError
}

// WriteHTTP writes the error envelope {error, trace_id} to the response,
// picking the trace id up from the request's span when one is recording.
func WriteHTTP(w http.ResponseWriter, r *http.Request, err error) {
	ce := From(err)
	if ce == nil {
		ce = &Error{Category: CategorySystem, Code: "internal", Message: "unknown error"}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(ce))

	var traceID string
	if r != nil {
		if sc := trace.SpanFromContext(r.Context()).SpanContext(); sc.HasTraceID() {
			traceID = sc.TraceID().String()
		}
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":    ce,
		"trace_id": traceID,
	})
}

// IsCategory reports whether err belongs to the given category.
func IsCategory(err error, category string) bool {
	ce := From(err)
	return ce != nil && strings.EqualFold(ce.Category, category)
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// compactContext keeps string values and stringifies everything else, each
// trimmed to a preview length.
func compactContext(ctx map[string]any) map[string]any {
	out := make(map[string]any, len(ctx))
	for k, v := range ctx {
		s, ok := v.(string)
		if !ok {
			b, err := json.Marshal(v)
			if err != nil {
				out[k] = v
				continue
			}
			s = string(b)
		}
		out[k] = truncate(s, maxContextLen)
	}
	return out
}
