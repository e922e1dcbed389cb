package logging

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

type ctxKey struct{}

var metaKey = ctxKey{}

// Meta is the per-request metadata attached by the middlewares. It rides
// along into alert email bodies but never contributes to the dedup
// signature.
type Meta struct {
	RequestID string
	IP        string
	Method    string
	Path      string
	UserAgent string
	Status    int
}

func WithMeta(ctx context.Context, meta Meta) context.Context {
	return context.WithValue(ctx, metaKey, meta)
}

func FromContext(ctx context.Context) (Meta, bool) {
	meta, ok := ctx.Value(metaKey).(Meta)
	return meta, ok
}

// attrs flattens the metadata for the structured record body.
func (m Meta) attrs() map[string]string {
	attrs := map[string]string{
		"request_id": m.RequestID,
		"ip":         m.IP,
		"method":     m.Method,
		"path":       m.Path,
		"user_agent": m.UserAgent,
	}
	if m.Status != 0 {
		attrs["status"] = strconv.Itoa(m.Status)
	}
	return attrs
}

/**
 * NewRequestContext creates a context with request metadata from an
 * http.Request. This is the framework-agnostic alternative to the Gin
 * middleware.
 *
 * @param r HTTP request to extract metadata from
 * @return context.Context Context with embedded request metadata
 */
func NewRequestContext(r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = uuid.NewString()
	}

	meta := Meta{
		RequestID: reqID,
		IP:        clientIP(r),
		Method:    r.Method,
		Path:      r.URL.Path,
		UserAgent: r.UserAgent(),
	}

	return WithMeta(r.Context(), meta)
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
