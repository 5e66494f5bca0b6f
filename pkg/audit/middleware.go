package audit

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/tendant/dental-idm/pkg/client"
)

const defaultRecordTimeout = 5 * time.Second

// Middleware handles HTTP request auditing
type Middleware struct {
	sink    Sink
	timeout time.Duration
	now     func() time.Time
}

type Option func(*Middleware)

// WithRecordTimeout bounds each write to the sink
func WithRecordTimeout(d time.Duration) Option {
	return func(m *Middleware) {
		if d > 0 {
			m.timeout = d
		}
	}
}

func NewMiddleware(sink Sink, opts ...Option) *Middleware {
	m := &Middleware{
		sink:    sink,
		timeout: defaultRecordTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AuditAuthMiddleware records every request that reaches it. It belongs
// after client.Authenticator.RequireAuth so the caller is known. Events are
// written in the background and never affect the response.
func (m *Middleware) AuditAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := m.now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		event := Event{
			ID:         uuid.NewString(),
			Method:     r.Method,
			URI:        r.RequestURI,
			Status:     ww.Status(),
			RemoteAddr: r.RemoteAddr,
			RequestID:  middleware.GetReqID(r.Context()),
			Timestamp:  start.UTC(),
			Duration:   m.now().Sub(start),
		}
		if event.Status == 0 {
			event.Status = http.StatusOK
		}
		event = event.WithMetadata("bytes", ww.BytesWritten())
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				event = event.WithMetadata("route", pattern)
			}
		}
		if user, ok := client.GetAuthUser(r); ok {
			event.UserID = user.UserID
			event.Email = user.Email
		} else {
			event.Message = "No jwt token"
		}

		go m.auditRequest(context.WithoutCancel(r.Context()), event)
	})
}

func (m *Middleware) auditRequest(ctx context.Context, event Event) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := m.sink.Record(ctx, event); err != nil {
		slog.Error("Failed to record audit event", "id", event.ID, "uri", event.URI, "error", err)
	}
}
