package controller

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"camgrocer/pkg/metrics"
	"camgrocer/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type ctxKey int

const actorKey ctxKey = iota

func actorFrom(ctx context.Context) *usecase.Actor {
	a, _ := ctx.Value(actorKey).(*usecase.Actor)
	return a
}

// mustActor returns the caller on routes behind requireRole.
func mustActor(r *http.Request) usecase.Actor {
	return *actorFrom(r.Context())
}

func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// observe logs every request and counts it by route pattern.
func observe(logger *zap.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			m.ObserveRequest(r.Method, route, status)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// authenticate attaches the caller to the context when a bearer token is
// present. A bad token is rejected even on public routes.
func authenticate(users *usecase.UserUsecase, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				writeMessage(w, http.StatusUnauthorized, "authorization header must be a bearer token")
				return
			}
			actor, err := users.Authenticate(r.Context(), strings.TrimSpace(token))
			if err != nil {
				writeError(w, r, logger, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
		})
	}
}

// requireRole rejects anonymous callers, and callers whose role is not
// listed. No roles means any signed-in user.
func requireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := actorFrom(r.Context())
			if actor == nil {
				writeMessage(w, http.StatusUnauthorized, "sign in required")
				return
			}
			if len(roles) > 0 && !slices.Contains(roles, actor.Role) {
				writeMessage(w, http.StatusForbidden, "not allowed for role "+actor.Role)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
