package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/wrangle/internal/core"
	"github.com/JonMunkholm/wrangle/internal/logging"
)

type ctxKey int

const sessionKey ctxKey = iota

// sessionCtx resolves the {id} URL parameter to an open session. Unknown
// ids answer 404 before any handler runs.
func (s *Server) sessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessions.Get(chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		ctx = logging.WithSession(ctx, sess.ID())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFrom returns the session stored by sessionCtx.
func sessionFrom(ctx context.Context) *core.Session {
	return ctx.Value(sessionKey).(*core.Session)
}
