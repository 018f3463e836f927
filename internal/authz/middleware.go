package authz

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/servicehub/sparecrm/internal/platform/httpx"
	"github.com/servicehub/sparecrm/internal/shared"
)

// UserHeader carries the caller id set by the upstream auth gateway.
const UserHeader = "X-User-ID"

// Middleware resolves the caller into a principal stored on the context.
type Middleware struct {
	Directory Directory
	Logger    *slog.Logger
}

// RequirePrincipal rejects requests without a known caller.
func (m Middleware) RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(r.Header.Get(UserHeader), 10, 64)
		if err != nil || userID <= 0 {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		p, err := m.Directory.LookupPrincipal(r.Context(), userID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				httpx.RespondError(w, shared.ErrUnauthenticated)
				return
			}
			if m.Logger != nil {
				m.Logger.Error("authz lookup principal", slog.Int64("user_id", userID), slog.Any("error", err))
			}
			httpx.RespondError(w, err)
			return
		}
		ctx := shared.ContextWithPrincipal(r.Context(), &p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
