package middleware

import (
	"context"
	"net/http"

	"github.com/soaringjerry/Lurelab/internal/config"
	"github.com/soaringjerry/Lurelab/internal/logger"
	"github.com/soaringjerry/Lurelab/internal/services"
)

type identityCtxKey int

const identityKey identityCtxKey = 1

// Resolver is the slice of the identity service this middleware needs.
type Resolver interface {
	Resolve(authCookie, guestCookie string) (services.Identity, error)
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// WithIdentity resolves the caller's identity from the auth and guest cookies
// and attaches it to the request context. A brand-new guest gets its session
// cookie set here, so the value is stable for the rest of the session; an
// existing guest cookie is never overwritten.
func WithIdentity(resolver Resolver, cfg config.Config, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			guestCookie := cookieValue(r, cfg.SessionCookieName)
			identity, err := resolver.Resolve(cookieValue(r, cfg.AuthCookieName), guestCookie)
			if err != nil {
				log.Error("resolve identity", "err", err)
				http.Error(w, "storage unavailable", http.StatusInternalServerError)
				return
			}
			if identity.Kind == services.IdentityGuest && guestCookie == "" {
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.SessionCookieName,
					Value:    identity.SessionID,
					MaxAge:   int(cfg.SessionCookieMaxAge.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
					Path:     "/",
				})
			}
			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (services.Identity, bool) {
	id, ok := ctx.Value(identityKey).(services.Identity)
	return id, ok
}
