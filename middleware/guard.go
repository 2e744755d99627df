package middleware

import (
	"context"
	"net/http"
	"strings"

	goAccount "github.com/MrEthical07/goAccount"
)

type authResultContextKey struct{}

// AuthResultFromContext returns the validation result stored by [Guard].
func AuthResultFromContext(ctx context.Context) (*goAccount.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*goAccount.AuthResult)
	return res, ok
}

// Guard validates the access token on every request before letting it
// through. The token is read from the Authorization header, falling back to
// the accessToken cookie for browser clients.
func Guard(engine *goAccount.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := accessToken(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			res, err := engine.Validate(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accessToken(r *http.Request) (string, bool) {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token, true
	}
	if cookie, err := r.Cookie("accessToken"); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
