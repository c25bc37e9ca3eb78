package identity

import (
	"net/http"
	"strings"
	"time"

	"github.com/mpraski/secret-vault/cache"
)

// TokenParser is satisfied by token.Parser implementations. Declared here
// to keep the dependency pointing from token to identity.
type TokenParser interface {
	Parse(string) (Identity, error)
}

const (
	authorizationHeader = "Authorization"
	tokenLength         = 2
	cacheExpiry         = time.Minute
)

var sensitiveHeaders = []string{
	authorizationHeader,
}

// Middleware derives the caller identity from the bearer token and installs
// it into the request context. It never rejects a request on its own:
// requests without a verifiable token proceed as anonymous, and the vault's
// authorization guard is the single place that turns them away.
func Middleware(parser TokenParser, tokens cache.Cache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := Anonymous

			if t, ok := extractToken(r); ok {
				caller = resolve(parser, tokens, t)
			}

			ClearHeaders(r)

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), caller)))
		})
	}
}

func resolve(parser TokenParser, tokens cache.Cache, t string) Identity {
	if v, found := tokens.Get(t); found {
		return Identity(v)
	}

	i, err := parser.Parse(t)
	if err != nil {
		return Anonymous
	}

	tokens.Set(t, []byte(i), cacheExpiry)

	return i
}

func ClearHeaders(r *http.Request) {
	for _, h := range sensitiveHeaders {
		r.Header.Del(h)
	}
}

func extractToken(r *http.Request) (value string, found bool) {
	if arr := strings.Split(r.Header.Get(authorizationHeader), " "); len(arr) == tokenLength {
		found = true
		value = arr[1]
	}

	return
}
