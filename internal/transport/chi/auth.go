package chi

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vidsearch/internal/logger"
	"github.com/kailas-cloud/vidsearch/internal/metrics"
)

// openPaths are served without a key (health checks, Prometheus scrapes).
var openPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

const authChallenge = `Bearer realm="vidsearch"`

// BearerAuthMiddleware guards /api with static API keys.
// An empty key list disables authentication.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	digests := make([][sha256.Size]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			digests = append(digests, sha256.Sum256([]byte(k)))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(digests) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := openPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			token, reason := bearerToken(r.Header.Get("Authorization"))
			if reason == "" && !knownKey(digests, token) {
				reason = "invalid"
			}
			if reason != "" {
				reject(w, r, reason)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the credential; reason is non-empty when the header is unusable.
// The scheme name is case-insensitive.
func bearerToken(header string) (token, reason string) {
	if header == "" {
		return "", "missing"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "scheme"
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", "missing"
	}
	return token, ""
}

// knownKey compares digests in constant time and checks every key.
func knownKey(digests [][sha256.Size]byte, token string) bool {
	sum := sha256.Sum256([]byte(token))
	found := 0
	for i := range digests {
		found |= subtle.ConstantTimeCompare(digests[i][:], sum[:])
	}
	return found == 1
}

func reject(w http.ResponseWriter, r *http.Request, reason string) {
	metrics.AuthRejectedTotal.WithLabelValues(reason).Inc()
	logger.FromContext(r.Context()).Debug("Request rejected by auth",
		zap.String("path", r.URL.Path),
		zap.String("reason", reason),
	)

	msg := "invalid api key"
	switch reason {
	case "missing":
		msg = "missing authorization header"
	case "scheme":
		msg = "authorization header must use Bearer scheme"
	}
	w.Header().Set("WWW-Authenticate", authChallenge)
	writeError(w, http.StatusUnauthorized, CodeUnauthorized, msg)
}
