package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// BearerAuth - middleware проверки статического токена API
//
// Назначение:
// Закрывает /api/v1 и /ws от посторонних клиентов, когда задан API_TOKEN.
// Пустой токен отключает проверку (локальное развертывание).
//
// Токен принимается из заголовка Authorization: Bearer <token>.
// Браузерный WebSocket не умеет ставить заголовки, поэтому для него
// допускается query-параметр ?token=.
//
// Безопасность:
// - constant-time сравнение для предотвращения timing attacks
// - 401 с WWW-Authenticate при отсутствии или неверном токене
func BearerAuth(token string) func(http.Handler) http.Handler {
	expected := []byte(token)

	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := bearerToken(r)
			if got == "" || subtle.ConstantTimeCompare([]byte(got), expected) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="tradelink"`)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Unauthorized","code":"invalid_credentials"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		const prefix = "Bearer "
		if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
			return strings.TrimSpace(h[len(prefix):])
		}
		return ""
	}
	return r.URL.Query().Get("token")
}
