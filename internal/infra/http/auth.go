package http

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// BearerAuthMiddleware проверяет токен оператора в заголовке Authorization.
// Пустой токен отключает проверку (локальная разработка).
func BearerAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(raw), []byte(token)) != 1 {
				http.Error(w, "недействительный токен", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ErrorResponse описывает ошибку.
type ErrorResponse struct {
	Error string `json:"error"`
}
