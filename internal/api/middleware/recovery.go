package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"tradelink/pkg/utils"
)

// Recovery - middleware для восстановления после паники в handlers
//
// Перехватывает panic, логирует сообщение и stack trace и возвращает
// клиенту 500 в стандартном формате ошибки. Детали паники клиенту
// не отдаются.
func Recovery(log *utils.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = utils.L()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic in http handler",
						zap.String("panic", fmt.Sprint(rec)),
						zap.String("path", r.URL.Path),
						utils.RequestID(RequestIDFrom(r.Context())),
						zap.ByteString("stack", debug.Stack()),
					)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error":"Internal server error","code":"internal_error"}`))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
