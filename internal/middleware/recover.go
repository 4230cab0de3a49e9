package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	pkghttp "github.com/BradenHooton/supportportal/pkg/http"
	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5/middleware"
)

// Recoverer turns a handler panic into a 500 and reports it. Sentry capture is
// a no-op when no client was initialised.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				stack := string(debug.Stack())
				sentry.WithScope(func(scope *sentry.Scope) {
					scope.SetRequest(r)
					scope.SetTag("request_id", middleware.GetReqID(r.Context()))
					scope.SetExtra("panic", fmt.Sprint(rec))
					scope.SetExtra("stack", stack)
					sentry.CaptureMessage("panic in request")
				})

				logger.Error("panic recovered",
					slog.String("panic", fmt.Sprint(rec)),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("stack", stack),
				)

				pkghttp.WriteInternalError(w, "internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
