package middleware

import (
	"fmt"
	"net/http"

	"pathwiki/internal/logger"
	"pathwiki/internal/view"
)

// AppError represents a custom error type for the application.
type AppError struct {
	Error   error
	Message string
	Code    int
}

// AppHandler is a custom handler function type that returns an AppError.
type AppHandler func(http.ResponseWriter, *http.Request) *AppError

// Error is a middleware that converts handler errors into user-friendly
// error pages. In dev mode the underlying error detail is included in
// the page; in production only the message is shown.
func Error(log logger.Logger, v *view.View, dev bool) func(AppHandler) http.Handler {
	return func(next AppHandler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err, ok := rec.(error)
					if !ok {
						err = fmt.Errorf("%v", rec)
					}
					log.Error(err, "Panic recovered")
					data := map[string]interface{}{
						"StatusCode": http.StatusInternalServerError,
						"StatusText": "Internal Server Error",
					}
					if dev {
						data["Detail"] = err.Error()
					}
					w.WriteHeader(http.StatusInternalServerError)
					v.Render(w, "error.html", data)
				}
			}()

			err := next(w, r)
			if err != nil {
				if err.Error != nil {
					log.Error(err.Error, err.Message)
				}
				data := map[string]interface{}{
					"StatusCode": err.Code,
					"StatusText": err.Message,
				}
				if dev && err.Error != nil {
					data["Detail"] = err.Error.Error()
				}
				w.WriteHeader(err.Code)
				v.Render(w, "error.html", data)
			}
		})
	}
}
