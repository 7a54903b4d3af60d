package server

import (
	"net/http"

	"github.com/leofalp/sitesummarizer/internal/utils"
	"github.com/leofalp/sitesummarizer/providers/observability"
)

// statusRecorder remembers the status code and keeps Flush reachable for the
// events endpoint.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// withObservability logs one record per request at debug level, and at warn
// level for 5xx answers.
func (s *Server) withObservability(next http.Handler) http.Handler {
	if s.observer == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := observability.ContextWithObserver(r.Context(), s.observer)
		r = r.WithContext(ctx)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		timer := utils.NewTimer()
		next.ServeHTTP(recorder, r)
		timer.Stop()

		attrs := []observability.Attribute{
			observability.String(observability.AttrHTTPMethod, r.Method),
			observability.String(observability.AttrHTTPRoute, r.Pattern),
			observability.Int(observability.AttrHTTPStatusCode, recorder.status),
			observability.Duration(observability.AttrHTTPDuration, timer.GetDuration()),
		}
		if recorder.status >= http.StatusInternalServerError {
			s.observer.Warn(ctx, "HTTP request failed", attrs...)
			return
		}
		s.observer.Debug(ctx, "HTTP request", attrs...)
	})
}
