package middleware

import (
	"afribook/pkg/logger"
	"context"
	"net/http"
	"sync"
	"time"
)

type writeState int

const (
	statePending writeState = iota
	stateHandler
	stateExpired
)

// deadlineWriter lets exactly one party answer: the handler, or the
// timeout once the deadline has passed.
type deadlineWriter struct {
	http.ResponseWriter
	mu    sync.Mutex
	state writeState
}

// claim hands the response to whoever asks first.
func (dw *deadlineWriter) claim(by writeState) bool {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if dw.state == statePending {
		dw.state = by
	}
	return dw.state == by
}

func (dw *deadlineWriter) WriteHeader(code int) {
	if dw.claim(stateHandler) {
		dw.ResponseWriter.WriteHeader(code)
	}
}

func (dw *deadlineWriter) Write(b []byte) (int, error) {
	if !dw.claim(stateHandler) {
		return 0, http.ErrHandlerTimeout
	}
	return dw.ResponseWriter.Write(b)
}

// RequestTimeout cancels the request context after timeout and answers 503
// if the handler has not started its response by then. A panic in the
// handler is re-raised on the serving goroutine so Recovery still sees it.
func RequestTimeout(timeout time.Duration, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			r = r.WithContext(ctx)

			dw := &deadlineWriter{ResponseWriter: w}
			done := make(chan struct{})
			panicked := make(chan any, 1)

			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicked <- p
					}
					close(done)
				}()
				next.ServeHTTP(dw, r)
			}()

			select {
			case <-done:
				select {
				case p := <-panicked:
					panic(p)
				default:
				}
			case <-ctx.Done():
				if !dw.claim(stateExpired) {
					// The handler is mid-response; let it finish.
					<-done
					return
				}
				log.Warn("Request timed out",
					"request_id", RequestID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"timeout", timeout,
				)
				writeJSONError(w, http.StatusServiceUnavailable, "Request timeout")
			}
		})
	}
}
