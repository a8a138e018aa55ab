package client

import (
	"afribook/pkg/logger"
	"afribook/pkg/metrics"
	"afribook/pkg/storage"
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// RequestID tags requests that do not carry an X-Request-ID yet.
func RequestID() Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get(headerRequestID) == "" {
				req = req.Clone(req.Context())
				req.Header.Set(headerRequestID, uuid.NewString())
			}
			return next.Do(req)
		})
	}
}

func Logging(log *logger.Logger) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			requestID := req.Header.Get(headerRequestID)

			log.Debug("API request started",
				"request_id", requestID,
				"method", req.Method,
				"path", req.URL.Path,
			)

			resp, err := next.Do(req)
			duration := time.Since(start)

			if err != nil {
				log.Warn("API request failed",
					"request_id", requestID,
					"method", req.Method,
					"path", req.URL.Path,
					"error", err,
					"duration_ms", duration.Milliseconds(),
				)
				return nil, err
			}

			log.Info("API request completed",
				"request_id", requestID,
				"method", req.Method,
				"path", req.URL.Path,
				"status", resp.StatusCode,
				"duration_ms", duration.Milliseconds(),
			)
			return resp, nil
		})
	}
}

func Metrics(m *metrics.Metrics) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.Do(req)

			status := "error"
			if err == nil {
				status = strconv.Itoa(resp.StatusCode)
			}
			route := routeLabel(req.URL.Path)

			m.GatewayRequests.WithLabelValues(req.Method, route, status).Inc()
			m.GatewayDuration.WithLabelValues(req.Method, route, status).Observe(time.Since(start).Seconds())
			return resp, err
		})
	}
}

// BearerAuth attaches the stored token, if any. A missing token or a
// storage read failure lets the request through unauthenticated.
func BearerAuth(store storage.Store, log *logger.Logger) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			token, ok, err := store.Get(req.Context(), storage.KeyAuthToken)
			if err != nil {
				log.Warn("Failed to read auth token, sending request without it",
					"path", req.URL.Path,
					"error", err,
				)
			}
			if err == nil && ok && token != "" {
				req = req.Clone(req.Context())
				req.Header.Set(headerAuthorization, "Bearer "+token)
			}
			return next.Do(req)
		})
	}
}

// UnauthorizedTeardown clears the session pair on any 401 or 403 and then
// calls onTeardown. The response itself is passed on untouched.
func UnauthorizedTeardown(store storage.Store, log *logger.Logger, onTeardown TeardownFunc) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := next.Do(req)
			if err != nil {
				return nil, err
			}
			if resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusForbidden {
				return resp, nil
			}

			// the caller may already be cancelled; the teardown must still land
			ctx := context.WithoutCancel(req.Context())
			if clearErr := storage.ClearSession(ctx, store); clearErr != nil {
				log.Error("Failed to clear session after auth failure",
					"status", resp.StatusCode,
					"path", req.URL.Path,
					"error", clearErr,
				)
			}

			log.Warn("Session rejected by API, signing out",
				"status", resp.StatusCode,
				"path", req.URL.Path,
			)

			if onTeardown != nil {
				onTeardown(ctx, resp.StatusCode)
			}
			return resp, nil
		})
	}
}

// routeLabel collapses path segments that carry ids so metric cardinality
// stays bounded.
func routeLabel(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if strings.IndexFunc(seg, unicode.IsDigit) >= 0 {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}
