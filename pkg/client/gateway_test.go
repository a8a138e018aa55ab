package client

import (
	"afribook/pkg/errors"
	"afribook/pkg/metrics"
	"afribook/pkg/storage"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Gateway, *storage.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := storage.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })

	return NewGateway(srv.URL+"/api", store, opts...), store
}

func TestResolveBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		override string
		hostname string
		want     string
	}{
		{"override wins", "http://localhost:8080/api/", "staging-api.africartz.com", "http://localhost:8080/api"},
		{"staging host", "", "staging-api.africartz.com", StagingBaseURL},
		{"production host", "", "api.africartz.com", ProductionBaseURL},
		{"production host mixed case", "", "API.Africartz.com", ProductionBaseURL},
		{"unknown host", "", "laptop.local", ProductionBaseURL},
		{"no host", "", "", ProductionBaseURL},
		{"blank override ignored", "   ", "staging-api.africartz.com", StagingBaseURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveBaseURL(tt.override, tt.hostname); got != tt.want {
				t.Errorf("ResolveBaseURL(%q, %q) = %q, want %q", tt.override, tt.hostname, got, tt.want)
			}
		})
	}
}

func TestGateway_BearerOnlyWhenTokenStored(t *testing.T) {
	var gotAuth []string
	gw, store := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	})
	ctx := context.Background()

	_, err := gw.GET(ctx, PathAgentApartments)
	require.NoError(t, err)

	require.NoError(t, storage.SaveSession(ctx, store, "T1", `{"_id":"A1"}`, time.Hour))
	_, err = gw.GET(ctx, PathAgentApartments)
	require.NoError(t, err)

	require.NoError(t, storage.ClearSession(ctx, store))
	_, err = gw.GET(ctx, PathAgentApartments)
	require.NoError(t, err)

	assert.Equal(t, []string{"", "Bearer T1", ""}, gotAuth)
}

func TestGateway_DefaultHeaders(t *testing.T) {
	var contentType, requestID, path string
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		requestID = r.Header.Get("X-Request-ID")
		path = r.URL.Path
	})

	_, err := gw.POST(context.Background(), PathSignIn, map[string]string{"identifier": "agent1"})
	require.NoError(t, err)

	assert.Equal(t, "application/json", contentType)
	assert.NotEmpty(t, requestID)
	assert.Equal(t, "/api/auth/signin", path)
}

func TestGateway_UnauthorizedClearsSession(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var calls atomic.Int32
			gw, store := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"message":"Token expired"}`))
			})
			ctx := context.Background()
			require.NoError(t, storage.SaveSession(ctx, store, "T1", `{"_id":"A1"}`, time.Hour))

			var fired []int
			gw.OnUnauthorized(func(ctx context.Context, got int) {
				_, ok, _ := store.Get(ctx, storage.KeyAuthToken)
				assert.False(t, ok, "session must be gone before listeners run")
				fired = append(fired, got)
			})

			_, err := gw.GET(ctx, "/bookings/manual/A1")
			require.Error(t, err)

			appErr := errors.AsAppError(err)
			assert.Equal(t, status, appErr.HTTPStatus)
			assert.Equal(t, "Token expired", appErr.Message)
			assert.True(t, errors.IsAuthFailure(err))

			for _, key := range storage.SessionKeys {
				_, ok, err := store.Get(ctx, key)
				require.NoError(t, err)
				assert.False(t, ok, "%s should be cleared", key)
			}
			assert.Equal(t, []int{status}, fired)
			assert.Equal(t, int32(1), calls.Load(), "gateway never retries")
		})
	}
}

func TestGateway_ServerErrorKeepsSession(t *testing.T) {
	gw, store := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"database unavailable"}`))
	})
	ctx := context.Background()
	require.NoError(t, storage.SaveSession(ctx, store, "T1", `{"_id":"A1"}`, time.Hour))

	resp, err := gw.GET(ctx, PathAgentApartments)
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "database unavailable", errors.UserMessage(err, "fallback"))
	assert.False(t, errors.IsAuthFailure(err))

	_, ok, err := store.Get(ctx, storage.KeyAuthToken)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGateway_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	store := storage.NewMemoryStore(0)
	defer store.Close()
	gw := NewGateway(srv.URL, store)

	_, err := gw.GET(context.Background(), PathProfile)
	require.Error(t, err)
	appErr := errors.AsAppError(err)
	assert.Equal(t, errors.CodeTransport, appErr.Code)
	assert.NotEmpty(t, errors.UserMessage(err, ""))
}

func TestGateway_Timeout(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}, WithTimeout(50*time.Millisecond))

	_, err := gw.GET(context.Background(), PathProfile)
	require.Error(t, err)
	assert.Equal(t, errors.CodeTransport, errors.AsAppError(err).Code)
}

func TestGateway_Metrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/auth/profile") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}, WithMetrics(m))
	ctx := context.Background()

	_, _ = gw.POSTMultipart(ctx, ManualBookingPath("A1"), NewMultipartForm().Field("propertyId", "P1"))
	_, _ = gw.GET(ctx, PathProfile)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GatewayRequests.WithLabelValues("POST", "/api/bookings/manual/:id", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GatewayRequests.WithLabelValues("GET", "/api/auth/profile", "403")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionTeardowns.WithLabelValues("403")))
}

func TestChain_Order(t *testing.T) {
	var order []string
	stage := func(name string) Middleware {
		return func(next Doer) Doer {
			return DoerFunc(func(req *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.Do(req)
			})
		}
	}
	base := DoerFunc(func(req *http.Request) (*http.Response, error) {
		order = append(order, "transport")
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(""))}, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := Chain(base, stage("outer"), stage("inner")).Do(req)
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner", "transport"}, order)
}

func TestAgentAPI(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "agent1", body["identifier"])
		assert.Equal(t, "pw", body["password"])
		_, _ = w.Write([]byte(`{"message":"Agent login successful","agent":{"_id":"A1"},"accessToken":"T1"}`))
	})
	mux.HandleFunc("/api/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"_doc":{"_id":"A1","firstName":"Ada"}}`))
	})
	mux.HandleFunc("/api/apartment/getAgentApartments", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"apartments":[{"_id":"P1","apartmentName":"Ikoyi Loft","address":"1 Bourdillon","city":"Lagos","beds":2}]}`))
	})
	mux.HandleFunc("/api/bookings/manual/A1", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "P1", r.FormValue("propertyId"))
		assert.Equal(t, "Ikoyi Loft", r.FormValue("clientDetails[apartmentName]"))
		require.Len(t, r.MultipartForm.File["invoice"], 1)
		assert.Equal(t, "invoice.pdf", r.MultipartForm.File["invoice"][0].Filename)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"bookingId":"B1","message":"created"}`))
	})
	mux.HandleFunc("/api/bookings/manual/A2", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	gw, _ := newTestGateway(t, mux.ServeHTTP)
	api := NewAgentAPI(gw)
	ctx := context.Background()

	signIn, err := api.SignIn(ctx, "agent1", "pw")
	require.NoError(t, err)
	assert.True(t, signIn.Succeeded())
	assert.Equal(t, "A1", signIn.Agent["_id"])

	profile, err := api.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile["firstName"])

	apartments, err := api.Apartments(ctx)
	require.NoError(t, err)
	require.Len(t, apartments, 1)
	assert.Equal(t, 2, apartments[0].Beds)

	form := NewMultipartForm().
		Field("propertyId", "P1").
		Field("clientDetails[apartmentName]", "Ikoyi Loft").
		File("invoice", "invoice.pdf", strings.NewReader("%PDF"))
	result, err := api.CreateManualBooking(ctx, "A1", form)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, result.Status)
	assert.Equal(t, "B1", result.BookingID)

	_, err = api.CreateManualBooking(ctx, "A2", NewMultipartForm())
	assert.Error(t, err, "202 is not a booking success")
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/api/bookings/manual/:id", routeLabel("/api/bookings/manual/65f1c2ab9d"))
	assert.Equal(t, "/api/apartment/getAgentApartments", routeLabel("/api/apartment/getAgentApartments"))
}
