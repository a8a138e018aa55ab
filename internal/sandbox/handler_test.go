package sandbox

import (
	"afribook/pkg/client"
	"afribook/pkg/logger"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	activeAgentID   = "65f1c2ab9d0e4a0012a1b001"
	disabledAgentID = "65f1c2ab9d0e4a0012a1b002"
	ikoyiLoftID     = "65f1c2ab9d0e4a0012b2c001"
)

type sandboxFixture struct {
	router *httprouter.Router
	dir    *Directory
	tokens *TokenIssuer
}

func newSandbox(t *testing.T) *sandboxFixture {
	t.Helper()
	dir := newTestDirectory(t)
	tokens := NewTokenIssuer("secret", time.Hour)
	router := httprouter.New()
	NewHandler(dir, tokens, logger.Nop(), 1<<20).RegisterRoutes(router, "/api")
	return &sandboxFixture{router: router, dir: dir, tokens: tokens}
}

func (f *sandboxFixture) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return rec, body
}

func (f *sandboxFixture) token(t *testing.T, agentID string) string {
	t.Helper()
	token, err := f.tokens.Issue(agentID)
	require.NoError(t, err)
	return token
}

func signInRequest(identifier, password string) *http.Request {
	payload, _ := json.Marshal(map[string]string{"identifier": identifier, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api"+client.PathSignIn, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func bookingRequest(t *testing.T, agentID, token string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile("invoice", "receipt.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api"+client.ManualBookingPath(agentID), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func validBookingFields() map[string]string {
	return map[string]string{
		"checkInDate":                  "2025-03-10T00:00:00.000Z",
		"checkOutDate":                 "2025-03-12T00:00:00.000Z",
		"propertyId":                   ikoyiLoftID,
		"actualPrice":                  "50000",
		"sellingPrice":                 "65000",
		"clientDetails[apartmentName]": "Ikoyi Loft",
		"clientDetails[name]":          "Chidi",
	}
}

func TestSignIn(t *testing.T) {
	f := newSandbox(t)

	tests := []struct {
		name        string
		identifier  string
		password    string
		wantStatus  int
		wantMessage string
	}{
		{"valid credentials", "agent1@afribook.test", "password123", http.StatusOK, "Agent login successful"},
		{"wrong password", "agent1@afribook.test", "wrong", http.StatusUnauthorized, "Invalid credentials"},
		{"disabled agent", "suspended@afribook.test", "password123", http.StatusForbidden, "Agent account is disabled"},
		{"missing identifier", "", "password123", http.StatusBadRequest, "Identifier and password are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := f.do(t, signInRequest(tt.identifier, tt.password))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMessage, body["message"])
			if tt.wantStatus == http.StatusOK {
				token, _ := body["accessToken"].(string)
				agentID, err := f.tokens.Parse(token)
				require.NoError(t, err)
				assert.Equal(t, activeAgentID, agentID)
			}
		})
	}
}

func TestProfile_Authentication(t *testing.T) {
	f := newSandbox(t)

	tests := []struct {
		name       string
		auth       string
		wantStatus int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"unknown agent", "Bearer " + f.token(t, "ghost"), http.StatusUnauthorized},
		{"disabled agent", "Bearer " + f.token(t, disabledAgentID), http.StatusForbidden},
		{"active agent", "Bearer " + f.token(t, activeAgentID), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api"+client.PathProfile, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec, body := f.do(t, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				doc, ok := body["_doc"].(map[string]any)
				require.True(t, ok, "profile is wrapped in _doc")
				assert.Equal(t, activeAgentID, doc["_id"])
			}
		})
	}
}

func TestApartments(t *testing.T) {
	f := newSandbox(t)

	req := httptest.NewRequest(http.MethodGet, "/api"+client.PathAgentApartments, nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, activeAgentID))
	rec, body := f.do(t, req)

	require.Equal(t, http.StatusOK, rec.Code)
	apartments, _ := body["apartments"].([]any)
	assert.Len(t, apartments, 2)
}

func TestCreateManualBooking(t *testing.T) {
	tests := []struct {
		name        string
		pathAgent   string
		mutate      func(map[string]string)
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "created",
			pathAgent:   activeAgentID,
			wantStatus:  http.StatusCreated,
			wantMessage: "Booking created successfully",
		},
		{
			name:        "another agent",
			pathAgent:   disabledAgentID,
			wantStatus:  http.StatusForbidden,
			wantMessage: "Cannot create bookings for another agent",
		},
		{
			name:        "missing apartment name",
			pathAgent:   activeAgentID,
			mutate:      func(f map[string]string) { delete(f, "clientDetails[apartmentName]") },
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Missing required field: clientDetails[apartmentName]",
		},
		{
			name:        "dates out of order",
			pathAgent:   activeAgentID,
			mutate:      func(f map[string]string) { f["checkOutDate"] = "2025-03-09T00:00:00.000Z" },
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Check-out date must be after check-in date",
		},
		{
			name:        "calendar date instead of timestamp",
			pathAgent:   activeAgentID,
			mutate:      func(f map[string]string) { f["checkInDate"] = "2025-03-10" },
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Dates must be ISO-8601 timestamps",
		},
		{
			name:        "zero price",
			pathAgent:   activeAgentID,
			mutate:      func(f map[string]string) { f["sellingPrice"] = "0" },
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid sellingPrice",
		},
		{
			name:        "apartment of another agent",
			pathAgent:   activeAgentID,
			mutate:      func(f map[string]string) { f["propertyId"] = "somewhere-else" },
			wantStatus:  http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSandbox(t)
			fields := validBookingFields()
			if tt.mutate != nil {
				tt.mutate(fields)
			}

			rec, body := f.do(t, bookingRequest(t, tt.pathAgent, f.token(t, activeAgentID), fields))
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, body["message"])
			}

			bookings := f.dir.Bookings(activeAgentID)
			if tt.wantStatus != http.StatusCreated {
				assert.Empty(t, bookings)
				return
			}
			require.Len(t, bookings, 1)
			assert.Equal(t, body["bookingId"], bookings[0].ID)
			assert.Equal(t, []string{"receipt.pdf"}, bookings[0].Invoices)
			assert.Equal(t, "Chidi", bookings[0].Client["name"])
			assert.True(t, strings.HasPrefix(bookings[0].CheckIn.Format(time.RFC3339), "2025-03-10"))
		})
	}
}

func TestHealthHandler(t *testing.T) {
	router := httprouter.New()
	NewHealthHandler(NewDirectory(bcrypt.MinCost), logger.Nop()).RegisterRoutes(router, "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "an empty directory is not ready")
}
