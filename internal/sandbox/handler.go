package sandbox

import (
	"afribook/pkg/client"
	apperrors "afribook/pkg/errors"
	httputil "afribook/pkg/http"
	"afribook/pkg/logger"
	"afribook/pkg/model"
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
)

type agentKey struct{}

var requiredBookingFields = []string{
	"checkInDate",
	"checkOutDate",
	"propertyId",
	"actualPrice",
	"sellingPrice",
	"clientDetails[apartmentName]",
}

var optionalClientFields = []string{"name", "phoneNumber", "address"}

type Handler struct {
	dir       *Directory
	tokens    *TokenIssuer
	log       *logger.Logger
	maxMemory int64
}

func NewHandler(dir *Directory, tokens *TokenIssuer, log *logger.Logger, maxMemory int64) *Handler {
	return &Handler{
		dir:       dir,
		tokens:    tokens,
		log:       log,
		maxMemory: maxMemory,
	}
}

func (h *Handler) RegisterRoutes(router *httprouter.Router, prefix string) {
	router.POST(prefix+client.PathSignIn, h.SignIn)
	router.GET(prefix+client.PathProfile, h.authenticated(h.Profile))
	router.GET(prefix+client.PathAgentApartments, h.authenticated(h.Apartments))
	router.POST(prefix+client.PathManualBookings+"/:agentId", h.authenticated(h.CreateManualBooking))
}

// authenticated answers 401 for a missing or invalid token and 403 for an
// agent that may no longer use the API.
func (h *Handler) authenticated(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		token, ok := httputil.BearerToken(r)
		if !ok {
			h.writeError(w, "authenticate", apperrors.Unauthorized("Authentication required"))
			return
		}

		agentID, err := h.tokens.Parse(token)
		if err != nil {
			h.log.Debug("Rejected access token", "path", r.URL.Path, "error", err)
			h.writeError(w, "authenticate", apperrors.Unauthorized("Invalid or expired token"))
			return
		}

		agent, found := h.dir.Agent(agentID)
		if !found {
			h.writeError(w, "authenticate", apperrors.Unauthorized("Invalid or expired token"))
			return
		}
		if agent.Disabled {
			h.writeError(w, "authenticate", apperrors.Forbidden("Agent account is disabled"))
			return
		}

		ctx := context.WithValue(r.Context(), agentKey{}, agent)
		next(w, r.WithContext(ctx), ps)
	}
}

func agentFrom(ctx context.Context) *Agent {
	agent, _ := ctx.Value(agentKey{}).(*Agent)
	return agent
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.SignInRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "SignIn", err)
		return
	}
	if strings.TrimSpace(req.Identifier) == "" || req.Password == "" {
		h.writeError(w, "SignIn", apperrors.InvalidInput("Identifier and password are required"))
		return
	}

	agent, err := h.dir.Authenticate(req.Identifier, req.Password)
	switch {
	case errors.Is(err, ErrAgentDisabled):
		h.writeError(w, "SignIn", apperrors.Forbidden("Agent account is disabled"))
		return
	case err != nil:
		h.writeError(w, "SignIn", apperrors.Unauthorized("Invalid credentials"))
		return
	}

	token, err := h.tokens.Issue(agent.ID)
	if err != nil {
		h.writeError(w, "SignIn", apperrors.Internal("Failed to issue token", err))
		return
	}

	h.log.Info("Agent signed in", "agent_id", agent.ID)
	h.writeJSON(w, "SignIn", http.StatusOK, map[string]any{
		"message":     model.LoginSuccessMessage,
		"agent":       agent.Profile(),
		"accessToken": token,
	})
}

// Profile wraps the agent in a `_doc` envelope the way the production API
// serializes its documents.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	agent := agentFrom(r.Context())
	h.writeJSON(w, "Profile", http.StatusOK, map[string]any{
		"_doc":   agent.Profile(),
		"$isNew": false,
	})
}

func (h *Handler) Apartments(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	agent := agentFrom(r.Context())
	h.writeJSON(w, "Apartments", http.StatusOK, model.ApartmentsResponse{
		Apartments: h.dir.Apartments(agent.ID),
	})
}

func (h *Handler) CreateManualBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	agent := agentFrom(r.Context())
	if ps.ByName("agentId") != agent.ID {
		h.writeError(w, "CreateManualBooking", apperrors.Forbidden("Cannot create bookings for another agent"))
		return
	}

	if err := r.ParseMultipartForm(h.maxMemory); err != nil {
		h.writeError(w, "CreateManualBooking", apperrors.InvalidInput("Request must be multipart/form-data"))
		return
	}

	for _, field := range requiredBookingFields {
		if strings.TrimSpace(r.FormValue(field)) == "" {
			h.writeError(w, "CreateManualBooking", apperrors.InvalidInput("Missing required field: "+field))
			return
		}
	}

	checkIn, errIn := time.Parse(time.RFC3339, r.FormValue("checkInDate"))
	checkOut, errOut := time.Parse(time.RFC3339, r.FormValue("checkOutDate"))
	if errIn != nil || errOut != nil {
		h.writeError(w, "CreateManualBooking", apperrors.InvalidInput("Dates must be ISO-8601 timestamps"))
		return
	}
	if !checkOut.After(checkIn) {
		h.writeError(w, "CreateManualBooking", apperrors.InvalidInput("Check-out date must be after check-in date"))
		return
	}

	for _, field := range []string{"actualPrice", "sellingPrice"} {
		amount, err := strconv.ParseFloat(r.FormValue(field), 64)
		if err != nil || amount <= 0 {
			h.writeError(w, "CreateManualBooking", apperrors.InvalidInput("Invalid "+field))
			return
		}
	}

	propertyID := r.FormValue("propertyId")
	if _, ok := model.FindApartment(h.dir.Apartments(agent.ID), propertyID); !ok {
		h.writeError(w, "CreateManualBooking", apperrors.NotFound("Apartment"))
		return
	}

	clientDetails := map[string]string{"apartmentName": r.FormValue("clientDetails[apartmentName]")}
	for _, field := range optionalClientFields {
		if v := strings.TrimSpace(r.FormValue("clientDetails[" + field + "]")); v != "" {
			clientDetails[field] = v
		}
	}

	var invoices []string
	for _, fh := range r.MultipartForm.File["invoice"] {
		invoices = append(invoices, fh.Filename)
	}

	booking := h.dir.RecordBooking(Booking{
		AgentID:      agent.ID,
		PropertyID:   propertyID,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		ActualPrice:  r.FormValue("actualPrice"),
		SellingPrice: r.FormValue("sellingPrice"),
		Client:       clientDetails,
		Invoices:     invoices,
	})

	h.log.Info("Manual booking created",
		"agent_id", agent.ID,
		"booking_id", booking.ID,
		"property_id", propertyID,
		"invoices", len(invoices),
	)
	h.writeJSON(w, "CreateManualBooking", http.StatusCreated, map[string]any{
		"message":   "Booking created successfully",
		"bookingId": booking.ID,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, handler string, status int, body any) {
	if err := httputil.WriteJSON(w, status, body); err != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
