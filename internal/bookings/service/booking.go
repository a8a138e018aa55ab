package service

import (
	bookingserrors "afribook/internal/bookings/errors"
	"afribook/internal/bookings/pricing"
	"afribook/internal/bookings/validator"
	"afribook/pkg/client"
	"afribook/pkg/config"
	apperrors "afribook/pkg/errors"
	"afribook/pkg/events"
	"afribook/pkg/metrics"
	"afribook/pkg/model"
	"afribook/pkg/sanitizer"
	"context"
	"errors"
)

// AgentGateway is the part of the bookings API the service needs.
type AgentGateway interface {
	Apartments(ctx context.Context) ([]model.Apartment, error)
	CreateManualBooking(ctx context.Context, agentID string, form *client.MultipartForm) (*model.ManualBookingResult, error)
}

// SessionReader exposes the signed-in agent.
type SessionReader interface {
	User() *model.User
}

type BookingService interface {
	Submit(ctx context.Context, draft *model.BookingDraft) (*model.ManualBookingResult, error)
	Apartments(ctx context.Context) ([]model.Apartment, error)
	Quote(draft *model.BookingDraft) pricing.Quote
}

type bookingService struct {
	api       AgentGateway
	session   SessionReader
	validator *validator.BookingValidator
	cfg       *config.Config
	metrics   *metrics.Metrics
	publisher events.Publisher
}

func NewBookingService(
	api AgentGateway,
	session SessionReader,
	validator *validator.BookingValidator,
	cfg *config.Config,
	m *metrics.Metrics,
	publisher events.Publisher,
) BookingService {
	if m == nil {
		m = metrics.Nop()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &bookingService{
		api:       api,
		session:   session,
		validator: validator,
		cfg:       cfg,
		metrics:   m,
		publisher: publisher,
	}
}

// Submit validates the draft locally and, only if it is valid, sends it as
// a manual booking for the signed-in agent.
func (s *bookingService) Submit(ctx context.Context, draft *model.BookingDraft) (*model.ManualBookingResult, error) {
	s.sanitize(draft)
	if err := s.validate(draft); err != nil {
		s.metrics.BookingSubmissions.WithLabelValues("rejected_locally").Inc()
		return nil, err
	}

	user := s.session.User()
	if user.AgentID() == "" {
		s.metrics.BookingSubmissions.WithLabelValues("rejected_locally").Inc()
		return nil, apperrors.Unauthorized(bookingserrors.ErrNotAuthenticated.Error())
	}

	apartments, err := s.Apartments(ctx)
	if err != nil {
		s.metrics.BookingSubmissions.WithLabelValues("failed").Inc()
		return nil, err
	}
	apartment, ok := model.FindApartment(apartments, draft.ApartmentID)
	if !ok {
		s.metrics.BookingSubmissions.WithLabelValues("rejected_locally").Inc()
		return nil, apperrors.InvalidInput(bookingserrors.ErrInvalidApartment.Error())
	}

	form := s.buildForm(draft, apartment)
	result, err := s.api.CreateManualBooking(ctx, user.AgentID(), form)
	if err != nil {
		s.metrics.BookingSubmissions.WithLabelValues("failed").Inc()
		s.cfg.Log.Error("Failed to create booking",
			"agent_id", user.AgentID(),
			"property_id", draft.ApartmentID,
			"error", err,
		)
		return nil, userFacing(err, bookingserrors.MsgSubmitFailed)
	}

	if result.Message == "" {
		result.Message = bookingserrors.MsgCreated
	}

	s.metrics.BookingSubmissions.WithLabelValues("created").Inc()
	s.cfg.Log.Info("Booking created successfully",
		"agent_id", user.AgentID(),
		"property_id", draft.ApartmentID,
		"booking_id", result.BookingID,
		"check_in", draft.CheckInDate,
		"check_out", draft.CheckOutDate,
	)

	quote := pricing.Compute(draft.ActualPrice, draft.SellingPrice)
	event := events.New(events.TypeBookingSubmitted, user.AgentID(), map[string]any{
		"booking_id":    result.BookingID,
		"property_id":   draft.ApartmentID,
		"actual_price":  quote.Actual,
		"selling_price": quote.Selling,
		"profit":        quote.Profit,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event", "booking_id", result.BookingID, "error", err)
	}

	return result, nil
}

func (s *bookingService) Apartments(ctx context.Context) ([]model.Apartment, error) {
	apartments, err := s.api.Apartments(ctx)
	if err != nil {
		s.cfg.Log.Warn("Failed to load apartments", "error", err)
		appErr := apperrors.AsAppError(err)
		return nil, apperrors.Wrap(err, appErr.Code, bookingserrors.ErrApartmentsUnavailable.Error(), appErr.HTTPStatus)
	}
	return apartments, nil
}

func (s *bookingService) Quote(draft *model.BookingDraft) pricing.Quote {
	return pricing.Compute(draft.ActualPrice, draft.SellingPrice)
}

func (s *bookingService) sanitize(draft *model.BookingDraft) {
	draft.CheckInDate = sanitizer.TrimAndNormalize(draft.CheckInDate)
	draft.CheckOutDate = sanitizer.TrimAndNormalize(draft.CheckOutDate)
	draft.ApartmentID = sanitizer.TrimAndNormalize(draft.ApartmentID)
	draft.ClientName = sanitizer.NormalizeName(draft.ClientName)
	draft.ClientAddress = sanitizer.NormalizeAddress(draft.ClientAddress)
	draft.ClientPhone = sanitizer.TrimAndNormalize(draft.ClientPhone)
	draft.ActualPrice = sanitizer.NormalizeAmount(draft.ActualPrice)
	draft.SellingPrice = sanitizer.NormalizeAmount(draft.SellingPrice)
}

func (s *bookingService) validate(draft *model.BookingDraft) error {
	err := s.validator.Validate(draft)
	if err == nil {
		return nil
	}

	var validationErr validator.ValidationError
	if errors.As(err, &validationErr) {
		return apperrors.Validation(validationErr.Message, map[string]any{"field": validationErr.Field})
	}
	return apperrors.Validation(err.Error(), nil)
}

// buildForm lays out the multipart body of a manual booking. Dates go out
// as millisecond UTC timestamps; optional client details are omitted when
// blank.
func (s *bookingService) buildForm(draft *model.BookingDraft, apartment model.Apartment) *client.MultipartForm {
	checkIn, _ := model.ParseBookingDate(draft.CheckInDate)
	checkOut, _ := model.ParseBookingDate(draft.CheckOutDate)

	form := client.NewMultipartForm().
		Field("checkInDate", model.FormatISO(checkIn)).
		Field("checkOutDate", model.FormatISO(checkOut)).
		Field("propertyId", draft.ApartmentID).
		Field("actualPrice", draft.ActualPrice).
		Field("sellingPrice", draft.SellingPrice).
		Field("clientDetails[apartmentName]", apartment.ApartmentName)

	if draft.ClientName != "" {
		form.Field("clientDetails[name]", draft.ClientName)
	}
	if draft.ClientPhone != "" {
		form.Field("clientDetails[phoneNumber]", draft.ClientPhone)
	}
	if draft.ClientAddress != "" {
		form.Field("clientDetails[address]", draft.ClientAddress)
	}

	for _, invoice := range draft.Invoices {
		form.File("invoice", invoice.Name, invoice.Content)
	}
	return form
}

// userFacing keeps the code and status of err but replaces its message
// with the most specific one available: server, then transport, then
// fallback.
func userFacing(err error, fallback string) *apperrors.AppError {
	appErr := apperrors.AsAppError(err)
	return apperrors.Wrap(err, appErr.Code, apperrors.UserMessage(err, fallback), appErr.HTTPStatus)
}
