package validator

import (
	"afribook/internal/bookings/errors"
	"afribook/pkg/logger"
	"afribook/pkg/model"
	"afribook/pkg/sanitizer"
	stderrors "errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
)

const (
	tagRequired    = "required"
	tagBookingDate = "bookingdate"
	tagDateRange   = "daterange"
	tagPrice       = "price"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

func (v ValidationError) Unwrap() error {
	return v.Err
}

// rule maps one failed field/tag pair onto the message shown to the agent.
// Rules are listed in the order the agent should fix them.
type rule struct {
	fields []string
	tags   []string
	err    error
	field  string
}

var rules = []rule{
	{fields: []string{"CheckInDate", "CheckOutDate"}, tags: []string{tagRequired}, err: errors.ErrMissingDates, field: "CheckInDate"},
	{fields: []string{"CheckInDate", "CheckOutDate"}, tags: []string{tagBookingDate}, err: errors.ErrInvalidDate, field: "CheckInDate"},
	{fields: []string{"CheckOutDate"}, tags: []string{tagDateRange}, err: errors.ErrInvalidDateRange, field: "CheckOutDate"},
	{fields: []string{"ApartmentID"}, tags: []string{tagRequired}, err: errors.ErrMissingApartment, field: "ApartmentID"},
	{fields: []string{"ActualPrice", "SellingPrice"}, tags: []string{tagRequired}, err: errors.ErrMissingPrices, field: "ActualPrice"},
	{fields: []string{"ActualPrice"}, tags: []string{tagPrice}, err: errors.ErrInvalidActualPrice, field: "ActualPrice"},
	{fields: []string{"SellingPrice"}, tags: []string{tagPrice}, err: errors.ErrInvalidSellingPrice, field: "SellingPrice"},
	{fields: []string{"Name", "Content"}, tags: []string{tagRequired}, err: errors.ErrInvalidInvoice, field: "Invoices"},
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()
	bv := &BookingValidator{
		validate: v,
		logger:   log,
	}

	if err := v.RegisterValidation(tagBookingDate, validateBookingDate); err != nil {
		log.Fatal("Failed to register 'bookingdate' validator", "error", err)
	}
	if err := v.RegisterValidation(tagPrice, validatePrice); err != nil {
		log.Fatal("Failed to register 'price' validator", "error", err)
	}
	v.RegisterStructValidation(validateDateRange, model.BookingDraft{})

	log.Debug("Booking validator initialized successfully")

	return bv
}

func validateBookingDate(fl validator.FieldLevel) bool {
	_, err := model.ParseBookingDate(fl.Field().String())
	return err == nil
}

// validatePrice accepts a positive amount once grouping separators and
// currency symbols are stripped.
func validatePrice(fl validator.FieldLevel) bool {
	amount, err := strconv.ParseFloat(sanitizer.NormalizeAmount(fl.Field().String()), 64)
	return err == nil && amount > 0
}

func validateDateRange(sl validator.StructLevel) {
	draft := sl.Current().Interface().(model.BookingDraft)

	checkIn, errIn := model.ParseBookingDate(draft.CheckInDate)
	checkOut, errOut := model.ParseBookingDate(draft.CheckOutDate)
	if errIn != nil || errOut != nil {
		return
	}
	if !checkOut.After(checkIn) {
		sl.ReportError(draft.CheckOutDate, "CheckOutDate", "CheckOutDate", tagDateRange, "")
	}
}

// Validate returns the first problem with the draft as a ValidationError
// wrapping one of the sentinel errors, or nil.
func (v *BookingValidator) Validate(draft *model.BookingDraft) error {
	err := v.validate.Struct(draft)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !stderrors.As(err, &validationErrs) {
		return err
	}
	return v.firstViolation(validationErrs)
}

func (v *BookingValidator) firstViolation(errs validator.ValidationErrors) ValidationError {
	failed := make(map[string]map[string]bool, len(errs))
	for _, fe := range errs {
		if failed[fe.Field()] == nil {
			failed[fe.Field()] = map[string]bool{}
		}
		failed[fe.Field()][fe.Tag()] = true
	}

	for _, r := range rules {
		for _, field := range r.fields {
			for _, tag := range r.tags {
				if failed[field][tag] {
					return ValidationError{Field: r.field, Message: r.err.Error(), Err: r.err}
				}
			}
		}
	}

	first := errs[0]
	v.logger.Debug("Unmapped booking validation failure", "field", first.Field(), "tag", first.Tag())
	return ValidationError{Field: first.Field(), Message: translate(first)}
}

func translate(err validator.FieldError) string {
	switch err.Tag() {
	case tagRequired:
		return fmt.Sprintf("%s is required", err.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
	}
	return err.Error()
}
