package errors

import "errors"

// Validation failures, in the order the draft is checked. The texts are
// shown to the agent as-is.
var (
	ErrMissingDates = errors.New("Please select both check-in and check-out dates")

	ErrInvalidDate = errors.New("Please enter valid check-in and check-out dates")

	ErrInvalidDateRange = errors.New("Check-out date must be after check-in date")

	ErrMissingApartment = errors.New("Please select an apartment")

	ErrMissingPrices = errors.New("Please enter both actual and selling prices")

	ErrInvalidActualPrice = errors.New("Please enter a valid actual price")

	ErrInvalidSellingPrice = errors.New("Please enter a valid selling price")

	ErrInvalidInvoice = errors.New("Each invoice needs a file name and content")
)

var (
	ErrNotAuthenticated = errors.New("User authentication required")

	ErrInvalidApartment = errors.New("Selected apartment is invalid")

	ErrApartmentsUnavailable = errors.New("Failed to load apartments. Please refresh the page.")
)

const (
	MsgSubmitFailed = "Failed to create booking. Please try again."
	MsgCreated      = "Booking created successfully!"
)
