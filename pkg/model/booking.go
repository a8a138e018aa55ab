package model

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	// ISOLayout matches the millisecond UTC timestamps the bookings API expects.
	ISOLayout = "2006-01-02T15:04:05.000Z"
)

// BookingDraft is a manual booking as collected from the agent, before it is
// validated and submitted.
type BookingDraft struct {
	CheckInDate   string    `json:"checkInDate" validate:"required,bookingdate"`
	CheckOutDate  string    `json:"checkOutDate" validate:"required,bookingdate"`
	ApartmentID   string    `json:"propertyId" validate:"required"`
	ClientName    string    `json:"name,omitempty" validate:"omitempty,max=120"`
	ClientPhone   string    `json:"phoneNumber,omitempty"`
	ClientAddress string    `json:"address,omitempty" validate:"omitempty,max=250"`
	ActualPrice   string    `json:"actualPrice" validate:"required,price"`
	SellingPrice  string    `json:"sellingPrice" validate:"required,price"`
	Invoices      []Invoice `json:"-" validate:"dive"`
}

// Invoice is one attached document, sent as an `invoice` file part.
type Invoice struct {
	Name    string    `validate:"required"`
	Content io.Reader `validate:"required"`
}

type ManualBookingResult struct {
	Status    int    `json:"-"`
	BookingID string `json:"bookingId,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ParseBookingDate accepts a calendar date (read as UTC midnight) or an
// RFC 3339 timestamp.
func ParseBookingDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}
