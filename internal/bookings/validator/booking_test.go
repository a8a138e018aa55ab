package validator

import (
	"afribook/internal/bookings/errors"
	"afribook/pkg/logger"
	"afribook/pkg/model"
	stderrors "errors"
	"strings"
	"testing"
)

func validDraft() *model.BookingDraft {
	return &model.BookingDraft{
		CheckInDate:  "2025-03-10",
		CheckOutDate: "2025-03-12",
		ApartmentID:  "P1",
		ActualPrice:  "10000",
		SellingPrice: "15000",
	}
}

func TestValidate(t *testing.T) {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	validator := NewBookingValidator(log)

	tests := []struct {
		name    string
		mutate  func(d *model.BookingDraft)
		wantErr error
	}{
		{
			name:    "valid draft",
			mutate:  func(d *model.BookingDraft) {},
			wantErr: nil,
		},
		{
			name:    "missing check-in",
			mutate:  func(d *model.BookingDraft) { d.CheckInDate = "" },
			wantErr: errors.ErrMissingDates,
		},
		{
			name:    "missing check-out",
			mutate:  func(d *model.BookingDraft) { d.CheckOutDate = "" },
			wantErr: errors.ErrMissingDates,
		},
		{
			name: "check-out before check-in",
			mutate: func(d *model.BookingDraft) {
				d.CheckInDate = "2025-03-10"
				d.CheckOutDate = "2025-03-09"
			},
			wantErr: errors.ErrInvalidDateRange,
		},
		{
			name:    "same day stay",
			mutate:  func(d *model.BookingDraft) { d.CheckOutDate = d.CheckInDate },
			wantErr: errors.ErrInvalidDateRange,
		},
		{
			name:    "unparseable date",
			mutate:  func(d *model.BookingDraft) { d.CheckInDate = "10/03/2025" },
			wantErr: errors.ErrInvalidDate,
		},
		{
			name:    "no apartment",
			mutate:  func(d *model.BookingDraft) { d.ApartmentID = "" },
			wantErr: errors.ErrMissingApartment,
		},
		{
			name:    "missing selling price",
			mutate:  func(d *model.BookingDraft) { d.SellingPrice = "" },
			wantErr: errors.ErrMissingPrices,
		},
		{
			name:    "zero actual price",
			mutate:  func(d *model.BookingDraft) { d.ActualPrice = "0" },
			wantErr: errors.ErrInvalidActualPrice,
		},
		{
			name:    "negative selling price",
			mutate:  func(d *model.BookingDraft) { d.SellingPrice = "-5" },
			wantErr: errors.ErrInvalidSellingPrice,
		},
		{
			name:    "formatted prices",
			mutate:  func(d *model.BookingDraft) { d.ActualPrice = "₦10,000"; d.SellingPrice = "15 000" },
			wantErr: nil,
		},
		{
			name:    "national phone number",
			mutate:  func(d *model.BookingDraft) { d.ClientPhone = "08031234567" },
			wantErr: nil,
		},
		{
			name:    "short phone number",
			mutate:  func(d *model.BookingDraft) { d.ClientPhone = "0801 234" },
			wantErr: nil,
		},
		{
			name:    "free-form phone text",
			mutate:  func(d *model.BookingDraft) { d.ClientPhone = "ask at front desk" },
			wantErr: nil,
		},
		{
			name:    "invoice without content",
			mutate:  func(d *model.BookingDraft) { d.Invoices = []model.Invoice{{Name: "invoice.pdf"}} },
			wantErr: errors.ErrInvalidInvoice,
		},
		{
			name:    "invoice attached",
			mutate:  func(d *model.BookingDraft) { d.Invoices = []model.Invoice{{Name: "invoice.pdf", Content: strings.NewReader("%PDF")}} },
			wantErr: nil,
		},
		{
			name: "dates are reported before prices",
			mutate: func(d *model.BookingDraft) {
				d.CheckOutDate = "2025-03-01"
				d.ActualPrice = ""
				d.ApartmentID = ""
			},
			wantErr: errors.ErrInvalidDateRange,
		},
		{
			name: "apartment is reported before prices",
			mutate: func(d *model.BookingDraft) {
				d.ApartmentID = ""
				d.ActualPrice = "0"
			},
			wantErr: errors.ErrMissingApartment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validDraft()
			tt.mutate(draft)

			err := validator.Validate(draft)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !stderrors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}

			var validationErr ValidationError
			if !stderrors.As(err, &validationErr) || validationErr.Message != tt.wantErr.Error() {
				t.Errorf("Validate() message = %q, want %q", validationErr.Message, tt.wantErr.Error())
			}
		})
	}
}
