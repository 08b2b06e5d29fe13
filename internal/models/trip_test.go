package models

import (
	"testing"
	"time"
)

// TestRawTrip_ToTrip tests CSV row conversion and feature derivation
func TestRawTrip_ToTrip(t *testing.T) {
	tests := []struct {
		name        string
		raw         RawTrip
		wantErr     bool
		checkValues func(*testing.T, *Trip)
	}{
		{
			name: "valid record with all columns",
			raw: RawTrip{
				PickupDatetime:  "2024-01-01 08:00:00",
				DropoffDatetime: "2024-01-01 08:15:00",
				PassengerCount:  "2",
				TripDistance:    "3.4",
				PickupZoneID:    "161",
				DropoffZoneID:   "236",
				PaymentType:     "1",
				FareAmount:      "14.50",
				TipAmount:       "3.00",
				TotalAmount:     "19.00",
			},
			wantErr: false,
			checkValues: func(t *testing.T, trip *Trip) {
				if trip.DurationMinutes != 15.0 {
					t.Errorf("DurationMinutes = %v, want %v", trip.DurationMinutes, 15.0)
				}
				if trip.PickupHour != 8 {
					t.Errorf("PickupHour = %v, want %v", trip.PickupHour, 8)
				}
				// 2024-01-01 is a Monday
				if trip.PickupWeekday != 0 {
					t.Errorf("PickupWeekday = %v, want %v (Monday)", trip.PickupWeekday, 0)
				}
				if trip.PassengerCount != 2 {
					t.Errorf("PassengerCount = %v, want %v", trip.PassengerCount, 2)
				}
				if trip.TotalAmount != 19.00 {
					t.Errorf("TotalAmount = %v, want %v", trip.TotalAmount, 19.00)
				}
			},
		},
		{
			name: "sunday pickup maps to weekday 6",
			raw: RawTrip{
				PickupDatetime:  "2024-01-07 23:30:00",
				DropoffDatetime: "2024-01-07 23:45:00",
				PassengerCount:  "1",
				TripDistance:    "1.1",
				PickupZoneID:    "43",
				DropoffZoneID:   "43",
				PaymentType:     "2",
				FareAmount:      "7.00",
				TipAmount:       "0",
				TotalAmount:     "7.00",
			},
			wantErr: false,
			checkValues: func(t *testing.T, trip *Trip) {
				if trip.PickupWeekday != 6 {
					t.Errorf("PickupWeekday = %v, want %v (Sunday)", trip.PickupWeekday, 6)
				}
				if trip.PickupHour != 23 {
					t.Errorf("PickupHour = %v, want %v", trip.PickupHour, 23)
				}
			},
		},
		{
			name: "empty passenger count defaults to one rider",
			raw: RawTrip{
				PickupDatetime:  "2024-01-02 12:00:00",
				DropoffDatetime: "2024-01-02 12:10:00",
				PassengerCount:  "",
				TripDistance:    "2.0",
				PickupZoneID:    "100",
				DropoffZoneID:   "101",
				PaymentType:     "1",
				FareAmount:      "10.00",
				TipAmount:       "2.00",
				TotalAmount:     "12.00",
			},
			wantErr: false,
			checkValues: func(t *testing.T, trip *Trip) {
				if trip.PassengerCount != 1 {
					t.Errorf("PassengerCount = %v, want %v", trip.PassengerCount, 1)
				}
			},
		},
		{
			name: "missing total falls back to fare plus tip",
			raw: RawTrip{
				PickupDatetime:  "2024-01-02 12:00:00",
				DropoffDatetime: "2024-01-02 12:10:00",
				PassengerCount:  "1",
				TripDistance:    "2.0",
				PickupZoneID:    "100",
				DropoffZoneID:   "101",
				PaymentType:     "1",
				FareAmount:      "10.00",
				TipAmount:       "2.50",
				TotalAmount:     "",
			},
			wantErr: false,
			checkValues: func(t *testing.T, trip *Trip) {
				if trip.TotalAmount != 12.50 {
					t.Errorf("TotalAmount = %v, want %v", trip.TotalAmount, 12.50)
				}
			},
		},
		{
			name: "fractional passenger count truncates",
			raw: RawTrip{
				PickupDatetime:  "2024-01-02 12:00:00",
				DropoffDatetime: "2024-01-02 12:10:00",
				PassengerCount:  "1.0",
				TripDistance:    "2.0",
				PickupZoneID:    "100",
				DropoffZoneID:   "101",
				PaymentType:     "2",
				FareAmount:      "10.00",
				TipAmount:       "0",
				TotalAmount:     "10.00",
			},
			wantErr: false,
			checkValues: func(t *testing.T, trip *Trip) {
				if trip.PassengerCount != 1 {
					t.Errorf("PassengerCount = %v, want %v", trip.PassengerCount, 1)
				}
			},
		},
		{
			name: "invalid pickup timestamp",
			raw: RawTrip{
				PickupDatetime:  "01/02/2024 12:00 PM",
				DropoffDatetime: "2024-01-02 12:10:00",
				PassengerCount:  "1",
				TripDistance:    "2.0",
				PickupZoneID:    "100",
				DropoffZoneID:   "101",
				PaymentType:     "1",
				FareAmount:      "10.00",
			},
			wantErr: true,
		},
		{
			name: "invalid fare amount",
			raw: RawTrip{
				PickupDatetime:  "2024-01-02 12:00:00",
				DropoffDatetime: "2024-01-02 12:10:00",
				PassengerCount:  "1",
				TripDistance:    "2.0",
				PickupZoneID:    "100",
				DropoffZoneID:   "101",
				PaymentType:     "1",
				FareAmount:      "ten dollars",
			},
			wantErr: true,
		},
		{
			name: "invalid zone id",
			raw: RawTrip{
				PickupDatetime:  "2024-01-02 12:00:00",
				DropoffDatetime: "2024-01-02 12:10:00",
				PassengerCount:  "1",
				TripDistance:    "2.0",
				PickupZoneID:    "-5",
				DropoffZoneID:   "101",
				PaymentType:     "1",
				FareAmount:      "10.00",
			},
			wantErr: true,
		},
		{
			name: "ISO timestamp variant accepted",
			raw: RawTrip{
				PickupDatetime:  "2024-01-02T12:00:00",
				DropoffDatetime: "2024-01-02T12:10:00",
				PassengerCount:  "1",
				TripDistance:    "2.0",
				PickupZoneID:    "100",
				DropoffZoneID:   "101",
				PaymentType:     "1",
				FareAmount:      "10.00",
				TipAmount:       "0",
				TotalAmount:     "10.00",
			},
			wantErr: false,
			checkValues: func(t *testing.T, trip *Trip) {
				want := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
				if !trip.PickupTime.Equal(want) {
					t.Errorf("PickupTime = %v, want %v", trip.PickupTime, want)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trip, err := tt.raw.ToTrip()

			if (err != nil) != tt.wantErr {
				t.Errorf("ToTrip() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && tt.checkValues != nil {
				tt.checkValues(t, trip)
			}
		})
	}
}

// TestTrip_Derive_Idempotent verifies derived columns are stable under
// repeated derivation
func TestTrip_Derive_Idempotent(t *testing.T) {
	trip := &Trip{
		PickupTime:  time.Date(2024, 1, 3, 17, 30, 0, 0, time.UTC),
		DropoffTime: time.Date(2024, 1, 3, 18, 12, 0, 0, time.UTC),
	}

	trip.Derive()
	first := *trip

	trip.Derive()
	trip.Derive()

	if trip.DurationMinutes != first.DurationMinutes {
		t.Errorf("DurationMinutes changed on re-derive: %v != %v", trip.DurationMinutes, first.DurationMinutes)
	}
	if trip.PickupHour != first.PickupHour {
		t.Errorf("PickupHour changed on re-derive: %v != %v", trip.PickupHour, first.PickupHour)
	}
	if trip.PickupWeekday != first.PickupWeekday {
		t.Errorf("PickupWeekday changed on re-derive: %v != %v", trip.PickupWeekday, first.PickupWeekday)
	}

	if trip.DurationMinutes != 42.0 {
		t.Errorf("DurationMinutes = %v, want %v", trip.DurationMinutes, 42.0)
	}
	if trip.PickupHour != 17 {
		t.Errorf("PickupHour = %v, want %v", trip.PickupHour, 17)
	}
	// 2024-01-03 is a Wednesday
	if trip.PickupWeekday != 2 {
		t.Errorf("PickupWeekday = %v, want %v (Wednesday)", trip.PickupWeekday, 2)
	}
}

// TestPaymentLabel tests TLC payment code translation
func TestPaymentLabel(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{1, "Credit card"},
		{2, "Cash"},
		{3, "No charge"},
		{4, "Dispute"},
		{5, "Unknown"},
		{6, "Voided trip"},
		{9, "Other (9)"},
		{0, "Other (0)"},
	}

	for _, tt := range tests {
		if got := PaymentLabel(tt.code); got != tt.want {
			t.Errorf("PaymentLabel(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}

	if KnownPaymentType(9) {
		t.Error("KnownPaymentType(9) should be false")
	}
	if !KnownPaymentType(PaymentCash) {
		t.Error("KnownPaymentType(cash) should be true")
	}
}

// TestWeekdayName tests the 0=Monday day name mapping
func TestWeekdayName(t *testing.T) {
	if got := WeekdayName(0); got != "Monday" {
		t.Errorf("WeekdayName(0) = %q, want Monday", got)
	}
	if got := WeekdayName(6); got != "Sunday" {
		t.Errorf("WeekdayName(6) = %q, want Sunday", got)
	}
	if got := WeekdayName(7); got != "Unknown" {
		t.Errorf("WeekdayName(7) = %q, want Unknown", got)
	}
}

// TestValidationError tests error classification
func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Field:   "fare_amount",
		Value:   "abc",
		Message: "invalid numeric value",
	}

	if err.Error() != "invalid numeric value" {
		t.Errorf("Error() = %v, want %v", err.Error(), "invalid numeric value")
	}

	if err.IsTransient() {
		t.Error("ValidationError should not be transient")
	}
}
