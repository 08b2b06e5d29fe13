package models

import (
	"strconv"
	"strings"
	"time"
)

// Timestamp layouts accepted in TLC trip record exports.
const (
	timestampLayout    = "2006-01-02 15:04:05"
	timestampLayoutISO = "2006-01-02T15:04:05"
)

// Trip represents one yellow taxi trip with its derived columns
type Trip struct {
	ID              int64     `json:"id" db:"id"`
	PickupTime      time.Time `json:"pickup_time" db:"pickup_time"`
	DropoffTime     time.Time `json:"dropoff_time" db:"dropoff_time"`
	PassengerCount  int       `json:"passenger_count" db:"passenger_count"`
	TripDistance    float64   `json:"trip_distance" db:"trip_distance"`
	PickupZoneID    int       `json:"pickup_zone_id" db:"pickup_zone_id"`
	DropoffZoneID   int       `json:"dropoff_zone_id" db:"dropoff_zone_id"`
	PaymentType     int       `json:"payment_type" db:"payment_type"`
	FareAmount      float64   `json:"fare_amount" db:"fare_amount"`
	TipAmount       float64   `json:"tip_amount" db:"tip_amount"`
	TotalAmount     float64   `json:"total_amount" db:"total_amount"`
	DurationMinutes float64   `json:"duration_minutes" db:"duration_minutes"`
	PickupHour      int       `json:"pickup_hour" db:"pickup_hour"`
	PickupWeekday   int       `json:"pickup_weekday" db:"pickup_weekday"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// Derive recomputes the derived columns from the raw columns.
// Safe to call any number of times: the outputs depend only on
// pickup and dropoff time.
func (t *Trip) Derive() {
	t.DurationMinutes = t.DropoffTime.Sub(t.PickupTime).Minutes()
	t.PickupHour = t.PickupTime.Hour()
	t.PickupWeekday = (int(t.PickupTime.Weekday()) + 6) % 7 // 0 = Monday
}

// WeekdayName returns the English day name for a 0=Monday weekday index.
func WeekdayName(weekday int) string {
	names := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	if weekday < 0 || weekday >= len(names) {
		return "Unknown"
	}
	return names[weekday]
}

// RawTrip represents one CSV row from a TLC trip record file.
// All fields are kept as strings until conversion.
type RawTrip struct {
	PickupDatetime  string
	DropoffDatetime string
	PassengerCount  string
	TripDistance    string
	PickupZoneID    string
	DropoffZoneID   string
	PaymentType     string
	FareAmount      string
	TipAmount       string
	TotalAmount     string
}

// ToTrip converts a RawTrip into a Trip, parsing every column and
// computing the derived fields. Returns a ValidationError for any
// column that fails to parse.
func (r *RawTrip) ToTrip() (*Trip, error) {
	pickup, err := parseTimestamp(r.PickupDatetime)
	if err != nil {
		return nil, &ValidationError{Field: "pickup_datetime", Value: r.PickupDatetime, Message: "invalid pickup timestamp"}
	}

	dropoff, err := parseTimestamp(r.DropoffDatetime)
	if err != nil {
		return nil, &ValidationError{Field: "dropoff_datetime", Value: r.DropoffDatetime, Message: "invalid dropoff timestamp"}
	}

	// Passenger count is empty in some TLC exports; treat as a single rider.
	passengers := 1
	if s := strings.TrimSpace(r.PassengerCount); s != "" {
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, &ValidationError{Field: "passenger_count", Value: r.PassengerCount, Message: "invalid passenger count"}
		}
		passengers = int(p)
	}

	distance, err := parseAmount(r.TripDistance, "trip_distance")
	if err != nil {
		return nil, err
	}

	fare, err := parseAmount(r.FareAmount, "fare_amount")
	if err != nil {
		return nil, err
	}

	tip := 0.0
	if strings.TrimSpace(r.TipAmount) != "" {
		tip, err = parseAmount(r.TipAmount, "tip_amount")
		if err != nil {
			return nil, err
		}
	}

	// Prefer total_amount; fall back to fare + tip when the column is empty.
	total := fare + tip
	if strings.TrimSpace(r.TotalAmount) != "" {
		total, err = parseAmount(r.TotalAmount, "total_amount")
		if err != nil {
			return nil, err
		}
	}

	pickupZone, err := parseZoneID(r.PickupZoneID, "pickup_zone_id")
	if err != nil {
		return nil, err
	}

	dropoffZone, err := parseZoneID(r.DropoffZoneID, "dropoff_zone_id")
	if err != nil {
		return nil, err
	}

	payment, err := strconv.Atoi(strings.TrimSpace(r.PaymentType))
	if err != nil {
		return nil, &ValidationError{Field: "payment_type", Value: r.PaymentType, Message: "invalid payment type code"}
	}

	trip := &Trip{
		PickupTime:     pickup,
		DropoffTime:    dropoff,
		PassengerCount: passengers,
		TripDistance:   distance,
		PickupZoneID:   pickupZone,
		DropoffZoneID:  dropoffZone,
		PaymentType:    payment,
		FareAmount:     fare,
		TipAmount:      tip,
		TotalAmount:    total,
		CreatedAt:      time.Now().UTC(),
	}
	trip.Derive()

	return trip, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(timestampLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(timestampLayoutISO, s)
}

func parseAmount(s, field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, &ValidationError{Field: field, Value: s, Message: "invalid numeric value"}
	}
	return v, nil
}

func parseZoneID(s, field string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return 0, &ValidationError{Field: field, Value: s, Message: "invalid zone id"}
	}
	return v, nil
}
