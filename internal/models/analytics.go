package models

// Aggregate result rows returned by the analytics queries. Averages are
// pointers so an empty filter result serializes as null instead of zero.

// TripSummary holds the headline measures for the current filter.
type TripSummary struct {
	TotalTrips   int64    `json:"total_trips" db:"total_trips"`
	AvgFare      *float64 `json:"avg_fare" db:"avg_fare"`
	TotalRevenue *float64 `json:"total_revenue" db:"total_revenue"`
	AvgDistance  *float64 `json:"avg_distance" db:"avg_distance"`
	AvgDuration  *float64 `json:"avg_duration_minutes" db:"avg_duration_minutes"`
}

// HourBucket is one row of the trips-by-pickup-hour aggregate.
type HourBucket struct {
	PickupHour int      `json:"pickup_hour" db:"pickup_hour"`
	TripCount  int64    `json:"trip_count" db:"trip_count"`
	AvgFare    *float64 `json:"avg_fare" db:"avg_fare"`
}

// WeekdayBucket is one row of the trips-by-weekday aggregate.
// Weekday is 0=Monday .. 6=Sunday; Name carries the label.
type WeekdayBucket struct {
	Weekday   int      `json:"weekday" db:"weekday"`
	Name      string   `json:"name" db:"-"`
	TripCount int64    `json:"trip_count" db:"trip_count"`
	AvgTotal  *float64 `json:"avg_total" db:"avg_total"`
}

// FareBucket is one fixed-width bucket of the fare distribution.
// The last bucket is open-ended.
type FareBucket struct {
	Bucket    int     `json:"bucket" db:"bucket"`
	LowerFare float64 `json:"lower_fare" db:"-"`
	UpperFare float64 `json:"upper_fare" db:"-"`
	TripCount int64   `json:"trip_count" db:"trip_count"`
}

// PaymentBucket is one row of the payment-type breakdown.
type PaymentBucket struct {
	PaymentType int      `json:"payment_type" db:"payment_type"`
	Label       string   `json:"label" db:"-"`
	TripCount   int64    `json:"trip_count" db:"trip_count"`
	Revenue     *float64 `json:"revenue" db:"revenue"`
}

// ZoneBucket is one row of the top-pickup-zones aggregate.
type ZoneBucket struct {
	ZoneID    int      `json:"zone_id" db:"zone_id"`
	TripCount int64    `json:"trip_count" db:"trip_count"`
	AvgFare   *float64 `json:"avg_fare" db:"avg_fare"`
}

// ZonePairBucket is one row of the top pickup-to-dropoff pairs aggregate.
type ZonePairBucket struct {
	PickupZoneID  int   `json:"pickup_zone_id" db:"pickup_zone_id"`
	DropoffZoneID int   `json:"dropoff_zone_id" db:"dropoff_zone_id"`
	TripCount     int64 `json:"trip_count" db:"trip_count"`
}

// ZoneActivity bundles the zone-pattern aggregates shown together on
// the dashboard.
type ZoneActivity struct {
	TopPickupZones []*ZoneBucket     `json:"top_pickup_zones"`
	TopPairs       []*ZonePairBucket `json:"top_pairs"`
}

// DateBounds holds the min and max pickup dates present in the table;
// nil when the table is empty.
type DateBounds struct {
	MinDate *string `json:"min_date" db:"min_date"`
	MaxDate *string `json:"max_date" db:"max_date"`
}

// PaymentOption is a payment code present in the dataset with its label,
// used to populate the dashboard multiselect.
type PaymentOption struct {
	Code  int    `json:"code"`
	Label string `json:"label"`
}

// DatasetMeta describes the loaded dataset: the date range available to
// the date picker, the payment types present, and the pickup zones
// present.
type DatasetMeta struct {
	Bounds       DateBounds      `json:"bounds"`
	PaymentTypes []PaymentOption `json:"payment_types"`
	PickupZones  []int           `json:"pickup_zones"`
}

// CleanReport summarizes one cleaning pass over a raw dataset.
type CleanReport struct {
	TotalRows       int            `json:"total_rows"`
	KeptRows        int            `json:"kept_rows"`
	ParseFailures   int            `json:"parse_failures"`
	DroppedByReason map[string]int `json:"dropped_by_reason"`
}

// DroppedRows returns the number of rows removed by cleaning predicates,
// excluding parse failures.
func (r *CleanReport) DroppedRows() int {
	n := 0
	for _, c := range r.DroppedByReason {
		n += c
	}
	return n
}
