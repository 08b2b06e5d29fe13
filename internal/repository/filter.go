package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// TripFilter defines the dashboard filter state applied to every
// analytics query. Nil/empty fields mean "no constraint".
type TripFilter struct {
	StartDate    *time.Time // first pickup date, inclusive
	EndDate      *time.Time // last pickup date, inclusive
	HourMin      *int       // earliest pickup hour, inclusive
	HourMax      *int       // latest pickup hour, inclusive
	PaymentTypes []int
	PickupZones  []int
}

// buildWhere renders the filter as a WHERE clause with positional
// parameters starting at $1. Returns the clause (empty string when the
// filter is empty), the argument list, and the next free parameter index.
// The same filter always renders to the same SQL, which keeps the
// aggregate queries deterministic.
func buildWhere(f TripFilter) (string, []interface{}, int) {
	var conds []string
	var args []interface{}
	argNum := 1

	if f.StartDate != nil {
		conds = append(conds, fmt.Sprintf("pickup_time >= $%d", argNum))
		args = append(args, truncateDate(*f.StartDate))
		argNum++
	}

	if f.EndDate != nil {
		// Inclusive by date: compare against midnight of the next day.
		conds = append(conds, fmt.Sprintf("pickup_time < $%d", argNum))
		args = append(args, truncateDate(*f.EndDate).AddDate(0, 0, 1))
		argNum++
	}

	if f.HourMin != nil {
		conds = append(conds, fmt.Sprintf("pickup_hour >= $%d", argNum))
		args = append(args, *f.HourMin)
		argNum++
	}

	if f.HourMax != nil {
		conds = append(conds, fmt.Sprintf("pickup_hour <= $%d", argNum))
		args = append(args, *f.HourMax)
		argNum++
	}

	if len(f.PaymentTypes) > 0 {
		conds = append(conds, fmt.Sprintf("payment_type = ANY($%d)", argNum))
		args = append(args, pq.Array(toInt64(f.PaymentTypes)))
		argNum++
	}

	if len(f.PickupZones) > 0 {
		conds = append(conds, fmt.Sprintf("pickup_zone_id = ANY($%d)", argNum))
		args = append(args, pq.Array(toInt64(f.PickupZones)))
		argNum++
	}

	if len(conds) == 0 {
		return "", nil, argNum
	}

	return "WHERE " + strings.Join(conds, " AND "), args, argNum
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func toInt64(values []int) []int64 {
	out := make([]int64, len(values))
	for i, v := range values {
		out[i] = int64(v)
	}
	return out
}
