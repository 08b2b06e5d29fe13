package models

import "fmt"

// TLC payment type codes.
const (
	PaymentCreditCard = 1
	PaymentCash       = 2
	PaymentNoCharge   = 3
	PaymentDispute    = 4
	PaymentUnknown    = 5
	PaymentVoided     = 6
)

var paymentLabels = map[int]string{
	PaymentCreditCard: "Credit card",
	PaymentCash:       "Cash",
	PaymentNoCharge:   "No charge",
	PaymentDispute:    "Dispute",
	PaymentUnknown:    "Unknown",
	PaymentVoided:     "Voided trip",
}

// PaymentLabel translates a TLC payment type code to a readable label.
// Codes outside the documented set render as "Other (n)".
func PaymentLabel(code int) string {
	if label, ok := paymentLabels[code]; ok {
		return label
	}
	return fmt.Sprintf("Other (%d)", code)
}

// KnownPaymentType reports whether code is one of the documented TLC codes.
func KnownPaymentType(code int) bool {
	_, ok := paymentLabels[code]
	return ok
}
