package domain

import "time"

// AuditFields holds standard audit information for admin-managed entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}

// Operation distinguishes the two customer-facing quote directions.
// Buy means the end customer acquires the base asset (quoted off the ask);
// Sell means the customer disposes of it (quoted off the bid).
type Operation string

const (
	OperationBuy  Operation = "buy"
	OperationSell Operation = "sell"
)

// ParseOperation normalizes a raw operation string.
func ParseOperation(s string) (Operation, bool) {
	switch Operation(s) {
	case OperationBuy:
		return OperationBuy, true
	case OperationSell:
		return OperationSell, true
	}
	return "", false
}
