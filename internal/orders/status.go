package orders

import "github.com/hadevx/backend/internal/apperr"

// Status is the single order lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusDelivered Status = "delivered"
	StatusCanceled  Status = "canceled"
)

// transitions lists the states reachable from each state. Re-marking a
// paid order paid is allowed: it overwrites the payment receipt.
// Delivered and canceled are terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusPaid, StatusDelivered, StatusCanceled},
	StatusPaid:      {StatusPaid, StatusDelivered, StatusCanceled},
	StatusDelivered: {},
	StatusCanceled:  {},
}

// CanTransition reports whether an order may move from one status to
// another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// checkTransition returns the taxonomy error for a forbidden move.
func checkTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return apperr.Conflictf("order is %s and cannot become %s", from, to)
	}
	return nil
}
