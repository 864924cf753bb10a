package logkey

// Common keys for structured log attributes so the same name is used
// everywhere a value is logged.
const (
	TraceID = "Trace ID"
	ERROR   = "Error"

	OrderID   = "OrderID"
	ProductID = "ProductID"
	UserID    = "UserID"
	CouponID  = "CouponID"
)
