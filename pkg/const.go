package pkg

const (
	HeaderTraceId   string = "X-Trace-Id"
	HeaderRequestId string = "X-Request-Id"
	HeaderAuth      string = "Authorization"
	CookieToken     string = "token"
)

const (
	TraceId        string = "trace_id"
	RequestId      string = "request_id"
	Identity       string = "identity"
	TransactionId  string = "transaction_id"
	SessionId      string = "session_id"
	OrderId        string = "order_id"
	IdempotencyKey string = "idempotency_key"
)

// PaymentStatus is the payment state of an order or a recorded payment.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

const (
	EventPaymentRecorded string = "payment.recorded"
)
