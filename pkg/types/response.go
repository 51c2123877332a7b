package types

// SuccessEnvelope wraps operation results for endpoints that report a
// success flag alongside their payload.
type SuccessEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// ErrorEnvelope is the public error shape. Message carries a coarse
// operation label on server failures; internal error text never
// reaches the wire.
type ErrorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}
