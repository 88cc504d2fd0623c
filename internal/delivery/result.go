package delivery

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrDelivery matches every delivery failure, transport or HTTP
var ErrDelivery = errors.New("delivery failed")

// Receipt is the confirmation value returned by the receiving endpoint
type Receipt struct {
	Value json.RawMessage
}

// String renders a JSON string receipt without quotes and anything else as raw JSON
func (r *Receipt) String() string {
	var s string
	if err := json.Unmarshal(r.Value, &s); err == nil {
		return s
	}
	return string(r.Value)
}

// DeliveryError reports a failed delivery.
// StatusCode is 0 when no HTTP response was received.
type DeliveryError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *DeliveryError) Error() string {
	switch {
	case e.StatusCode == 0:
		return fmt.Sprintf("delivery failed: %v", e.Err)
	case e.Err != nil:
		return fmt.Sprintf("delivery failed: HTTP %d: %v", e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("delivery failed: HTTP %d", e.StatusCode)
	}
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

func (e *DeliveryError) Is(target error) bool {
	return target == ErrDelivery
}

// IsTransport reports whether the request never produced an HTTP response
func (e *DeliveryError) IsTransport() bool {
	return e.StatusCode == 0
}
