package order

import "errors"

// Status is an order's position in the preparation lifecycle.
type Status string

const (
	StatusReceived     Status = "received"
	StatusAcknowledged Status = "acknowledged"
	StatusPreparing    Status = "preparing"
	StatusReady        Status = "ready"
	StatusPickedUp     Status = "pickedUp"
	StatusCompleted    Status = "completed"
)

var ErrInvalidStatus = errors.New("invalid status")

func (s Status) String() string {
	return string(s)
}

func ParseStatus(s string) (Status, error) {
	switch s {
	case StatusReceived.String():
		return StatusReceived, nil
	case StatusAcknowledged.String():
		return StatusAcknowledged, nil
	case StatusPreparing.String():
		return StatusPreparing, nil
	case StatusReady.String():
		return StatusReady, nil
	case StatusPickedUp.String():
		return StatusPickedUp, nil
	case StatusCompleted.String():
		return StatusCompleted, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Next returns the canonical next status for the advance action. The second
// return value is false for the terminal status.
func (s Status) Next() (Status, bool) {
	switch s {
	case StatusReceived:
		return StatusAcknowledged, true
	case StatusAcknowledged:
		return StatusPreparing, true
	case StatusPreparing:
		return StatusReady, true
	case StatusReady:
		return StatusPickedUp, true
	case StatusPickedUp:
		return StatusCompleted, true
	default:
		return "", false
	}
}

// Terminal reports whether the status has no next status.
func (s Status) Terminal() bool {
	_, ok := s.Next()
	return !ok
}

// ActionLabel returns the label for the primary advance button given the
// order's current status and type. It is display metadata only.
func ActionLabel(s Status, t OrderType) string {
	switch s {
	case StatusReceived:
		return "Acknowledge"
	case StatusAcknowledged:
		return "Start Preparing"
	case StatusPreparing:
		return "Mark Ready"
	case StatusReady:
		switch t {
		case OrderTypeDelivery:
			return "Out for Delivery"
		case OrderTypeDineIn:
			return "Serve"
		default:
			return "Mark Picked Up"
		}
	case StatusPickedUp:
		if t == OrderTypeDelivery {
			return "Mark Delivered"
		}
		return "Complete"
	default:
		return ""
	}
}
