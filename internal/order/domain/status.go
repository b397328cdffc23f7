package domain

import "strings"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusProcess   Status = "PROCESS"
	StatusReady     Status = "READY"
	StatusCompleted Status = "COMPLETED"
)

// Priority orders statuses from least to most advanced. Unknown statuses
// rank after COMPLETED so they never mask a real one.
func (s Status) Priority() int {
	switch s {
	case StatusPending:
		return 1
	case StatusProcess:
		return 2
	case StatusReady:
		return 3
	case StatusCompleted:
		return 4
	default:
		return 5
	}
}

func (s Status) Valid() bool {
	return s.Priority() <= StatusCompleted.Priority()
}

// Finished reports whether the shop is done working on the order.
func (s Status) Finished() bool {
	return s == StatusReady || s == StatusCompleted
}

func ParseStatus(value string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(value)))
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// ResolveStatus returns the least advanced status present. An order is only
// as far along as its slowest item.
func ResolveStatus(statuses []Status) Status {
	resolved := Status("")
	for _, status := range statuses {
		if !status.Valid() {
			continue
		}
		if resolved == "" || status.Priority() < resolved.Priority() {
			resolved = status
		}
	}
	if resolved == "" {
		return StatusPending
	}
	return resolved
}

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"
	PaymentTransfer PaymentMethod = "TRANSFER"
	PaymentUnpaid   PaymentMethod = "UNPAID"
)

func ParsePaymentMethod(value string) (PaymentMethod, error) {
	method := PaymentMethod(strings.ToUpper(strings.TrimSpace(value)))
	switch method {
	case PaymentCash, PaymentTransfer, PaymentUnpaid:
		return method, nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}

// Settles reports whether the method records an actual payment.
func (m PaymentMethod) Settles() bool {
	return m == PaymentCash || m == PaymentTransfer
}
