package authorization

import (
	"context"
	"errors"
	"strings"
)

const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleTeknisi    = "teknisi"
	RoleCustomer   = "customer"
)

type Service interface {
	Authorize(ctx context.Context, role string, object string, action string) error
}

var (
	ErrInvalidRole   = errors.New("invalid_role")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)

// NormalizeRole maps a header value such as "Teknisi" to its canonical name.
func NormalizeRole(raw string) (string, error) {
	role := strings.ToLower(strings.TrimSpace(raw))
	switch role {
	case RoleAdmin, RoleSupervisor, RoleTeknisi, RoleCustomer:
		return role, nil
	default:
		return "", ErrInvalidRole
	}
}
