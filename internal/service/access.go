package service

import (
	"fmt"

	"github.com/flicky/go-marketplace/internal/model"
)

func requireClient(p model.Principal) error {
	if !p.IsClient() {
		return fmt.Errorf("client access required: %w", ErrForbidden)
	}
	return nil
}

func requireSeller(p model.Principal) error {
	if !p.IsSeller() {
		return fmt.Errorf("seller access required: %w", ErrForbidden)
	}
	return nil
}

func requireClientOrSeller(p model.Principal) error {
	if !p.IsClient() && !p.IsSeller() {
		return fmt.Errorf("client or seller access required: %w", ErrForbidden)
	}
	return nil
}

func requireSuperAdmin(p model.Principal) error {
	if !p.IsSuperAdmin() {
		return fmt.Errorf("superadmin access required: %w", ErrForbidden)
	}
	return nil
}

// cartSession is the key of the principal's cart blob.
func cartSession(p model.Principal) string {
	if p.SessionID != "" {
		return p.SessionID
	}
	return fmt.Sprintf("client-%d", p.ID)
}
