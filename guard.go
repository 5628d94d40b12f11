package main

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// loadOwnedApplication loads application id for mutation by user. It is
// called on every single-record request; ownership is never carried over
// from an earlier read because the id comes from the caller.
func (s *server) loadOwnedApplication(ctx context.Context, id string, user *User) (*JobApplication, error) {
	var application JobApplication
	if err := s.db.WithContext(ctx).First(&application, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load application %s: %w", id, err)
	}
	if application.UserID != user.ID {
		return nil, ErrForbidden
	}
	return &application, nil
}
