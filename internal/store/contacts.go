package store

import (
	"context"
	"fmt"

	"campus-parking-backend/internal/model"
)

func (s *gormStore) CreateContact(ctx context.Context, m *model.ContactMessage) error {
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to save contact message: %w", err)
	}
	return nil
}
