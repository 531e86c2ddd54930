package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/musikito/imagigenie/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Service maps external identities to User records and consumes the identity
// provider's profile-sync webhook events.
type Service struct {
	db             *gorm.DB
	welcomeCredits int
}

// NewService returns a Service granting welcomeCredits on first sign-in.
func NewService(db *gorm.DB, welcomeCredits int) *Service {
	return &Service{db: db, welcomeCredits: welcomeCredits}
}

// EnsureUser resolves an external identity to a User, creating the record with
// the welcome balance on first sight.
func (s *Service) EnsureUser(ctx context.Context, externalID string) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	user = domain.User{ExternalID: externalID, CreditBalance: s.welcomeCredits}
	if createErr := s.db.WithContext(ctx).Create(&user).Error; createErr != nil {
		// A concurrent first request may have created the record already;
		// the unique index makes that loser path safe to re-read.
		if fetchErr := s.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error; fetchErr == nil {
			return &user, nil
		}
		return nil, fmt.Errorf("create user: %w", createErr)
	}
	logrus.WithFields(logrus.Fields{
		"user_id":     user.ID,
		"external_id": externalID,
		"credits":     s.welcomeCredits,
	}).Info("User created on first sign-in")
	return &user, nil
}

// ProfileData is the identity provider's user payload.
type ProfileData struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	PhotoURL  string `json:"image_url"`
}

// ProfileEvent is a profile-sync webhook event.
type ProfileEvent struct {
	Type string      `json:"type"`
	Data ProfileData `json:"data"`
}

// HandleProfileEvent applies a profile-sync event. user.created and
// user.updated upsert profile fields; user.deleted removes the account and its
// images in one transaction so no dangling author references survive. Unknown
// event types are ignored.
func (s *Service) HandleProfileEvent(ctx context.Context, evt ProfileEvent) error {
	if evt.Data.ID == "" {
		return fmt.Errorf("profile event missing user id")
	}
	switch evt.Type {
	case "user.created", "user.updated":
		user, err := s.EnsureUser(ctx, evt.Data.ID)
		if err != nil {
			return err
		}
		updates := map[string]any{
			"email":      evt.Data.Email,
			"username":   evt.Data.Username,
			"first_name": evt.Data.FirstName,
			"last_name":  evt.Data.LastName,
			"photo_url":  evt.Data.PhotoURL,
		}
		if err := s.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("sync profile: %w", err)
		}
		logrus.WithFields(logrus.Fields{
			"user_id":     user.ID,
			"external_id": evt.Data.ID,
			"event":       evt.Type,
		}).Info("Profile synced")
		return nil
	case "user.deleted":
		return s.deleteUser(ctx, evt.Data.ID)
	default:
		logrus.WithField("event", evt.Type).Debug("Ignoring identity event")
		return nil
	}
}

// deleteUser removes the account and cascades deletion of its images.
func (s *Service) deleteUser(ctx context.Context, externalID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user domain.User
		if err := tx.Where("external_id = ?", externalID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil // Already gone, deletion is idempotent
			}
			return fmt.Errorf("lookup user: %w", err)
		}
		if err := tx.Where("author_id = ?", user.ID).Delete(&domain.Image{}).Error; err != nil {
			return fmt.Errorf("delete images: %w", err)
		}
		if err := tx.Delete(&user).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		logrus.WithFields(logrus.Fields{
			"user_id":     user.ID,
			"external_id": externalID,
		}).Info("User deleted with image cascade")
		return nil
	})
}
