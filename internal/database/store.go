package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/go-invite/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("record not found")

// Store is the single source of truth for users, organizations and sessions.
// Every multi-row write runs in one transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for health checks and migrations.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// CreatePendingUser inserts the user and its organizations atomically.
func (s *Store) CreatePendingUser(ctx context.Context, user *models.User, orgs []models.Organization) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			return err
		}
		if len(orgs) == 0 {
			return nil
		}
		for i := range orgs {
			orgs[i].UserID = user.ID
		}
		if err := tx.Omit(clause.Associations).Create(&orgs).Error; err != nil {
			return err
		}
		user.Organizations = orgs
		return nil
	})
}

func (s *Store) FindPendingUserByInviteCode(ctx context.Context, code string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("invite_code = ? AND activated = ?", code, false).
		Order("invited_at DESC").
		First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ? AND activated = ?", email, true).
		First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetUser loads a user together with its organizations.
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Organizations", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// ActivateUser moves a pending user to active in a single UPDATE. It only
// matches while the user is still pending with the given invite code, so a
// concurrent redeem or sweep leaves nothing to update and ErrNotFound is returned.
func (s *Store) ActivateUser(ctx context.Context, id uuid.UUID, inviteCode, digest string) error {
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND activated = ? AND invite_code = ?", id, false, inviteCode).
		Updates(map[string]interface{}{
			"password_digest": digest,
			"activated":       true,
			"invite_code":     "",
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes the user with its organizations and sessions.
func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteUsers(tx, []uuid.UUID{id})
	})
}

func deleteUsers(tx *gorm.DB, ids []uuid.UUID) error {
	if err := tx.Where("user_id IN ?", ids).Delete(&models.Organization{}).Error; err != nil {
		return fmt.Errorf("deleting organizations: %w", err)
	}
	if err := tx.Where("user_id IN ?", ids).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("deleting sessions: %w", err)
	}
	if err := tx.Where("id IN ?", ids).Delete(&models.User{}).Error; err != nil {
		return fmt.Errorf("deleting users: %w", err)
	}
	return nil
}

func (s *Store) CreateSession(ctx context.Context, session *models.Session) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(session).Error
}

// FindSessionByToken loads the session with its owning user.
func (s *Store) FindSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("token = ?", token).
		First(&session).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &session, nil
}

func (s *Store) DeleteSession(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Session{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProfile applies the column updates and, when orgs is non-nil,
// replaces the user's organizations with orgs. Both happen in one transaction.
func (s *Store) UpdateProfile(ctx context.Context, userID uuid.UUID, fields map[string]interface{}, orgs *[]models.Organization) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(fields) > 0 {
			if err := tx.Model(&models.User{}).Where("id = ?", userID).Updates(fields).Error; err != nil {
				return err
			}
		}

		if orgs == nil {
			return nil
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.Organization{}).Error; err != nil {
			return err
		}
		if len(*orgs) == 0 {
			return nil
		}
		for i := range *orgs {
			(*orgs)[i].UserID = userID
		}
		return tx.Omit(clause.Associations).Create(orgs).Error
	})
}

func (s *Store) ListOrganizations(ctx context.Context, userID uuid.UUID) ([]models.Organization, error) {
	var orgs []models.Organization
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&orgs).Error
	return orgs, err
}

// DeleteSessionsCreatedBefore removes every session created before cutoff.
func (s *Store) DeleteSessionsCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.Session{})
	return result.RowsAffected, result.Error
}

// DeletePendingUsersInvitedBefore removes pending users invited before cutoff,
// along with their organizations. Active users are never touched.
func (s *Store) DeletePendingUsersInvitedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		if err := tx.Model(&models.User{}).
			Where("activated = ? AND invited_at < ?", false, cutoff).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := deleteUsers(tx, ids); err != nil {
			return err
		}
		deleted = int64(len(ids))
		return nil
	})
	return deleted, err
}
