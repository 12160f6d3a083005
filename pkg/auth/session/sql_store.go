package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLStore keeps session entries in the session_entries table. Expired rows
// are invisible to Load and removed by DeleteExpired.
type SQLStore struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

func NewSQLStore(db *gorm.DB, ttl time.Duration) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &SQLStore{db: db, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *SQLStore) Load(ctx context.Context, sessionID, entry string) ([]byte, error) {
	if err := validKey(sessionID, entry); err != nil {
		return nil, err
	}
	now := s.now()
	var row models.SessionEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ? AND entry = ? AND expires_at > ?", sessionID, entry, now).
			Take(&row).Error; err != nil {
			return err
		}
		return tx.Model(&models.SessionEntry{}).
			Where("session_id = ? AND entry = ?", sessionID, entry).
			Update("expires_at", now.Add(s.ttl)).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load session entry: %w", err)
	}
	return []byte(row.Payload), nil
}

func (s *SQLStore) Save(ctx context.Context, sessionID, entry string, payload []byte) error {
	if err := validKey(sessionID, entry); err != nil {
		return err
	}
	now := s.now()
	row := models.SessionEntry{
		SessionID: sessionID,
		Entry:     entry,
		Payload:   string(payload),
		ExpiresAt: now.Add(s.ttl),
		UpdatedAt: now,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "entry"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "expires_at", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save session entry: %w", err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, sessionID, entry string) error {
	if err := validKey(sessionID, entry); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND entry = ?", sessionID, entry).
		Delete(&models.SessionEntry{}).Error
	if err != nil {
		return fmt.Errorf("delete session entry: %w", err)
	}
	return nil
}

// DeleteExpired removes rows whose expiry is at or before cutoff.
func (s *SQLStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at <= ?", cutoff.UTC()).
		Delete(&models.SessionEntry{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired session entries: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
