package models

import "time"

// SessionEntry holds one serialized value (cart, wishlist) of a browser session.
type SessionEntry struct {
	SessionID string    `gorm:"column:session_id;primaryKey;size:64"`
	Entry     string    `gorm:"column:entry;primaryKey;size:32"`
	Payload   string    `gorm:"column:payload;type:text;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index:idx_session_entries_expires_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (SessionEntry) TableName() string {
	return "session_entries"
}
