package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel provides shared columns for all tables. The id is rendered as
// "_id" because the mobile client keys records by that name.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"_id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate ensures UUIDs are generated for new records.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	b.AssignID()
	return nil
}

// AssignID sets a fresh UUID when the record has none yet.
func (b *BaseModel) AssignID() {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
}

// Touch stamps CreatedAt (once) and UpdatedAt for stores that do not manage
// timestamps themselves.
func (b *BaseModel) Touch(now time.Time) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}
