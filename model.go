package querykit

import (
	"time"

	"gorm.io/gorm"
)

type Modelable interface {
	Exists() bool
}

// A Model is the essential data points for primary ID-based models queried through a kit.Kit,
// indicating when a record was created, last updated and soft deleted.
//
// Embedding Model gives a table the id, created_at, updated_at and deleted_at columns.
type Model struct {
	ID        uint           `db:"id" json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `db:"deleted_at" json:"deletedAt" gorm:"index"`
}

func (m Model) Exists() bool { return !m.CreatedAt.IsZero() }

// IsDeleted asserts whether the record is soft deleted.
func (m Model) IsDeleted() bool { return m.DeletedAt.Valid }
