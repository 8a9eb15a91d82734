package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Instructor struct {
	ID           uuid.UUID      `db:"id" json:"id"`
	Email        string         `db:"email" json:"email"`
	FullName     string         `db:"full_name" json:"fullName"`
	Batches      pq.StringArray `db:"batches" json:"batches"`
	IsAdmin      bool           `db:"is_admin" json:"isAdmin"`
	PasswordHash []byte         `db:"password_hash" json:"-"`
	PasswordSalt []byte         `db:"password_salt" json:"-"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updatedAt"`
}

// ManagesBatch reports whether the instructor is authorized for batch.
// Batch names compare case-insensitively.
func (i *Instructor) ManagesBatch(batch string) bool {
	target := strings.TrimSpace(batch)
	if target == "" {
		return false
	}
	for _, b := range i.Batches {
		if strings.EqualFold(strings.TrimSpace(b), target) {
			return true
		}
	}
	return false
}
