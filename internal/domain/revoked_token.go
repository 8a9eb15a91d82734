package domain

import (
	"time"

	"github.com/google/uuid"
)

// RevokedToken is a denylist entry for a logged-out JWT, keyed by its jti.
type RevokedToken struct {
	JTI       string    `db:"jti" json:"jti"`
	SubjectID uuid.UUID `db:"subject_id" json:"subjectId"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	RevokedAt time.Time `db:"revoked_at" json:"revokedAt"`
}
