package domain

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"time"
)

type OTPPurpose string

const (
	OTPPurposeChange OTPPurpose = "change"
	OTPPurposeReset  OTPPurpose = "reset"
)

const (
	OTPLength          = 6
	OTPMaxAttempts     = 5
	OTPLockoutDuration = 30 * time.Minute
)

var (
	ErrOTPInvalid = errors.New("invalid or expired OTP")
	ErrOTPLocked  = errors.New("too many failed OTP attempts")
	// ErrOTPStateChanged reports that another request updated the OTP record
	// between read and write.
	ErrOTPStateChanged = errors.New("verification is already in progress, please try again")
)

// OTPLockedError is returned while a lockout is active.
type OTPLockedError struct {
	Until     time.Time
	Remaining time.Duration
}

func (e *OTPLockedError) Error() string {
	return fmt.Sprintf("too many failed attempts, please try again in %d minutes", e.RemainingMinutes())
}

func (e *OTPLockedError) Unwrap() error { return ErrOTPLocked }

// RemainingMinutes rounds the remaining lockout up to whole minutes, never below one.
func (e *OTPLockedError) RemainingMinutes() int {
	minutes := int(math.Ceil(e.Remaining.Minutes()))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// OTPInvalidError is returned for a wrong code while attempts remain.
type OTPInvalidError struct {
	RemainingAttempts int
}

func (e *OTPInvalidError) Error() string { return ErrOTPInvalid.Error() }

func (e *OTPInvalidError) Unwrap() error { return ErrOTPInvalid }

// OTPState is the one-time password record embedded in a student account.
// Only the argon2 hash of the code is stored.
type OTPState struct {
	Hash        []byte      `db:"otp_hash"`
	Salt        []byte      `db:"otp_salt"`
	Purpose     *OTPPurpose `db:"otp_purpose"`
	ExpiresAt   *time.Time  `db:"otp_expires_at"`
	Attempts    int         `db:"otp_attempts"`
	LockedUntil *time.Time  `db:"otp_locked_until"`
}

func (s *OTPState) lockError(now time.Time) error {
	if s.LockedUntil == nil || !now.Before(*s.LockedUntil) {
		return nil
	}
	return &OTPLockedError{Until: *s.LockedUntil, Remaining: s.LockedUntil.Sub(now)}
}

// releaseExpiredLock drops a lockout whose window has passed together with
// the failure count that caused it.
func (s *OTPState) releaseExpiredLock(now time.Time) {
	if s.LockedUntil != nil && !now.Before(*s.LockedUntil) {
		s.LockedUntil = nil
		s.Attempts = 0
	}
}

// Issue stores a freshly generated code. It fails while a lockout is active.
func (s *OTPState) Issue(now time.Time, hash, salt []byte, purpose OTPPurpose, ttl time.Duration) error {
	if err := s.lockError(now); err != nil {
		return err
	}
	expiresAt := now.Add(ttl)
	p := purpose
	s.Hash = append([]byte(nil), hash...)
	s.Salt = append([]byte(nil), salt...)
	s.Purpose = &p
	s.ExpiresAt = &expiresAt
	s.Attempts = 0
	s.LockedUntil = nil
	return nil
}

// Verify checks a submitted code. matches is only consulted when a live code
// of the requested purpose exists and no lockout is active. The state is
// mutated in every outcome and must be persisted by the caller.
func (s *OTPState) Verify(now time.Time, purpose OTPPurpose, matches func(hash, salt []byte) bool) error {
	if err := s.lockError(now); err != nil {
		return err
	}
	s.releaseExpiredLock(now)

	if !s.HasActiveCode(now, purpose) {
		return ErrOTPInvalid
	}

	if !matches(s.Hash, s.Salt) {
		s.Attempts++
		if s.Attempts >= OTPMaxAttempts {
			until := now.Add(OTPLockoutDuration)
			s.LockedUntil = &until
			return &OTPLockedError{Until: until, Remaining: OTPLockoutDuration}
		}
		return &OTPInvalidError{RemainingAttempts: OTPMaxAttempts - s.Attempts}
	}

	s.Clear()
	return nil
}

// SameGuard reports whether o holds the same code, attempt count and lockout
// as s. Stores compare these fields before writing a new state.
func (s *OTPState) SameGuard(o OTPState) bool {
	if s.Attempts != o.Attempts || !bytes.Equal(s.Hash, o.Hash) {
		return false
	}
	switch {
	case s.LockedUntil == nil || o.LockedUntil == nil:
		return s.LockedUntil == nil && o.LockedUntil == nil
	default:
		return s.LockedUntil.Equal(*o.LockedUntil)
	}
}

func (s *OTPState) HasActiveCode(now time.Time, purpose OTPPurpose) bool {
	if len(s.Hash) == 0 || len(s.Salt) == 0 || s.ExpiresAt == nil {
		return false
	}
	if s.Purpose == nil || *s.Purpose != purpose {
		return false
	}
	return now.Before(*s.ExpiresAt)
}

// ClearCode drops the code but keeps attempt and lockout bookkeeping.
func (s *OTPState) ClearCode() {
	s.Hash = nil
	s.Salt = nil
	s.Purpose = nil
	s.ExpiresAt = nil
}

func (s *OTPState) Clear() {
	s.ClearCode()
	s.Attempts = 0
	s.LockedUntil = nil
}
