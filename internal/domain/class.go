package domain

import (
	"time"

	"github.com/google/uuid"
)

type ClassStatus string

const (
	ClassStatusScheduled ClassStatus = "scheduled"
	ClassStatusOngoing   ClassStatus = "ongoing"
	ClassStatusCompleted ClassStatus = "completed"
	ClassStatusCancelled ClassStatus = "cancelled"
)

func (s ClassStatus) Valid() bool {
	switch s {
	case ClassStatusScheduled, ClassStatusOngoing, ClassStatusCompleted, ClassStatusCancelled:
		return true
	}
	return false
}

type Class struct {
	ID           uuid.UUID   `db:"id" json:"id"`
	Title        string      `db:"title" json:"title"`
	Description  *string     `db:"description" json:"description,omitempty"`
	Batch        string      `db:"batch" json:"batch"`
	InstructorID uuid.UUID   `db:"instructor_id" json:"instructorId"`
	StartTime    time.Time   `db:"start_time" json:"startTime"`
	EndTime      time.Time   `db:"end_time" json:"endTime"`
	MeetingLink  *string     `db:"meeting_link" json:"meetingLink,omitempty"`
	Cancelled    bool        `db:"cancelled" json:"cancelled"`
	CreatedAt    time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updatedAt"`
	Status       ClassStatus `db:"-" json:"status"`
}

// DeriveStatus computes the class status from the wall clock.
func (c *Class) DeriveStatus(now time.Time) ClassStatus {
	switch {
	case c.Cancelled:
		return ClassStatusCancelled
	case now.Before(c.StartTime):
		return ClassStatusScheduled
	case now.Before(c.EndTime):
		return ClassStatusOngoing
	default:
		return ClassStatusCompleted
	}
}

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
)

func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate:
		return true
	}
	return false
}

type AttendanceRecord struct {
	ClassID   uuid.UUID        `db:"class_id" json:"classId"`
	StudentID uuid.UUID        `db:"student_id" json:"studentId"`
	Status    AttendanceStatus `db:"status" json:"status"`
	MarkedAt  time.Time        `db:"marked_at" json:"markedAt"`
	MarkedBy  uuid.UUID        `db:"marked_by" json:"markedBy"`

	StudentName      string `db:"student_name" json:"studentName,omitempty"`
	EnrollmentNumber string `db:"enrollment_number" json:"enrollmentNumber,omitempty"`
	ClassTitle       string `db:"class_title" json:"classTitle,omitempty"`
}

type ClassFilter struct {
	InstructorID *uuid.UUID
	Batches      []string
	From         *time.Time
	To           *time.Time
}
