package domain

import "github.com/google/uuid"

type PrincipalKind string

const (
	PrincipalStudent    PrincipalKind = "student"
	PrincipalInstructor PrincipalKind = "instructor"
)

// Principal is the authenticated caller of a request. Exactly one of
// Student or Instructor is set, matching Kind.
type Principal struct {
	Kind       PrincipalKind
	ID         uuid.UUID
	TokenID    string
	Student    *Student
	Instructor *Instructor
}

func (p *Principal) IsStudent() bool {
	return p != nil && p.Kind == PrincipalStudent && p.Student != nil
}

func (p *Principal) IsInstructor() bool {
	return p != nil && p.Kind == PrincipalInstructor && p.Instructor != nil
}

func (p *Principal) IsAdmin() bool {
	return p.IsInstructor() && p.Instructor.IsAdmin
}
