package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type QuestionType string

const (
	QuestionSingleChoice   QuestionType = "single_choice"
	QuestionMultipleSelect QuestionType = "multiple_select"
	QuestionText           QuestionType = "text"
	QuestionFileUpload     QuestionType = "file_upload"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionSingleChoice, QuestionMultipleSelect, QuestionText, QuestionFileUpload:
		return true
	}
	return false
}

// IsObjective reports whether answers of this type are auto-graded.
func (t QuestionType) IsObjective() bool {
	return t == QuestionSingleChoice || t == QuestionMultipleSelect
}

const (
	ReasonNotActive      = "assignment is not active"
	ReasonNotPublished   = "assignment is not published"
	ReasonLocked         = "assignment is locked"
	ReasonDeadlinePassed = "submission deadline has passed"
)

const minChoiceOptions = 2

type QuestionOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

type Question struct {
	ID      uuid.UUID        `json:"id"`
	Type    QuestionType     `json:"type"`
	Prompt  string           `json:"prompt"`
	Points  float64          `json:"points"`
	Options []QuestionOption `json:"options,omitempty"`
}

// CorrectIndexes returns the indexes of options flagged correct, in order.
func (q Question) CorrectIndexes() []int {
	var out []int
	for i, opt := range q.Options {
		if opt.IsCorrect {
			out = append(out, i)
		}
	}
	return out
}

func (q Question) Validate() error {
	if !q.Type.Valid() {
		return fmt.Errorf("unsupported question type %q", q.Type)
	}
	if q.Prompt == "" {
		return errors.New("question prompt is required")
	}
	if q.Points <= 0 {
		return errors.New("question points must be greater than zero")
	}
	if !q.Type.IsObjective() {
		if len(q.Options) > 0 {
			return fmt.Errorf("%s questions cannot have options", q.Type)
		}
		return nil
	}
	if len(q.Options) < minChoiceOptions {
		return fmt.Errorf("%s questions need at least %d options", q.Type, minChoiceOptions)
	}
	for i, opt := range q.Options {
		if opt.Text == "" {
			return fmt.Errorf("option %d text is required", i)
		}
	}
	correct := len(q.CorrectIndexes())
	if q.Type == QuestionSingleChoice && correct != 1 {
		return errors.New("single choice questions need exactly one correct option")
	}
	if q.Type == QuestionMultipleSelect && correct == 0 {
		return errors.New("multiple select questions need at least one correct option")
	}
	return nil
}

type Questions []Question

func (q Questions) Value() (driver.Value, error) {
	if q == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(q)
}

func (q *Questions) Scan(value any) error {
	if value == nil {
		*q = Questions{}
		return nil
	}
	data, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("questions: %w", err)
	}
	return json.Unmarshal(data, q)
}

func (q Questions) TotalPoints() float64 {
	var total float64
	for _, question := range q {
		total += question.Points
	}
	return total
}

type AssignmentSettings struct {
	AllowMultipleAttempts bool `json:"allowMultipleAttempts"`
	MaxAttempts           int  `json:"maxAttempts"`
	ShowCorrectAnswers    bool `json:"showCorrectAnswers"`
}

// AttemptLimit is the number of submissions a student may create.
func (s AssignmentSettings) AttemptLimit() int {
	if !s.AllowMultipleAttempts || s.MaxAttempts < 1 {
		return 1
	}
	return s.MaxAttempts
}

func (s AssignmentSettings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *AssignmentSettings) Scan(value any) error {
	if value == nil {
		*s = AssignmentSettings{}
		return nil
	}
	data, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("assignment settings: %w", err)
	}
	return json.Unmarshal(data, s)
}

type Assignment struct {
	ID           uuid.UUID          `db:"id" json:"id"`
	Title        string             `db:"title" json:"title"`
	Description  *string            `db:"description" json:"description,omitempty"`
	Batch        string             `db:"batch" json:"batch"`
	InstructorID uuid.UUID          `db:"instructor_id" json:"instructorId"`
	Questions    Questions          `db:"questions" json:"questions"`
	TotalPoints  float64            `db:"total_points" json:"totalPoints"`
	DueDate      time.Time          `db:"due_date" json:"dueDate"`
	IsPublished  bool               `db:"is_published" json:"isPublished"`
	IsLocked     bool               `db:"is_locked" json:"isLocked"`
	IsActive     bool               `db:"is_active" json:"isActive"`
	Settings     AssignmentSettings `db:"settings" json:"settings"`
	PublishedAt  *time.Time         `db:"published_at" json:"publishedAt,omitempty"`
	CreatedAt    time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `db:"updated_at" json:"updatedAt"`
}

type AssignmentFilter struct {
	InstructorID    *uuid.UUID
	Batches         []string
	PublishedOnly   bool
	IncludeInactive bool
}

// CanSubmit reports whether a submission is accepted at now, and if not, why.
func (a *Assignment) CanSubmit(now time.Time) (bool, string) {
	switch {
	case !a.IsActive:
		return false, ReasonNotActive
	case !a.IsPublished:
		return false, ReasonNotPublished
	case a.IsLocked:
		return false, ReasonLocked
	case !now.Before(a.DueDate):
		return false, ReasonDeadlinePassed
	}
	return true, ""
}

func (a *Assignment) Question(id uuid.UUID) (*Question, bool) {
	for i := range a.Questions {
		if a.Questions[i].ID == id {
			return &a.Questions[i], true
		}
	}
	return nil, false
}

func (a *Assignment) RecomputeTotal() {
	a.TotalPoints = a.Questions.TotalPoints()
}

// ForStudent returns a copy safe to show a student: correct-option flags are
// stripped unless the assignment reveals them and the deadline has passed.
func (a Assignment) ForStudent(now time.Time) Assignment {
	reveal := a.Settings.ShowCorrectAnswers && !now.Before(a.DueDate)
	questions := make(Questions, len(a.Questions))
	for i, q := range a.Questions {
		opts := make([]QuestionOption, len(q.Options))
		for j, opt := range q.Options {
			opts[j] = QuestionOption{Text: opt.Text, IsCorrect: reveal && opt.IsCorrect}
		}
		q.Options = opts
		questions[i] = q
	}
	a.Questions = questions
	return a
}

func jsonBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported source type %T", value)
	}
}
