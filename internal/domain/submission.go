package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SubmissionStatus string

const (
	SubmissionSubmitted  SubmissionStatus = "submitted"
	SubmissionAutoGraded SubmissionStatus = "auto_graded"
	SubmissionGraded     SubmissionStatus = "graded"
)

type Answer struct {
	QuestionID      uuid.UUID    `json:"questionId"`
	AnswerType      QuestionType `json:"answerType"`
	SelectedOption  *int         `json:"selectedOption,omitempty"`
	SelectedOptions []int        `json:"selectedOptions,omitempty"`
	TextAnswer      *string      `json:"textAnswer,omitempty"`
	FileURL         *string      `json:"fileUrl,omitempty"`
	PointsAwarded   *float64     `json:"pointsAwarded,omitempty"`
}

type Answers []Answer

func (a Answers) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

func (a *Answers) Scan(value any) error {
	if value == nil {
		*a = Answers{}
		return nil
	}
	data, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("answers: %w", err)
	}
	return json.Unmarshal(data, a)
}

type Submission struct {
	ID            uuid.UUID        `db:"id" json:"id"`
	AssignmentID  uuid.UUID        `db:"assignment_id" json:"assignmentId"`
	StudentID     uuid.UUID        `db:"student_id" json:"studentId"`
	AttemptNumber int              `db:"attempt_number" json:"attemptNumber"`
	Answers       Answers          `db:"answers" json:"answers"`
	SubmittedAt   time.Time        `db:"submitted_at" json:"submittedAt"`
	Score         *float64         `db:"score" json:"score"`
	Feedback      *string          `db:"feedback" json:"feedback,omitempty"`
	GradedAt      *time.Time       `db:"graded_at" json:"gradedAt,omitempty"`
	GradedBy      *uuid.UUID       `db:"graded_by" json:"gradedBy,omitempty"`
	Status        SubmissionStatus `db:"status" json:"status"`

	StudentName      string `db:"student_name" json:"studentName,omitempty"`
	EnrollmentNumber string `db:"enrollment_number" json:"enrollmentNumber,omitempty"`
}

// ValidateAnswers checks answers against the assignment's questions: each
// question is answered at most once, with a matching type and in-range
// option indexes. Multiple-select selections are deduplicated in place.
func (a *Assignment) ValidateAnswers(answers Answers) error {
	seen := make(map[uuid.UUID]struct{}, len(answers))
	for i := range answers {
		ans := &answers[i]
		q, ok := a.Question(ans.QuestionID)
		if !ok {
			return fmt.Errorf("question %s does not belong to this assignment", ans.QuestionID)
		}
		if _, dup := seen[ans.QuestionID]; dup {
			return fmt.Errorf("question %s answered more than once", ans.QuestionID)
		}
		seen[ans.QuestionID] = struct{}{}
		if ans.AnswerType == "" {
			ans.AnswerType = q.Type
		}
		if ans.AnswerType != q.Type {
			return fmt.Errorf("question %s expects a %s answer", ans.QuestionID, q.Type)
		}
		switch q.Type {
		case QuestionSingleChoice:
			if ans.SelectedOption == nil {
				return fmt.Errorf("question %s requires selectedOption", ans.QuestionID)
			}
			if *ans.SelectedOption < 0 || *ans.SelectedOption >= len(q.Options) {
				return fmt.Errorf("question %s option %d out of range", ans.QuestionID, *ans.SelectedOption)
			}
		case QuestionMultipleSelect:
			deduped := make([]int, 0, len(ans.SelectedOptions))
			picked := make(map[int]struct{}, len(ans.SelectedOptions))
			for _, idx := range ans.SelectedOptions {
				if idx < 0 || idx >= len(q.Options) {
					return fmt.Errorf("question %s option %d out of range", ans.QuestionID, idx)
				}
				if _, ok := picked[idx]; ok {
					continue
				}
				picked[idx] = struct{}{}
				deduped = append(deduped, idx)
			}
			ans.SelectedOptions = deduped
		case QuestionFileUpload:
			if ans.FileURL == nil || *ans.FileURL == "" {
				return fmt.Errorf("question %s requires fileUrl", ans.QuestionID)
			}
		}
		ans.PointsAwarded = nil
	}
	return nil
}
