package domain

// GradeResult is the outcome of automatic grading.
type GradeResult struct {
	Answers Answers
	// Score is nil when the assignment has no objective question.
	Score       *float64
	FullyGraded bool
}

// AutoGrade scores objective answers. Single choice earns full points only
// for the correct option; multiple select only for the exact correct set.
// Text and file answers are left for an instructor.
func AutoGrade(a *Assignment, answers Answers) GradeResult {
	graded := make(Answers, len(answers))
	copy(graded, answers)

	hasObjective := false
	for _, q := range a.Questions {
		if q.Type.IsObjective() {
			hasObjective = true
			break
		}
	}

	var total float64
	allObjective := len(graded) > 0
	for i := range graded {
		ans := &graded[i]
		q, ok := a.Question(ans.QuestionID)
		if !ok || !q.Type.IsObjective() {
			allObjective = false
			ans.PointsAwarded = nil
			continue
		}
		points := 0.0
		if answerIsCorrect(q, ans) {
			points = q.Points
		}
		ans.PointsAwarded = &points
		total += points
	}

	res := GradeResult{Answers: graded}
	if hasObjective {
		res.Score = &total
		res.FullyGraded = allObjective
	}
	return res
}

// Status is the submission status implied by the grading result.
func (r GradeResult) Status() SubmissionStatus {
	if r.FullyGraded {
		return SubmissionAutoGraded
	}
	return SubmissionSubmitted
}

func answerIsCorrect(q *Question, ans *Answer) bool {
	correct := q.CorrectIndexes()
	switch q.Type {
	case QuestionSingleChoice:
		return ans.SelectedOption != nil && len(correct) == 1 && *ans.SelectedOption == correct[0]
	case QuestionMultipleSelect:
		if len(correct) == 0 {
			return false
		}
		selected := make(map[int]struct{}, len(ans.SelectedOptions))
		for _, idx := range ans.SelectedOptions {
			selected[idx] = struct{}{}
		}
		if len(selected) != len(correct) {
			return false
		}
		for _, idx := range correct {
			if _, ok := selected[idx]; !ok {
				return false
			}
		}
		return true
	}
	return false
}
