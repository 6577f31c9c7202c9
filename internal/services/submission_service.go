package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/smart-grading/grading-service/internal/events"
	"github.com/smart-grading/grading-service/internal/models"
	"github.com/smart-grading/grading-service/internal/repositories"
	"github.com/smart-grading/grading-service/internal/validator"
)

const (
	feedbackCorrect   = "Correct! Well done."
	feedbackIncorrect = "Incorrect. The correct answer is %s."
)

// ===== SUBMISSION SERVICE =====

type submissionService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewSubmissionService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) SubmissionService {
	return &submissionService{
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
	}
}

// Submit scores a student's answer set and persists the submission with all
// of its answer rows in one transaction. A second submit for the same
// assignment fails unless a teacher has reopened the existing submission, in
// which case the answers are replaced in place.
func (s *submissionService) Submit(ctx context.Context, studentID uint, req *validator.SubmitRequest) (*SubmissionResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var submission *models.Submission
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		assignment, err := txRepo.Assignment().GetByIDWithQuestions(ctx, req.AssignmentID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAssignmentNotFound
			}
			return err
		}
		if !assignment.IsActive {
			return ErrAssignmentInactive
		}
		if len(assignment.Questions) == 0 {
			return NewValidationError("assignment_id", "assignment has no questions")
		}

		if err := checkAnswerKeys(assignment.Questions, req.Answers); err != nil {
			return err
		}

		existing, err := txRepo.Submission().GetByAssignmentAndStudent(ctx, req.AssignmentID, studentID)
		switch {
		case err != nil && !repositories.IsNotFoundError(err):
			return err
		case err == nil && existing.Status != models.StatusReopened:
			return ErrDuplicateSubmission
		case err != nil:
			existing = nil
		}

		answers, totalScore, hasSubjective := scoreAnswers(assignment.Questions, req.Answers)
		status := models.StatusFullyGraded
		if hasSubjective {
			status = models.StatusPendingManual
		}

		if existing != nil {
			// Resubmission of a reopened submission replaces the old
			// answers on the same row.
			if err := txRepo.Answer().DeleteBySubmission(ctx, existing.ID); err != nil {
				return err
			}
			existing.SubmittedAt = time.Now()
			existing.TotalScore = totalScore
			existing.MaxScore = assignment.TotalPoints
			existing.Status = status
			existing.SubmissionCount++
			if err := txRepo.Submission().Update(ctx, existing); err != nil {
				return err
			}
			submission = existing
		} else {
			submission = &models.Submission{
				AssignmentID:    req.AssignmentID,
				StudentID:       studentID,
				SubmittedAt:     time.Now(),
				TotalScore:      totalScore,
				MaxScore:        assignment.TotalPoints,
				Status:          status,
				SubmissionCount: 1,
			}
			if err := txRepo.Submission().Create(ctx, submission); err != nil {
				// Another request won the unique-constraint race.
				if repositories.IsDuplicateError(err) {
					return ErrDuplicateSubmission
				}
				return err
			}
		}

		for i := range answers {
			answers[i].SubmissionID = submission.ID
		}
		if err := txRepo.Answer().CreateBatch(ctx, answers); err != nil {
			return err
		}

		submission.Assignment = *assignment
		submission.Answers = make([]models.Answer, len(answers))
		for i, a := range answers {
			submission.Answers[i] = *a
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Submission scored",
		"submission_id", submission.ID,
		"assignment_id", submission.AssignmentID,
		"student_id", studentID,
		"total_score", submission.TotalScore,
		"status", submission.Status)

	s.publishEvent(ctx, events.TypeSubmissionGraded, map[string]interface{}{
		"submission_id": submission.ID,
		"assignment_id": submission.AssignmentID,
		"student_id":    studentID,
		"total_score":   submission.TotalScore,
		"max_score":     submission.MaxScore,
		"status":        submission.Status,
	})

	return buildSubmissionResult(submission, submission.Assignment.Questions), nil
}

func (s *submissionService) GetSubmission(ctx context.Context, requesterID uint, requesterRole models.UserRole, submissionID uint) (*SubmissionResult, error) {
	submission, err := s.repo.Submission().GetByIDWithAnswers(ctx, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	switch requesterRole {
	case models.RoleStudent:
		if submission.StudentID != requesterID {
			return nil, NewPermissionError("students can only view their own submissions")
		}
	case models.RoleTeacher:
		if submission.Assignment.TeacherID != requesterID {
			return nil, NewPermissionError("teachers can only view submissions to their own assignments")
		}
	}

	return buildSubmissionResult(submission, submission.Assignment.Questions), nil
}

func (s *submissionService) ListByAssignment(ctx context.Context, teacherID, assignmentID uint) ([]*SubmissionResult, error) {
	assignment, err := s.repo.Assignment().GetByID(ctx, assignmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	if assignment.TeacherID != teacherID {
		return nil, NewPermissionError("teachers can only list submissions to their own assignments")
	}

	submissions, err := s.repo.Submission().GetByAssignment(ctx, assignmentID, repositories.SubmissionFilters{})
	if err != nil {
		return nil, err
	}
	results := make([]*SubmissionResult, len(submissions))
	for i, sub := range submissions {
		results[i] = buildSubmissionResult(sub, nil)
	}
	return results, nil
}

func (s *submissionService) ListByStudent(ctx context.Context, studentID uint) ([]*SubmissionResult, error) {
	submissions, err := s.repo.Submission().GetByStudent(ctx, studentID, repositories.SubmissionFilters{})
	if err != nil {
		return nil, err
	}
	results := make([]*SubmissionResult, len(submissions))
	for i, sub := range submissions {
		results[i] = buildSubmissionResult(sub, nil)
	}
	return results, nil
}

// GradeSubjective records a teacher's score for one subjective answer and
// recomputes the submission total. The submission flips to fully_graded
// exactly when its last ungraded subjective answer receives a grade.
func (s *submissionService) GradeSubjective(ctx context.Context, teacherID uint, req *validator.GradeSubjectiveRequest) (*SubmissionResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var submission *models.Submission
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		sub, err := txRepo.Submission().GetByIDWithAnswers(ctx, req.SubmissionID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrSubmissionNotFound
			}
			return err
		}
		if sub.Assignment.TeacherID != teacherID {
			return NewPermissionError("only the owning teacher can grade submissions")
		}
		if sub.Status == models.StatusReopened {
			return NewValidationError("submission_id", "reopened submissions cannot be graded")
		}

		answer := findAnswer(sub.Answers, req.QuestionID)
		if answer == nil {
			return ErrQuestionNotFound
		}
		if answer.Question.Kind != models.Subjective {
			return NewValidationError("question_id", "only subjective answers are graded manually")
		}
		if req.AwardedPoints < 0 || req.AwardedPoints > float64(answer.Question.Points) {
			return NewValidationError("awarded_points",
				fmt.Sprintf("must be between 0 and %d", answer.Question.Points))
		}

		now := time.Now()
		isCorrect := req.AwardedPoints == float64(answer.Question.Points)
		answer.AwardedPoints = req.AwardedPoints
		answer.IsCorrect = &isCorrect
		answer.Feedback = req.Feedback
		answer.GradedBy = &teacherID
		answer.GradedAt = &now
		if err := txRepo.Answer().Update(ctx, answer); err != nil {
			return err
		}

		total := 0.0
		allGraded := true
		for i := range sub.Answers {
			a := &sub.Answers[i]
			total += a.AwardedPoints
			if a.Question.Kind == models.Subjective && a.GradedAt == nil {
				allGraded = false
			}
		}
		sub.TotalScore = total
		if allGraded {
			sub.Status = models.StatusFullyGraded
		}
		if err := txRepo.Submission().Update(ctx, sub); err != nil {
			return err
		}
		submission = sub
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Subjective answer graded",
		"submission_id", submission.ID,
		"question_id", req.QuestionID,
		"awarded_points", req.AwardedPoints,
		"status", submission.Status)

	eventType := events.TypeSubjectiveGraded
	if submission.Status == models.StatusFullyGraded {
		eventType = events.TypeSubmissionFullyGraded
	}
	s.publishEvent(ctx, eventType, map[string]interface{}{
		"submission_id": submission.ID,
		"question_id":   req.QuestionID,
		"teacher_id":    teacherID,
		"total_score":   submission.TotalScore,
		"status":        submission.Status,
	})

	return buildSubmissionResult(submission, submission.Assignment.Questions), nil
}

// Reopen marks a submission as replaceable. The next Submit by the same
// student rescores it in place.
func (s *submissionService) Reopen(ctx context.Context, teacherID, submissionID uint) error {
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		sub, err := txRepo.Submission().GetByIDWithAnswers(ctx, submissionID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrSubmissionNotFound
			}
			return err
		}
		if sub.Assignment.TeacherID != teacherID {
			return NewPermissionError("only the owning teacher can reopen submissions")
		}
		if sub.Status == models.StatusReopened {
			return NewValidationError("submission_id", "submission is already reopened")
		}

		now := time.Now()
		sub.Status = models.StatusReopened
		sub.ReopenedAt = &now
		sub.ReopenedBy = &teacherID
		return txRepo.Submission().Update(ctx, sub)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Submission reopened",
		"submission_id", submissionID,
		"teacher_id", teacherID)

	s.publishEvent(ctx, events.TypeSubmissionReopened, map[string]interface{}{
		"submission_id": submissionID,
		"teacher_id":    teacherID,
	})
	return nil
}

func (s *submissionService) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(eventType, data)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event", "type", eventType, "error", err)
	}
}

// ===== SCORING =====

// checkAnswerKeys rejects responses to question ids the assignment does not
// contain.
func checkAnswerKeys(questions []models.Question, answers map[uint]string) error {
	known := make(map[uint]bool, len(questions))
	for _, q := range questions {
		known[q.ID] = true
	}
	for id := range answers {
		if !known[id] {
			return NewValidationError("answers", fmt.Sprintf("question %d does not belong to this assignment", id))
		}
	}
	return nil
}

// scoreAnswers produces one answer row per assignment question. Objective
// responses earn full points on a trimmed, case-insensitive match and 0
// otherwise; missing responses become blank rows. Subjective answers stay
// ungraded.
func scoreAnswers(questions []models.Question, responses map[uint]string) ([]*models.Answer, float64, bool) {
	answers := make([]*models.Answer, 0, len(questions))
	total := 0.0
	hasSubjective := false

	for _, q := range questions {
		response := strings.TrimSpace(responses[q.ID])
		answer := &models.Answer{
			QuestionID: q.ID,
			Response:   response,
			Question:   q,
		}

		if q.Kind.IsObjective() {
			correct := response != "" && strings.EqualFold(response, strings.TrimSpace(q.CorrectAnswer))
			answer.IsCorrect = &correct
			feedback := fmt.Sprintf(feedbackIncorrect, q.CorrectAnswer)
			if correct {
				answer.AwardedPoints = float64(q.Points)
				total += answer.AwardedPoints
				feedback = feedbackCorrect
			}
			answer.Feedback = &feedback
		} else {
			hasSubjective = true
		}
		answers = append(answers, answer)
	}
	return answers, total, hasSubjective
}

func findAnswer(answers []models.Answer, questionID uint) *models.Answer {
	for i := range answers {
		if answers[i].QuestionID == questionID {
			return &answers[i]
		}
	}
	return nil
}

// buildSubmissionResult flattens a submission into its API shape. questions
// supplies prompt metadata when the answers were not loaded with their
// Question relation.
func buildSubmissionResult(sub *models.Submission, questions []models.Question) *SubmissionResult {
	result := &SubmissionResult{
		SubmissionID:    sub.ID,
		AssignmentID:    sub.AssignmentID,
		AssignmentTitle: sub.Assignment.Title,
		StudentID:       sub.StudentID,
		StudentName:     sub.Student.Name,
		SubmittedAt:     sub.SubmittedAt,
		TotalScore:      sub.TotalScore,
		MaxScore:        sub.MaxScore,
		Status:          sub.Status,
		SubmissionCount: sub.SubmissionCount,
	}

	byID := make(map[uint]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	for _, a := range sub.Answers {
		q := a.Question
		if q.ID == 0 {
			q = byID[a.QuestionID]
		}
		result.Questions = append(result.Questions, QuestionResult{
			QuestionID:    a.QuestionID,
			Position:      q.Position,
			Kind:          q.Kind,
			Prompt:        q.Prompt,
			Response:      a.Response,
			IsCorrect:     a.IsCorrect,
			AwardedPoints: a.AwardedPoints,
			MaxPoints:     q.Points,
			Feedback:      a.Feedback,
		})
	}
	sort.Slice(result.Questions, func(i, j int) bool {
		return result.Questions[i].Position < result.Questions[j].Position
	})
	return result
}
