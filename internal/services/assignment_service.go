package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/smart-grading/grading-service/internal/events"
	"github.com/smart-grading/grading-service/internal/models"
	"github.com/smart-grading/grading-service/internal/repositories"
	"github.com/smart-grading/grading-service/internal/validator"
)

// ===== ASSIGNMENT SERVICE =====

type assignmentService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewAssignmentService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) AssignmentService {
	return &assignmentService{
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
	}
}

func (s *assignmentService) CreateAssignment(ctx context.Context, teacherID uint, req *validator.AssignmentCreateRequest) (*models.Assignment, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	questions, totalPoints, err := buildQuestions(req.Questions, 0)
	if err != nil {
		return nil, err
	}

	assignment := &models.Assignment{
		TeacherID:   teacherID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		TotalPoints: totalPoints,
		DueDate:     req.DueDate,
		IsActive:    true,
		Questions:   questions,
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return txRepo.Assignment().Create(ctx, assignment)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}

	s.logger.InfoContext(ctx, "Assignment created",
		"assignment_id", assignment.ID,
		"teacher_id", teacherID,
		"questions", len(assignment.Questions),
		"total_points", assignment.TotalPoints)

	s.publishEvent(ctx, events.TypeAssignmentCreated, map[string]interface{}{
		"assignment_id": assignment.ID,
		"teacher_id":    teacherID,
		"total_points":  assignment.TotalPoints,
	})

	return assignment, nil
}

func (s *assignmentService) AddQuestions(ctx context.Context, teacherID, assignmentID uint, reqs []validator.QuestionCreateRequest) (*models.Assignment, error) {
	if len(reqs) == 0 {
		return nil, NewValidationError("questions", "at least one question is required")
	}
	for i := range reqs {
		if err := s.validator.Validate(&reqs[i]); err != nil {
			return nil, err
		}
	}

	var assignment *models.Assignment
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		existing, err := txRepo.Assignment().GetByIDWithQuestions(ctx, assignmentID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAssignmentNotFound
			}
			return err
		}
		if existing.TeacherID != teacherID {
			return NewPermissionError("only the owning teacher can modify an assignment")
		}

		frozen, err := txRepo.Assignment().HasSubmissions(ctx, assignmentID)
		if err != nil {
			return err
		}
		if frozen {
			return ErrAssignmentFrozen
		}

		questions, addedPoints, err := buildQuestions(reqs, len(existing.Questions))
		if err != nil {
			return err
		}
		batch := make([]*models.Question, len(questions))
		for i := range questions {
			questions[i].AssignmentID = assignmentID
			batch[i] = &questions[i]
		}
		if err := txRepo.Question().CreateBatch(ctx, batch); err != nil {
			return err
		}

		existing.TotalPoints += addedPoints
		if err := txRepo.Assignment().Update(ctx, existing); err != nil {
			return err
		}
		existing.Questions = append(existing.Questions, questions...)
		assignment = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Questions added",
		"assignment_id", assignmentID,
		"added", len(reqs),
		"total_points", assignment.TotalPoints)

	return assignment, nil
}

func (s *assignmentService) GetAssignment(ctx context.Context, id uint) (*models.Assignment, error) {
	assignment, err := s.repo.Assignment().GetByIDWithQuestions(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return assignment, nil
}

func (s *assignmentService) ListAssignments(ctx context.Context, filters repositories.AssignmentFilters) ([]*models.Assignment, int64, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 50
	}
	return s.repo.Assignment().List(ctx, filters)
}

func (s *assignmentService) DeactivateAssignment(ctx context.Context, teacherID, id uint) error {
	assignment, err := s.repo.Assignment().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAssignmentNotFound
		}
		return err
	}
	if assignment.TeacherID != teacherID {
		return NewPermissionError("only the owning teacher can deactivate an assignment")
	}
	return s.repo.Assignment().Deactivate(ctx, id)
}

func (s *assignmentService) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(eventType, data)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event", "type", eventType, "error", err)
	}
}

// ===== QUESTION VALIDATION =====

// buildQuestions turns validated requests into question models, enforcing
// the per-kind rules. startPosition offsets positions when appending to an
// existing question set.
func buildQuestions(reqs []validator.QuestionCreateRequest, startPosition int) ([]models.Question, int, error) {
	questions := make([]models.Question, 0, len(reqs))
	totalPoints := 0

	for i, qr := range reqs {
		question, err := buildQuestion(qr, i)
		if err != nil {
			return nil, 0, err
		}
		question.Position = startPosition + i
		totalPoints += question.Points
		questions = append(questions, *question)
	}
	return questions, totalPoints, nil
}

func buildQuestion(qr validator.QuestionCreateRequest, index int) (*models.Question, error) {
	field := func(name string) string {
		return fmt.Sprintf("questions[%d].%s", index, name)
	}

	question := &models.Question{
		Kind:   qr.Kind,
		Prompt: strings.TrimSpace(qr.Prompt),
		Points: qr.Points,
	}

	switch qr.Kind {
	case models.MultipleChoice:
		if len(qr.Choices) < 2 {
			return nil, NewValidationError(field("choices"), "multiple choice questions need at least 2 choices")
		}
		correct := strings.TrimSpace(qr.CorrectAnswer)
		if correct == "" {
			return nil, NewValidationError(field("correct_answer"), "a correct choice label is required")
		}
		choices := make([]models.Choice, 0, len(qr.Choices))
		seen := make(map[string]bool, len(qr.Choices))
		found := false
		for _, c := range qr.Choices {
			label := strings.TrimSpace(c.Label)
			key := strings.ToUpper(label)
			if seen[key] {
				return nil, NewValidationError(field("choices"), fmt.Sprintf("duplicate choice label %q", label))
			}
			seen[key] = true
			if strings.EqualFold(label, correct) {
				found = true
			}
			choices = append(choices, models.Choice{Label: label, Text: strings.TrimSpace(c.Text)})
		}
		if !found {
			return nil, NewValidationError(field("correct_answer"), fmt.Sprintf("correct answer %q is not among the choices", correct))
		}
		raw, err := json.Marshal(choices)
		if err != nil {
			return nil, fmt.Errorf("failed to encode choices: %w", err)
		}
		question.Choices = raw
		question.CorrectAnswer = correct

	case models.TrueFalse:
		correct := strings.ToLower(strings.TrimSpace(qr.CorrectAnswer))
		if correct != "true" && correct != "false" {
			return nil, NewValidationError(field("correct_answer"), "correct answer must be true or false")
		}
		raw, err := json.Marshal(models.TrueFalseChoices)
		if err != nil {
			return nil, fmt.Errorf("failed to encode choices: %w", err)
		}
		question.Choices = raw
		question.CorrectAnswer = correct

	case models.Subjective:
		if strings.TrimSpace(qr.CorrectAnswer) != "" {
			return nil, NewValidationError(field("correct_answer"), "subjective questions cannot have a correct answer")
		}
		if len(qr.Choices) > 0 {
			return nil, NewValidationError(field("choices"), "subjective questions cannot have choices")
		}

	default:
		return nil, NewValidationError(field("kind"), "must be multiple_choice, true_false or subjective")
	}

	return question, nil
}
