package services

import (
	"context"
	"errors"
	"testing"

	"github.com/smart-grading/grading-service/internal/models"
	"github.com/smart-grading/grading-service/internal/validator"
)

func mcQuestion(prompt, correct string, points int, labels ...string) validator.QuestionCreateRequest {
	choices := make([]validator.ChoiceRequest, len(labels))
	for i, label := range labels {
		choices[i] = validator.ChoiceRequest{Label: label, Text: "Option " + label}
	}
	return validator.QuestionCreateRequest{
		Kind:          models.MultipleChoice,
		Prompt:        prompt,
		Choices:       choices,
		CorrectAnswer: correct,
		Points:        points,
	}
}

func tfQuestion(prompt, correct string, points int) validator.QuestionCreateRequest {
	return validator.QuestionCreateRequest{
		Kind:          models.TrueFalse,
		Prompt:        prompt,
		CorrectAnswer: correct,
		Points:        points,
	}
}

func subjectiveQuestion(prompt string, points int) validator.QuestionCreateRequest {
	return validator.QuestionCreateRequest{
		Kind:   models.Subjective,
		Prompt: prompt,
		Points: points,
	}
}

func TestAssignmentService_CreateAssignment(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.addTeacher(t, "Ms Rivera")
	ctx := context.Background()

	t.Run("creates assignment with mixed questions", func(t *testing.T) {
		req := &validator.AssignmentCreateRequest{
			Title: "Unit 3 Quiz",
			Questions: []validator.QuestionCreateRequest{
				mcQuestion("Pick B", "B", 5, "A", "B", "C"),
				tfQuestion("Sky is blue", "true", 5),
				subjectiveQuestion("Explain photosynthesis", 10),
			},
		}

		assignment, err := env.assignments.CreateAssignment(ctx, teacher.ID, req)
		if err != nil {
			t.Fatalf("Failed to create assignment: %v", err)
		}
		if assignment.TotalPoints != 20 {
			t.Errorf("Expected total points 20, got %d", assignment.TotalPoints)
		}
		if len(assignment.Questions) != 3 {
			t.Fatalf("Expected 3 questions, got %d", len(assignment.Questions))
		}
		for i, q := range assignment.Questions {
			if q.Position != i {
				t.Errorf("Question %d has position %d", i, q.Position)
			}
		}

		// True/false questions get the canonical choice pair.
		choices, err := assignment.Questions[1].ChoiceList()
		if err != nil {
			t.Fatalf("Failed to decode choices: %v", err)
		}
		if len(choices) != 2 || choices[0].Label != "true" || choices[1].Label != "false" {
			t.Errorf("Unexpected true/false choices: %+v", choices)
		}
	})

	t.Run("rejects invalid question sets", func(t *testing.T) {
		cases := []struct {
			name     string
			question validator.QuestionCreateRequest
		}{
			{"mc with one choice", mcQuestion("Pick", "A", 5, "A")},
			{"mc correct answer not in choices", mcQuestion("Pick", "D", 5, "A", "B")},
			{"mc duplicate labels", mcQuestion("Pick", "A", 5, "A", "a")},
			{"tf with non boolean answer", tfQuestion("Sky is blue", "yes", 5)},
			{"subjective with correct answer", validator.QuestionCreateRequest{
				Kind: models.Subjective, Prompt: "Explain", CorrectAnswer: "42", Points: 5,
			}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				req := &validator.AssignmentCreateRequest{
					Title:     "Bad quiz",
					Questions: []validator.QuestionCreateRequest{tc.question},
				}
				_, err := env.assignments.CreateAssignment(ctx, teacher.ID, req)
				if !IsValidationError(err) {
					t.Errorf("Expected validation error, got %v", err)
				}
			})
		}
	})

	t.Run("rejects empty question set", func(t *testing.T) {
		_, err := env.assignments.CreateAssignment(ctx, teacher.ID, &validator.AssignmentCreateRequest{
			Title: "Empty quiz",
		})
		if err == nil {
			t.Error("Expected error for assignment without questions")
		}
	})
}

func TestAssignmentService_AddQuestions(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.addTeacher(t, "Ms Rivera")
	student := env.addStudent(t, "Sam Lee", teacher.ID)
	ctx := context.Background()

	assignment, err := env.assignments.CreateAssignment(ctx, teacher.ID, &validator.AssignmentCreateRequest{
		Title:     "Quiz",
		Questions: []validator.QuestionCreateRequest{mcQuestion("Pick B", "B", 5, "A", "B")},
	})
	if err != nil {
		t.Fatalf("Failed to create assignment: %v", err)
	}

	t.Run("appends before any submission", func(t *testing.T) {
		updated, err := env.assignments.AddQuestions(ctx, teacher.ID, assignment.ID,
			[]validator.QuestionCreateRequest{tfQuestion("Sky is blue", "true", 5)})
		if err != nil {
			t.Fatalf("Failed to add questions: %v", err)
		}
		if updated.TotalPoints != 10 {
			t.Errorf("Expected total points 10, got %d", updated.TotalPoints)
		}
		if len(updated.Questions) != 2 || updated.Questions[1].Position != 1 {
			t.Errorf("Unexpected question set: %+v", updated.Questions)
		}
	})

	t.Run("rejected by another teacher", func(t *testing.T) {
		other := env.addTeacher(t, "Mr Okafor")
		_, err := env.assignments.AddQuestions(ctx, other.ID, assignment.ID,
			[]validator.QuestionCreateRequest{tfQuestion("Extra", "true", 5)})
		if !IsPermissionError(err) {
			t.Errorf("Expected permission error, got %v", err)
		}
	})

	t.Run("frozen after first submission", func(t *testing.T) {
		_, err := env.submissions.Submit(ctx, student.ID, &validator.SubmitRequest{
			AssignmentID: assignment.ID,
			Answers:      map[uint]string{},
		})
		if err != nil {
			t.Fatalf("Failed to submit: %v", err)
		}

		_, err = env.assignments.AddQuestions(ctx, teacher.ID, assignment.ID,
			[]validator.QuestionCreateRequest{tfQuestion("Late question", "true", 5)})
		if !errors.Is(err, ErrAssignmentFrozen) {
			t.Errorf("Expected ErrAssignmentFrozen, got %v", err)
		}
	})
}

func TestAssignmentService_Deactivate(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.addTeacher(t, "Ms Rivera")
	other := env.addTeacher(t, "Mr Okafor")
	ctx := context.Background()

	assignment, err := env.assignments.CreateAssignment(ctx, teacher.ID, &validator.AssignmentCreateRequest{
		Title:     "Quiz",
		Questions: []validator.QuestionCreateRequest{mcQuestion("Pick B", "B", 5, "A", "B")},
	})
	if err != nil {
		t.Fatalf("Failed to create assignment: %v", err)
	}

	if err := env.assignments.DeactivateAssignment(ctx, other.ID, assignment.ID); !IsPermissionError(err) {
		t.Errorf("Expected permission error, got %v", err)
	}
	if err := env.assignments.DeactivateAssignment(ctx, teacher.ID, assignment.ID); err != nil {
		t.Fatalf("Failed to deactivate: %v", err)
	}

	// Inactive assignments reject new submissions.
	student := env.addStudent(t, "Sam Lee", teacher.ID)
	_, err = env.submissions.Submit(ctx, student.ID, &validator.SubmitRequest{
		AssignmentID: assignment.ID,
	})
	if !errors.Is(err, ErrAssignmentInactive) {
		t.Errorf("Expected ErrAssignmentInactive, got %v", err)
	}
}
