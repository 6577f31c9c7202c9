package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/smart-grading/grading-service/internal/models"
	"github.com/smart-grading/grading-service/internal/validator"
)

func addTeacherWithPassword(t *testing.T, env *testEnv, username, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	hashStr := string(hash)
	teacher := &models.User{
		Name:         "Ms Rivera",
		Role:         models.RoleTeacher,
		Username:     &username,
		PasswordHash: &hashStr,
		IsActive:     true,
	}
	if err := env.repo.User().Create(context.Background(), teacher); err != nil {
		t.Fatalf("Failed to create teacher: %v", err)
	}
	return teacher
}

func TestAuthService_Authenticate(t *testing.T) {
	env := newTestEnv(t)
	teacher := addTeacherWithPassword(t, env, "rivera", "s3cret-pass")
	ctx := context.Background()

	t.Run("valid credentials issue a token", func(t *testing.T) {
		user, token, err := env.auth.Authenticate(ctx, "rivera", "s3cret-pass")
		if err != nil {
			t.Fatalf("Failed to authenticate: %v", err)
		}
		if user.ID != teacher.ID {
			t.Errorf("Expected user %d, got %d", teacher.ID, user.ID)
		}
		if token == "" {
			t.Fatal("Expected a non-empty token")
		}

		claims, err := env.auth.ParseToken(token)
		if err != nil {
			t.Fatalf("Failed to parse token: %v", err)
		}
		if claims.UserID != teacher.ID || claims.Role != models.RoleTeacher {
			t.Errorf("Unexpected claims: %+v", claims)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := env.auth.Authenticate(ctx, "rivera", "wrong")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, err := env.auth.Authenticate(ctx, "nobody", "s3cret-pass")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("tampered token is rejected", func(t *testing.T) {
		_, token, err := env.auth.Authenticate(ctx, "rivera", "s3cret-pass")
		if err != nil {
			t.Fatalf("Failed to authenticate: %v", err)
		}
		if _, err := env.auth.ParseToken(token + "x"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Expected ErrInvalidCredentials for tampered token, got %v", err)
		}
	})
}

func TestAuthService_StudentRoster(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.addTeacher(t, "Ms Rivera")
	ctx := context.Background()

	student, err := env.auth.AddStudent(ctx, teacher.ID, &validator.AddStudentRequest{Name: "Sam Lee"})
	if err != nil {
		t.Fatalf("Failed to add student: %v", err)
	}
	if student.LoginCode == nil || len(*student.LoginCode) != loginCodeLength {
		t.Fatalf("Expected a %d-character login code, got %v", loginCodeLength, student.LoginCode)
	}
	for _, c := range *student.LoginCode {
		if !strings.ContainsRune(loginCodeCharset, c) {
			t.Errorf("Login code contains unexpected character %q", c)
		}
	}

	t.Run("student logs in with name and code", func(t *testing.T) {
		user, token, err := env.auth.AuthenticateStudent(ctx, "sam lee", strings.ToLower(*student.LoginCode))
		if err != nil {
			t.Fatalf("Failed to authenticate student: %v", err)
		}
		if user.ID != student.ID || token == "" {
			t.Errorf("Unexpected login result: user=%d token=%q", user.ID, token)
		}
	})

	t.Run("wrong code is rejected", func(t *testing.T) {
		_, _, err := env.auth.AuthenticateStudent(ctx, "Sam Lee", "XXXXXX")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("roster lists the teacher's students", func(t *testing.T) {
		students, err := env.auth.ListStudents(ctx, teacher.ID)
		if err != nil {
			t.Fatalf("Failed to list students: %v", err)
		}
		if len(students) != 1 || students[0].ID != student.ID {
			t.Errorf("Unexpected roster: %+v", students)
		}
	})

	t.Run("only the provisioning teacher can deactivate", func(t *testing.T) {
		other := env.addTeacher(t, "Mr Okafor")
		if err := env.auth.DeactivateStudent(ctx, other.ID, student.ID); !IsPermissionError(err) {
			t.Errorf("Expected permission error, got %v", err)
		}

		if err := env.auth.DeactivateStudent(ctx, teacher.ID, student.ID); err != nil {
			t.Fatalf("Failed to deactivate student: %v", err)
		}

		// Deactivated students can no longer log in.
		_, _, err := env.auth.AuthenticateStudent(ctx, "Sam Lee", *student.LoginCode)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Expected ErrInvalidCredentials after deactivation, got %v", err)
		}
	})
}
