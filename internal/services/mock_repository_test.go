package services

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smart-grading/grading-service/internal/events"
	"github.com/smart-grading/grading-service/internal/models"
	"github.com/smart-grading/grading-service/internal/repositories"
	"github.com/smart-grading/grading-service/internal/validator"
)

// testEnv wires the services over the in-memory repository.
type testEnv struct {
	repo        *memRepository
	publisher   *events.MockEventPublisher
	assignments AssignmentService
	submissions SubmissionService
	analytics   AnalyticsService
	auth        AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	v := validator.New()
	repo := newMemRepository()
	publisher := events.NewMockEventPublisher(logger)

	return &testEnv{
		repo:        repo,
		publisher:   publisher,
		assignments: NewAssignmentService(repo, logger, v, publisher),
		submissions: NewSubmissionService(repo, logger, v, publisher),
		analytics:   NewAnalyticsService(repo, logger),
		auth:        NewAuthService(repo, logger, v, "test-secret", time.Hour),
	}
}

func (e *testEnv) addTeacher(t *testing.T, name string) *models.User {
	t.Helper()
	username := strings.ToLower(strings.ReplaceAll(name, " ", "."))
	teacher := &models.User{
		Name:     name,
		Role:     models.RoleTeacher,
		Username: &username,
		IsActive: true,
	}
	if err := e.repo.User().Create(context.Background(), teacher); err != nil {
		t.Fatalf("Failed to create teacher: %v", err)
	}
	return teacher
}

func (e *testEnv) addStudent(t *testing.T, name string, teacherID uint) *models.User {
	t.Helper()
	student, err := e.auth.AddStudent(context.Background(), teacherID, &validator.AddStudentRequest{Name: name})
	if err != nil {
		t.Fatalf("Failed to add student: %v", err)
	}
	return student
}

// memRepository is an in-memory Repository used by the service tests.
type memRepository struct {
	store *memStore
}

type memStore struct {
	mu          sync.Mutex
	users       map[uint]*models.User
	assignments map[uint]*models.Assignment
	questions   map[uint]*models.Question
	submissions map[uint]*models.Submission
	answers     map[uint]*models.Answer
	nextID      uint
}

func newMemRepository() *memRepository {
	return &memRepository{store: &memStore{
		users:       make(map[uint]*models.User),
		assignments: make(map[uint]*models.Assignment),
		questions:   make(map[uint]*models.Question),
		submissions: make(map[uint]*models.Submission),
		answers:     make(map[uint]*models.Answer),
	}}
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

func (m *memRepository) User() repositories.UserRepository             { return &memUsers{m.store} }
func (m *memRepository) Assignment() repositories.AssignmentRepository { return &memAssignments{m.store} }
func (m *memRepository) Question() repositories.QuestionRepository     { return &memQuestions{m.store} }
func (m *memRepository) Submission() repositories.SubmissionRepository { return &memSubmissions{m.store} }
func (m *memRepository) Answer() repositories.AnswerRepository         { return &memAnswers{m.store} }
func (m *memRepository) Analytics() repositories.AnalyticsRepository   { return &memAnalytics{m.store} }

func (m *memRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *memRepository) Ping(ctx context.Context) error { return nil }
func (m *memRepository) Close() error                   { return nil }

// ===== USERS =====

type memUsers struct{ s *memStore }

func (r *memUsers) Create(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user.ID = r.s.id()
	clone := *user
	r.s.users[user.ID] = &clone
	return nil
}

func (r *memUsers) GetByID(ctx context.Context, id uint) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *memUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, user := range r.s.users {
		if user.Username != nil && *user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *memUsers) GetStudentByNameAndCode(ctx context.Context, name, loginCode string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	code := strings.ToUpper(loginCode)
	for _, user := range r.s.users {
		if user.Role == models.RoleStudent && user.IsActive &&
			strings.EqualFold(user.Name, name) &&
			user.LoginCode != nil && *user.LoginCode == code {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *memUsers) GetStudentsByTeacher(ctx context.Context, teacherID uint) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var students []*models.User
	for _, user := range r.s.users {
		if user.Role == models.RoleStudent && user.IsActive &&
			user.CreatedBy != nil && *user.CreatedBy == teacherID {
			clone := *user
			students = append(students, &clone)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}

func (r *memUsers) LoginCodeExists(ctx context.Context, code string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, user := range r.s.users {
		if user.LoginCode != nil && *user.LoginCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUsers) Deactivate(ctx context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.IsActive = false
	return nil
}

// ===== ASSIGNMENTS =====

type memAssignments struct{ s *memStore }

func (r *memAssignments) Create(ctx context.Context, assignment *models.Assignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	assignment.ID = r.s.id()
	for i := range assignment.Questions {
		q := &assignment.Questions[i]
		q.ID = r.s.id()
		q.AssignmentID = assignment.ID
		clone := *q
		r.s.questions[q.ID] = &clone
	}
	clone := *assignment
	clone.Questions = nil
	r.s.assignments[assignment.ID] = &clone
	return nil
}

func (r *memAssignments) GetByID(ctx context.Context, id uint) (*models.Assignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.get(id)
}

func (r *memAssignments) get(id uint) (*models.Assignment, error) {
	assignment, ok := r.s.assignments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *assignment
	return &clone, nil
}

func (r *memAssignments) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Assignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	assignment, err := r.get(id)
	if err != nil {
		return nil, err
	}
	assignment.Questions = questionsOf(r.s, id)
	return assignment, nil
}

func (r *memAssignments) List(ctx context.Context, filters repositories.AssignmentFilters) ([]*models.Assignment, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []*models.Assignment
	for _, a := range r.s.assignments {
		if filters.TeacherID != nil && a.TeacherID != *filters.TeacherID {
			continue
		}
		if !filters.IncludeInactive && !a.IsActive {
			continue
		}
		clone := *a
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, int64(len(result)), nil
}

func (r *memAssignments) Update(ctx context.Context, assignment *models.Assignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.assignments[assignment.ID]; !ok {
		return repositories.ErrNotFound
	}
	clone := *assignment
	clone.Questions = nil
	r.s.assignments[assignment.ID] = &clone
	return nil
}

func (r *memAssignments) Deactivate(ctx context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	assignment, ok := r.s.assignments[id]
	if !ok {
		return repositories.ErrNotFound
	}
	assignment.IsActive = false
	return nil
}

func (r *memAssignments) HasSubmissions(ctx context.Context, id uint) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sub := range r.s.submissions {
		if sub.AssignmentID == id {
			return true, nil
		}
	}
	return false, nil
}

func questionsOf(s *memStore, assignmentID uint) []models.Question {
	var questions []models.Question
	for _, q := range s.questions {
		if q.AssignmentID == assignmentID {
			questions = append(questions, *q)
		}
	}
	sort.Slice(questions, func(i, j int) bool {
		if questions[i].Position != questions[j].Position {
			return questions[i].Position < questions[j].Position
		}
		return questions[i].ID < questions[j].ID
	})
	return questions
}

// ===== QUESTIONS =====

type memQuestions struct{ s *memStore }

func (r *memQuestions) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q, ok := r.s.questions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *q
	return &clone, nil
}

func (r *memQuestions) GetByAssignment(ctx context.Context, assignmentID uint) ([]*models.Question, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	questions := questionsOf(r.s, assignmentID)
	result := make([]*models.Question, len(questions))
	for i := range questions {
		q := questions[i]
		result[i] = &q
	}
	return result, nil
}

func (r *memQuestions) CreateBatch(ctx context.Context, questions []*models.Question) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, q := range questions {
		q.ID = r.s.id()
		clone := *q
		r.s.questions[q.ID] = &clone
	}
	return nil
}

// ===== SUBMISSIONS =====

type memSubmissions struct{ s *memStore }

func (r *memSubmissions) Create(ctx context.Context, submission *models.Submission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.submissions {
		if existing.AssignmentID == submission.AssignmentID && existing.StudentID == submission.StudentID {
			return repositories.ErrDuplicate
		}
	}
	submission.ID = r.s.id()
	clone := *submission
	clone.Answers = nil
	r.s.submissions[submission.ID] = &clone
	return nil
}

func (r *memSubmissions) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.submissions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *sub
	return &clone, nil
}

func (r *memSubmissions) GetByIDWithAnswers(ctx context.Context, id uint) (*models.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.submissions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *sub
	if assignment, ok := r.s.assignments[sub.AssignmentID]; ok {
		clone.Assignment = *assignment
		clone.Assignment.Questions = questionsOf(r.s, sub.AssignmentID)
	}
	if student, ok := r.s.users[sub.StudentID]; ok {
		clone.Student = *student
	}
	clone.Answers = answersOf(r.s, id)
	return &clone, nil
}

func (r *memSubmissions) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (*models.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sub := range r.s.submissions {
		if sub.AssignmentID == assignmentID && sub.StudentID == studentID {
			clone := *sub
			return &clone, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *memSubmissions) GetByStudent(ctx context.Context, studentID uint, filters repositories.SubmissionFilters) ([]*models.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []*models.Submission
	for _, sub := range r.s.submissions {
		if sub.StudentID == studentID {
			clone := *sub
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SubmittedAt.Before(result[j].SubmittedAt) })
	return result, nil
}

func (r *memSubmissions) GetByAssignment(ctx context.Context, assignmentID uint, filters repositories.SubmissionFilters) ([]*models.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []*models.Submission
	for _, sub := range r.s.submissions {
		if sub.AssignmentID == assignmentID {
			clone := *sub
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SubmittedAt.After(result[j].SubmittedAt) })
	return result, nil
}

func (r *memSubmissions) Update(ctx context.Context, submission *models.Submission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.submissions[submission.ID]; !ok {
		return repositories.ErrNotFound
	}
	clone := *submission
	clone.Answers = nil
	r.s.submissions[submission.ID] = &clone
	return nil
}

func answersOf(s *memStore, submissionID uint) []models.Answer {
	var answers []models.Answer
	for _, a := range s.answers {
		if a.SubmissionID == submissionID {
			clone := *a
			if q, ok := s.questions[a.QuestionID]; ok {
				clone.Question = *q
			}
			answers = append(answers, clone)
		}
	}
	sort.Slice(answers, func(i, j int) bool {
		if answers[i].Question.Position != answers[j].Question.Position {
			return answers[i].Question.Position < answers[j].Question.Position
		}
		return answers[i].ID < answers[j].ID
	})
	return answers
}

// ===== ANSWERS =====

type memAnswers struct{ s *memStore }

func (r *memAnswers) CreateBatch(ctx context.Context, answers []*models.Answer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range answers {
		a.ID = r.s.id()
		clone := *a
		clone.Question = models.Question{}
		r.s.answers[a.ID] = &clone
	}
	return nil
}

func (r *memAnswers) Update(ctx context.Context, answer *models.Answer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.answers[answer.ID]; !ok {
		return repositories.ErrNotFound
	}
	clone := *answer
	clone.Question = models.Question{}
	r.s.answers[answer.ID] = &clone
	return nil
}

func (r *memAnswers) GetBySubmission(ctx context.Context, submissionID uint) ([]*models.Answer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	answers := answersOf(r.s, submissionID)
	result := make([]*models.Answer, len(answers))
	for i := range answers {
		a := answers[i]
		result[i] = &a
	}
	return result, nil
}

func (r *memAnswers) DeleteBySubmission(ctx context.Context, submissionID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, a := range r.s.answers {
		if a.SubmissionID == submissionID {
			delete(r.s.answers, id)
		}
	}
	return nil
}

// ===== ANALYTICS =====

type memAnalytics struct{ s *memStore }

func (r *memAnalytics) SubmissionScores(ctx context.Context, assignmentID uint) ([]repositories.SubmissionScore, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var scores []repositories.SubmissionScore
	for _, sub := range r.s.submissions {
		if sub.AssignmentID == assignmentID && sub.Status != models.StatusReopened {
			scores = append(scores, repositories.SubmissionScore{
				SubmissionID: sub.ID,
				StudentID:    sub.StudentID,
				Score:        sub.TotalScore,
				MaxScore:     sub.MaxScore,
			})
		}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].SubmissionID < scores[j].SubmissionID })
	return scores, nil
}

func (r *memAnalytics) QuestionCorrectRates(ctx context.Context, assignmentID uint) ([]repositories.QuestionCorrectRate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rates := make(map[uint]*repositories.QuestionCorrectRate)
	for _, q := range r.s.questions {
		if q.AssignmentID == assignmentID {
			rates[q.ID] = &repositories.QuestionCorrectRate{QuestionID: q.ID, Position: q.Position}
		}
	}
	for _, a := range r.s.answers {
		rate, ok := rates[a.QuestionID]
		if !ok || a.IsCorrect == nil {
			continue
		}
		sub, ok := r.s.submissions[a.SubmissionID]
		if !ok || sub.Status == models.StatusReopened {
			continue
		}
		rate.Answered++
		if *a.IsCorrect {
			rate.Correct++
		}
	}
	var result []repositories.QuestionCorrectRate
	for _, rate := range rates {
		if rate.Answered > 0 {
			rate.CorrectRate = float64(rate.Correct) / float64(rate.Answered)
		}
		result = append(result, *rate)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}

func (r *memAnalytics) StudentTrend(ctx context.Context, studentID uint) ([]repositories.TrendPoint, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var points []repositories.TrendPoint
	for _, sub := range r.s.submissions {
		if sub.StudentID != studentID || sub.Status == models.StatusReopened {
			continue
		}
		title := ""
		if assignment, ok := r.s.assignments[sub.AssignmentID]; ok {
			title = assignment.Title
		}
		points = append(points, repositories.TrendPoint{
			AssignmentID: sub.AssignmentID,
			Title:        title,
			Score:        sub.TotalScore,
			MaxScore:     sub.MaxScore,
			SubmittedAt:  sub.SubmittedAt,
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].SubmittedAt.Before(points[j].SubmittedAt) })
	return points, nil
}
