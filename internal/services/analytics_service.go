package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/smart-grading/grading-service/internal/repositories"
)

const (
	trendImproving = "improving"
	trendDeclining = "declining"
	trendStable    = "stable"

	// Net modeled change (percentage points) beyond which a trend is
	// labeled improving or declining.
	trendThreshold = 5.0

	passingPercent = 60.0
)

// ===== ANALYTICS SERVICE =====

type analyticsService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewAnalyticsService(repo repositories.Repository, logger *slog.Logger) AnalyticsService {
	return &analyticsService{repo: repo, logger: logger}
}

func (s *analyticsService) StudentTrend(ctx context.Context, studentID uint) (*TrendReport, error) {
	points, err := s.repo.Analytics().StudentTrend(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student trend: %w", err)
	}

	percents := make([]float64, 0, len(points))
	for _, p := range points {
		if p.MaxScore > 0 {
			percents = append(percents, p.Score/float64(p.MaxScore)*100)
		}
	}

	return &TrendReport{
		StudentID:      studentID,
		Points:         points,
		AveragePercent: round2(mean(percents)),
		Trend:          trendLabel(percents),
	}, nil
}

func (s *analyticsService) AssignmentStatistics(ctx context.Context, assignmentID uint) (*AssignmentStatistics, error) {
	assignment, err := s.repo.Assignment().GetByID(ctx, assignmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	scores, err := s.repo.Analytics().SubmissionScores(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission scores: %w", err)
	}

	stats := &AssignmentStatistics{
		AssignmentID:    assignmentID,
		Title:           assignment.Title,
		SubmissionCount: len(scores),
		MaxPossible:     assignment.TotalPoints,
	}
	if len(scores) == 0 {
		return stats, nil
	}

	values := make([]float64, len(scores))
	for i, sc := range scores {
		values[i] = sc.Score
	}
	sort.Float64s(values)

	stats.MeanScore = round2(mean(values))
	stats.MedianScore = round2(median(values))
	stats.MinScore = values[0]
	stats.MaxScore = values[len(values)-1]

	stats.QuestionStats, err = s.repo.Analytics().QuestionCorrectRates(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load question rates: %w", err)
	}
	return stats, nil
}

func (s *analyticsService) ClassSummary(ctx context.Context, teacherID uint) (*ClassSummary, error) {
	students, err := s.repo.User().GetStudentsByTeacher(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to load students: %w", err)
	}

	summary := &ClassSummary{
		TeacherID:         teacherID,
		Students:          make([]StudentSummary, 0, len(students)),
		GradeDistribution: map[string]int{"A": 0, "B": 0, "C": 0, "D": 0, "F": 0},
	}

	var classPercents []float64
	passing := 0
	for _, student := range students {
		points, err := s.repo.Analytics().StudentTrend(ctx, student.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load trend for student %d: %w", student.ID, err)
		}

		row := StudentSummary{
			StudentID:       student.ID,
			Name:            student.Name,
			SubmissionCount: len(points),
		}
		var percents []float64
		for _, p := range points {
			if p.MaxScore > 0 {
				percents = append(percents, p.Score/float64(p.MaxScore)*100)
			}
		}
		if len(percents) > 0 {
			avg := mean(percents)
			row.AveragePercent = round2(avg)
			row.GradeLetter = gradeLetter(avg)
			summary.GradeDistribution[row.GradeLetter]++
			classPercents = append(classPercents, avg)
			if avg >= passingPercent {
				passing++
			}
		}
		summary.Students = append(summary.Students, row)
	}

	if len(classPercents) > 0 {
		summary.ClassAverage = round2(mean(classPercents))
		summary.PassRate = round2(float64(passing) / float64(len(classPercents)) * 100)
	}
	return summary, nil
}

// ===== AGGREGATION HELPERS =====

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// median expects values sorted ascending.
func median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}

// slope fits percent-vs-index by least squares.
func slope(percents []float64) float64 {
	n := float64(len(percents))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range percents {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// trendLabel classifies the net modeled change across the series.
func trendLabel(percents []float64) string {
	if len(percents) < 2 {
		return trendStable
	}
	change := slope(percents) * float64(len(percents)-1)
	switch {
	case change > trendThreshold:
		return trendImproving
	case change < -trendThreshold:
		return trendDeclining
	default:
		return trendStable
	}
}

func gradeLetter(percent float64) string {
	switch {
	case percent >= 90:
		return "A"
	case percent >= 80:
		return "B"
	case percent >= 70:
		return "C"
	case percent >= 60:
		return "D"
	default:
		return "F"
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
