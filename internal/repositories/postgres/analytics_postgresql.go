package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/smart-grading/grading-service/internal/cache"
	"github.com/smart-grading/grading-service/internal/models"
	"github.com/smart-grading/grading-service/internal/repositories"
)

type AnalyticsPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewAnalyticsPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.AnalyticsRepository {
	return &AnalyticsPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (a *AnalyticsPostgreSQL) SubmissionScores(ctx context.Context, assignmentID uint) ([]repositories.SubmissionScore, error) {
	cacheKey := fmt.Sprintf("assignment:%d:scores", assignmentID)
	var scores []repositories.SubmissionScore

	err := a.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &scores, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		var rows []repositories.SubmissionScore
		err := a.db.WithContext(ctx).
			Model(&models.Submission{}).
			Select("id AS submission_id, student_id, total_score AS score, max_score").
			Where("assignment_id = ? AND status <> ?", assignmentID, models.StatusReopened).
			Order("total_score DESC").
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get submission scores: %w", err)
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return scores, nil
}

func (a *AnalyticsPostgreSQL) QuestionCorrectRates(ctx context.Context, assignmentID uint) ([]repositories.QuestionCorrectRate, error) {
	cacheKey := fmt.Sprintf("assignment:%d:correct-rates", assignmentID)
	var rates []repositories.QuestionCorrectRate

	err := a.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &rates, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		var rows []repositories.QuestionCorrectRate
		err := a.db.WithContext(ctx).
			Model(&models.Answer{}).
			Select(`answers.question_id,
				questions.position,
				COUNT(answers.id) AS answered,
				COUNT(answers.id) FILTER (WHERE answers.is_correct) AS correct`).
			Joins("JOIN questions ON questions.id = answers.question_id").
			Joins("JOIN submissions ON submissions.id = answers.submission_id").
			Where("questions.assignment_id = ? AND submissions.status <> ?", assignmentID, models.StatusReopened).
			Where("answers.is_correct IS NOT NULL").
			Group("answers.question_id, questions.position").
			Order("questions.position").
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get question correct rates: %w", err)
		}

		for i := range rows {
			if rows[i].Answered > 0 {
				rows[i].CorrectRate = float64(rows[i].Correct) / float64(rows[i].Answered)
			}
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return rates, nil
}

func (a *AnalyticsPostgreSQL) StudentTrend(ctx context.Context, studentID uint) ([]repositories.TrendPoint, error) {
	var points []repositories.TrendPoint
	err := a.db.WithContext(ctx).
		Model(&models.Submission{}).
		Select(`submissions.assignment_id,
			assignments.title,
			submissions.total_score AS score,
			submissions.max_score,
			submissions.submitted_at`).
		Joins("JOIN assignments ON assignments.id = submissions.assignment_id").
		Where("submissions.student_id = ? AND submissions.status <> ?", studentID, models.StatusReopened).
		Order("submissions.submitted_at ASC").
		Scan(&points).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get student trend: %w", err)
	}
	return points, nil
}
