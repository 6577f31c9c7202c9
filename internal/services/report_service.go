package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"
)

// ===== REPORT SERVICE =====

type reportService struct {
	analytics AnalyticsService
	logger    *slog.Logger
}

func NewReportService(analytics AnalyticsService, logger *slog.Logger) ReportService {
	return &reportService{analytics: analytics, logger: logger}
}

const summarySheet = "Class Summary"

// ExportClassSummary renders the teacher's class summary as an xlsx workbook.
func (s *reportService) ExportClassSummary(ctx context.Context, teacherID uint) ([]byte, error) {
	summary, err := s.analytics.ClassSummary(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(summarySheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DCE6F1"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	headers := []string{"Student", "Submissions", "Average %", "Grade"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(summarySheet, cell, h); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", "D1", headerStyle); err != nil {
		return nil, err
	}

	row := 2
	for _, st := range summary.Students {
		values := []interface{}{st.Name, st.SubmissionCount, st.AveragePercent, st.GradeLetter}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellValue(summarySheet, cell, v); err != nil {
				return nil, err
			}
		}
		row++
	}

	// Aggregate block below the roster.
	row++
	aggregates := [][2]interface{}{
		{"Class average %", summary.ClassAverage},
		{"Pass rate %", summary.PassRate},
	}
	for _, grade := range []string{"A", "B", "C", "D", "F"} {
		aggregates = append(aggregates, [2]interface{}{
			fmt.Sprintf("Grade %s", grade), summary.GradeDistribution[grade],
		})
	}
	for _, agg := range aggregates {
		labelCell, _ := excelize.CoordinatesToCellName(1, row)
		valueCell, _ := excelize.CoordinatesToCellName(2, row)
		if err := f.SetCellValue(summarySheet, labelCell, agg[0]); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(summarySheet, valueCell, agg[1]); err != nil {
			return nil, err
		}
		row++
	}

	if err := f.SetColWidth(summarySheet, "A", "A", 28); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.InfoContext(ctx, "Class summary exported",
		"teacher_id", teacherID,
		"students", len(summary.Students),
		"bytes", buf.Len())
	return buf.Bytes(), nil
}
