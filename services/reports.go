package services

import (
	"context"
	"encoding/csv"
	"io"
	"time"

	"gorm.io/gorm"

	"heritage-api/apperr"
	"heritage-api/models"
)

// Stats are the dashboard aggregate counts.
type Stats struct {
	TotalSubmissions int64            `json:"total_submissions"`
	PendingReview    int64            `json:"pending_review"`
	Approved         int64            `json:"approved"`
	ByPillar         map[string]int64 `json:"by_pillar"`
}

// ExportHeader is the column set of the submission export.
var ExportHeader = []string{
	"Title", "Pillar", "Category", "Contributor", "Phone",
	"Status", "Date", "County", "Sub-County",
}

type ReportService struct {
	db          *gorm.DB
	submissions *SubmissionService
}

func NewReportService(db *gorm.DB, submissions *SubmissionService) *ReportService {
	return &ReportService{db: db, submissions: submissions}
}

// Stats counts submissions overall, by review state and by pillar. Every
// pillar appears in ByPillar, with zero when it has no submissions.
func (r *ReportService) Stats(ctx context.Context) (*Stats, error) {
	type row struct {
		Pillar models.Pillar
		Status models.Status
		Count  int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Select("pillar, status, COUNT(*) AS count").
		Group("pillar, status").
		Scan(&rows).Error; err != nil {
		return nil, apperr.Internal(err, "Failed to compute stats")
	}

	stats := &Stats{ByPillar: make(map[string]int64, len(models.Pillars))}
	for _, p := range models.Pillars {
		stats.ByPillar[string(p)] = 0
	}
	for _, rw := range rows {
		stats.TotalSubmissions += rw.Count
		stats.ByPillar[string(rw.Pillar)] += rw.Count
		switch rw.Status {
		case models.StatusPending:
			stats.PendingReview += rw.Count
		case models.StatusApproved:
			stats.Approved += rw.Count
		case models.StatusRejected, models.StatusRevisionRequested:
		}
	}
	return stats, nil
}

// ExportCSV writes the submissions matching f to w, one row each, newest
// first.
func (r *ReportService) ExportCSV(ctx context.Context, w io.Writer, f SubmissionFilter) error {
	subs, err := r.submissions.List(ctx, f)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return apperr.Internal(err, "Failed to write export")
	}
	for _, s := range subs {
		var name, phone string
		if s.User != nil {
			name, phone = s.User.Name, s.User.Phone
		}
		record := []string{
			s.Title,
			string(s.Pillar),
			s.Category,
			name,
			phone,
			string(s.Status),
			s.DateOfDocumentation.UTC().Format(time.RFC3339),
			s.Location.County,
			s.Location.SubCounty,
		}
		if err := cw.Write(record); err != nil {
			return apperr.Internal(err, "Failed to write export")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return apperr.Internal(err, "Failed to write export")
	}
	return nil
}
