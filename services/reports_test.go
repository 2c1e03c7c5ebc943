package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heritage-api/models"
)

func TestStatsMatchDistribution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	owner := f.contributor(t, "0700000030")

	plan := []struct {
		pillar models.Pillar
		status models.Status
	}{
		{models.PillarCultural, models.StatusApproved},
		{models.PillarCultural, models.StatusPending},
		{models.PillarCultural, models.StatusRejected},
		{models.PillarSocial, models.StatusPending},
		{models.PillarTechnical, models.StatusRevisionRequested},
		{models.PillarTechnical, models.StatusApproved},
	}
	for _, p := range plan {
		sub := f.submit(t, owner, "item", p.pillar)
		_, err := f.submissions.SetStatus(ctx, admin, sub.ID, string(p.status), "")
		require.NoError(t, err)
	}

	stats, err := f.reports.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), stats.TotalSubmissions)
	assert.Equal(t, int64(2), stats.PendingReview)
	assert.Equal(t, int64(2), stats.Approved)
	assert.Equal(t, map[string]int64{
		"Cultural":      3,
		"Social":        1,
		"Economic":      0,
		"Environmental": 0,
		"Technical":     2,
	}, stats.ByPillar)
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.contributor(t, "0712345678")
	doc := time.Date(2024, 2, 29, 8, 30, 0, 0, time.UTC)

	_, err := f.submissions.Create(ctx, owner, SubmissionInput{
		Title:               `Songs, "old" and new`,
		Pillar:              models.PillarCultural,
		Category:            "Language & Oral Traditions",
		DateOfDocumentation: &doc,
		Location:            models.Location{County: "Meru", SubCounty: "Imenti North"},
	}, nil)
	require.NoError(t, err)
	f.submit(t, owner, "Irrigation furrows", models.PillarTechnical)

	var buf bytes.Buffer
	require.NoError(t, f.reports.ExportCSV(ctx, &buf, SubmissionFilter{Pillar: models.PillarCultural}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, ExportHeader, records[0])
	assert.Equal(t, []string{
		`Songs, "old" and new`, "Cultural", "Language & Oral Traditions",
		"Contributor 0712345678", "0712345678", "Approved",
		"2024-02-29T08:30:00Z", "Meru", "Imenti North",
	}, records[1])
}
