package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heritage-api/apperr"
	"heritage-api/models"
	"heritage-api/policy"
	"heritage-api/storage"
)

func strPtr(s string) *string { return &s }

func TestCreateStartsApproved(t *testing.T) {
	f := newFixture(t)
	owner := f.contributor(t, "0712345678")
	doc := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	sub, err := f.submissions.Create(context.Background(), owner, SubmissionInput{
		Title:               "Traditional Medicine Ritual",
		Pillar:              models.PillarCultural,
		Category:            "Traditional Medicine",
		Tags:                []string{"herbs", "healing"},
		DateOfDocumentation: &doc,
		Location:            models.Location{County: "Nyeri"},
	}, []FileUpload{
		{Filename: "photo.jpg", ContentType: "image/jpeg", Body: strings.NewReader("img"), Caption: "The healer"},
		{Filename: "chant.mp3", ContentType: "audio/mpeg", Body: strings.NewReader("snd")},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, sub.Status)
	assert.Equal(t, models.SensitivityPublic, sub.Metadata.SensitivityLevel)

	got, err := f.submissions.Get(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"herbs", "healing"}, []string(got.Tags))
	assert.True(t, doc.Equal(got.DateOfDocumentation))
	require.Len(t, got.Files, 2)
	assert.Equal(t, "The healer", got.Files[0].Caption)
	assert.Equal(t, models.FileImage, got.Files[0].FileType)
	assert.Equal(t, models.FileAudio, got.Files[1].FileType)
	assert.True(t, strings.HasPrefix(got.Files[0].URL, "mem://bc4p/cultural/"))
	require.NotNil(t, got.User)
	assert.Equal(t, "0712345678", got.User.Phone)

	history, err := f.submissions.History(context.Background(), sub.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusApproved, history[0].ToStatus)
}

func TestCreateKeepsSameNamedFilesApart(t *testing.T) {
	db := newTestDB(t)
	store, err := storage.NewLocalStore(t.TempDir(), "http://localhost:5000")
	require.NoError(t, err)
	identity := NewIdentityService(db, store, "bc4p")
	subs := NewSubmissionService(db, store, "bc4p")
	u, err := identity.Register(context.Background(), RegisterInput{Name: "Wanjiru", Phone: "0700000020"})
	require.NoError(t, err)
	owner := policy.Principal{ID: u.ID, Role: u.Role}

	sub, err := subs.Create(context.Background(), owner, SubmissionInput{Title: "Harvest dance", Pillar: models.PillarCultural}, []FileUpload{
		{Filename: "image.jpg", ContentType: "image/jpeg", Body: strings.NewReader("first")},
		{Filename: "image.jpg", ContentType: "image/jpeg", Body: strings.NewReader("second")},
	})
	require.NoError(t, err)
	require.Len(t, sub.Files, 2)
	assert.NotEqual(t, sub.Files[0].PublicID, sub.Files[1].PublicID)
	assert.NotEqual(t, sub.Files[0].URL, sub.Files[1].URL)

	edited, err := subs.Update(context.Background(), owner, sub.ID, SubmissionPatch{}, []FileUpload{
		{Filename: "image.jpg", ContentType: "image/jpeg", Body: strings.NewReader("third")},
	})
	require.NoError(t, err)
	require.Len(t, edited.Files, 3)
	assert.NotEqual(t, edited.Files[0].PublicID, edited.Files[2].PublicID)
}

func TestCreateDefaultsDocumentationDate(t *testing.T) {
	f := newFixture(t)
	before := time.Now().Add(-time.Second)
	sub := f.submit(t, f.contributor(t, "0700000010"), "Dated", models.PillarSocial)
	assert.True(t, sub.DateOfDocumentation.After(before))
}

func TestCreateRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	owner := f.contributor(t, "0700000011")
	ctx := context.Background()

	tooMany := make([]FileUpload, MaxFilesPerRequest+1)
	for i := range tooMany {
		tooMany[i] = textFile("f.txt")
	}

	cases := map[string]struct {
		in    SubmissionInput
		files []FileUpload
	}{
		"missing title":  {SubmissionInput{Pillar: models.PillarSocial}, nil},
		"unknown pillar": {SubmissionInput{Title: "x", Pillar: "Spiritual"}, nil},
		"bad sensitivity": {SubmissionInput{Title: "x", Pillar: models.PillarSocial,
			Metadata: models.Metadata{SensitivityLevel: "Secret"}}, nil},
		"too many files": {SubmissionInput{Title: "x", Pillar: models.PillarSocial}, tooMany},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.submissions.Create(ctx, owner, tc.in, tc.files)
			assert.True(t, apperr.IsCode(err, apperr.CodeInvalidOperation), "got %v", err)
		})
	}
	assert.Zero(t, f.store.Len())
}

func TestCreateRemovesUploadsOnFailure(t *testing.T) {
	f := newFixture(t)
	owner := f.contributor(t, "0700000012")
	f.store.FailAfter = 2

	_, err := f.submissions.Create(context.Background(), owner,
		SubmissionInput{Title: "Partial", Pillar: models.PillarEconomic},
		[]FileUpload{textFile("a.txt"), textFile("b.txt"), textFile("c.txt")})
	assert.True(t, apperr.IsCode(err, apperr.CodeInternal))
	assert.Zero(t, f.store.Len())

	var count int64
	f.db.Model(&models.Submission{}).Count(&count)
	assert.Zero(t, count)
}

func TestOwnerEditResetsApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.contributor(t, "0700000013")
	sub := f.submit(t, owner, "Bead work", models.PillarCultural, textFile("one.txt"))

	updated, err := f.submissions.Update(ctx, owner, sub.ID, SubmissionPatch{
		Title:    strPtr("Beadwork patterns"),
		Location: &models.Location{County: "Kajiado", SubCounty: "Namanga"},
		Tags:     []string{"maasai"},
	}, []FileUpload{textFile("two.txt"), textFile("three.txt")})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, updated.Status)
	assert.Equal(t, models.PillarCultural, updated.Pillar)

	got, err := f.submissions.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "Beadwork patterns", got.Title)
	assert.Equal(t, "Namanga", got.Location.SubCounty)
	assert.Equal(t, models.StatusPending, got.Status)
	require.Len(t, got.Files, 3)
	assert.Equal(t, []string{"one.txt", "two.txt", "three.txt"},
		[]string{got.Files[0].OriginalName, got.Files[1].OriginalName, got.Files[2].OriginalName})

	_, err = f.submissions.Update(ctx, owner, sub.ID, SubmissionPatch{Category: strPtr("Arts & Craftsmanship")}, nil)
	require.NoError(t, err)

	history, err := f.submissions.History(ctx, sub.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.StatusApproved, history[1].FromStatus)
	assert.Equal(t, models.StatusPending, history[1].ToStatus)
}

func TestOwnerEditLeavesOtherStatuses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	owner := f.contributor(t, "0700000014")

	for _, st := range []models.Status{models.StatusRejected, models.StatusRevisionRequested} {
		sub := f.submit(t, owner, "Story", models.PillarSocial)
		_, err := f.submissions.SetStatus(ctx, admin, sub.ID, string(st), "")
		require.NoError(t, err)

		updated, err := f.submissions.Update(ctx, owner, sub.ID, SubmissionPatch{Description: strPtr("more detail")}, nil)
		require.NoError(t, err)
		assert.Equal(t, st, updated.Status)
	}
}

func TestEditIsOwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	owner := f.contributor(t, "0700000015")
	other := f.contributor(t, "0700000016")
	sub := f.submit(t, owner, "Mine", models.PillarTechnical)

	_, err := f.submissions.Update(ctx, other, sub.ID, SubmissionPatch{Title: strPtr("Yours")}, nil)
	assert.True(t, apperr.IsCode(err, apperr.CodeForbidden))
	_, err = f.submissions.Update(ctx, admin, sub.ID, SubmissionPatch{Title: strPtr("Admin's")}, nil)
	assert.True(t, apperr.IsCode(err, apperr.CodeForbidden))
	_, err = f.submissions.Update(ctx, owner, uuid.New(), SubmissionPatch{}, nil)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
	_, err = f.submissions.Update(ctx, owner, sub.ID, SubmissionPatch{Title: strPtr("  ")}, nil)
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidOperation))

	social := models.PillarSocial
	_, err = f.submissions.Update(ctx, owner, sub.ID, SubmissionPatch{Pillar: &social}, nil)
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidOperation))
	same := models.PillarTechnical
	_, err = f.submissions.Update(ctx, owner, sub.ID, SubmissionPatch{Pillar: &same}, nil)
	assert.NoError(t, err)
}

func TestSetStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	owner := f.contributor(t, "0700000017")
	sub := f.submit(t, owner, "Review me", models.PillarEconomic)

	got, err := f.submissions.SetStatus(ctx, admin, sub.ID, "Revision Requested", "Add the source")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRevisionRequested, got.Status)
	assert.Equal(t, "Add the source", got.AdminNotes)

	got, err = f.submissions.SetStatus(ctx, admin, sub.ID, "", "Still waiting")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRevisionRequested, got.Status)
	assert.Equal(t, "Still waiting", got.AdminNotes)

	got, err = f.submissions.SetStatus(ctx, admin, sub.ID, "Approved", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
	assert.Equal(t, "Still waiting", got.AdminNotes)

	_, err = f.submissions.SetStatus(ctx, admin, sub.ID, "Archived", "")
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidOperation))
	_, err = f.submissions.SetStatus(ctx, owner, sub.ID, "Approved", "")
	assert.True(t, apperr.IsCode(err, apperr.CodeForbidden))
	_, err = f.submissions.SetStatus(ctx, admin, uuid.New(), "Approved", "")
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))

	history, err := f.submissions.History(ctx, sub.ID)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestListFiltersAndOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	a := f.contributor(t, "0700000018")
	b := f.contributor(t, "0700000019")

	first := f.submit(t, a, "First", models.PillarCultural)
	second := f.submit(t, a, "Second", models.PillarSocial)
	third := f.submit(t, b, "Third", models.PillarCultural)
	base := time.Now().Add(-time.Hour)
	for i, id := range []uuid.UUID{first.ID, second.ID, third.ID} {
		require.NoError(t, f.db.Model(&models.Submission{}).Where("id = ?", id).
			Update("created_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}
	require.NoError(t, f.db.Model(&models.Submission{}).Where("id = ?", third.ID).
		Update("location_county", "Kisumu").Error)
	_, err := f.submissions.SetStatus(ctx, admin, second.ID, "Rejected", "")
	require.NoError(t, err)

	titles := func(subs []models.Submission) []string {
		out := make([]string, len(subs))
		for i, s := range subs {
			out[i] = s.Title
		}
		return out
	}

	all, err := f.submissions.List(ctx, SubmissionFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Third", "Second", "First"}, titles(all))

	cultural, err := f.submissions.List(ctx, SubmissionFilter{Pillar: models.PillarCultural})
	require.NoError(t, err)
	assert.Equal(t, []string{"Third", "First"}, titles(cultural))

	both, err := f.submissions.List(ctx, SubmissionFilter{Pillar: models.PillarCultural, County: "Kisumu"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Third"}, titles(both))

	rejected, err := f.submissions.List(ctx, SubmissionFilter{Status: models.StatusRejected})
	require.NoError(t, err)
	assert.Equal(t, []string{"Second"}, titles(rejected))

	mine, err := f.submissions.ListMine(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []string{"Second", "First"}, titles(mine))
}

func TestDeleteSubmission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	owner := f.contributor(t, "0700000020")
	other := f.contributor(t, "0700000021")

	mine := f.submit(t, owner, "Owner deletes", models.PillarSocial, textFile("a.txt"))
	moderated := f.submit(t, owner, "Admin deletes", models.PillarSocial, textFile("b.txt"))

	err := f.submissions.Delete(ctx, other, mine.ID)
	assert.True(t, apperr.IsCode(err, apperr.CodeForbidden))

	require.NoError(t, f.submissions.Delete(ctx, owner, mine.ID))
	require.NoError(t, f.submissions.Delete(ctx, admin, moderated.ID))

	err = f.submissions.Delete(ctx, owner, mine.ID)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
	_, err = f.submissions.History(ctx, mine.ID)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
	assert.Zero(t, f.store.Len())
}
