package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"heritage-api/apperr"
	"heritage-api/logger"
	"heritage-api/models"
	"heritage-api/policy"
	"heritage-api/statemachine"
	"heritage-api/storage"
)

// SubmissionInput carries the content fields of a new submission.
type SubmissionInput struct {
	Title                   string
	Pillar                  models.Pillar
	Category                string
	Description             string
	Location                models.Location
	Tags                    []string
	DateOfDocumentation     *time.Time
	Metadata                models.Metadata
	IsLinkedToAncestralLand bool
}

// SubmissionPatch is a partial edit; nil fields are left untouched.
// Pillar may repeat the current value but cannot change it.
type SubmissionPatch struct {
	Pillar                  *models.Pillar
	Title                   *string
	Category                *string
	Description             *string
	Location                *models.Location
	Tags                    []string
	DateOfDocumentation     *time.Time
	Metadata                *models.Metadata
	IsLinkedToAncestralLand *bool
}

// SubmissionFilter narrows list and export queries. Empty fields match
// everything; set fields are ANDed.
type SubmissionFilter struct {
	Pillar models.Pillar
	Status models.Status
	County string
	UserID uuid.UUID
}

type SubmissionService struct {
	db     *gorm.DB
	store  storage.BlobStore
	folder string
}

func NewSubmissionService(db *gorm.DB, store storage.BlobStore, uploadFolder string) *SubmissionService {
	return &SubmissionService{db: db, store: store, folder: uploadFolder}
}

func orderedFiles(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func validateMetadata(m *models.Metadata) error {
	if m.SensitivityLevel == "" {
		m.SensitivityLevel = models.SensitivityPublic
		return nil
	}
	if _, ok := models.ParseSensitivity(string(m.SensitivityLevel)); !ok {
		return apperr.InvalidOperation("Invalid sensitivity level: " + string(m.SensitivityLevel))
	}
	return nil
}

// uploadFiles stores files through batch and returns their rows, numbered
// from position start.
func (s *SubmissionService) uploadFiles(ctx context.Context, batch *storage.Batch, pillar models.Pillar, files []FileUpload, start int) ([]models.SubmissionFile, error) {
	rows := make([]models.SubmissionFile, 0, len(files))
	for i, f := range files {
		so, err := batch.Upload(ctx, storage.Object{
			Folder:      storage.Folder(s.folder, pillar),
			Filename:    f.Filename,
			ContentType: f.ContentType,
			Body:        f.Body,
		})
		if err != nil {
			return nil, apperr.Internal(err, "Failed to upload file "+f.Filename)
		}
		rows = append(rows, models.SubmissionFile{
			Position:     start + i,
			URL:          so.URL,
			PublicID:     so.PublicID,
			Caption:      f.Caption,
			Description:  f.Description,
			FileType:     storage.ClassifyFileType(f.ContentType),
			OriginalName: f.Filename,
		})
	}
	return rows, nil
}

// Create stores a new submission owned by the caller. Its status starts
// at the workflow's initial state.
func (s *SubmissionService) Create(ctx context.Context, caller policy.Principal, in SubmissionInput, files []FileUpload) (*models.Submission, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, apperr.InvalidOperation("Title is required")
	}
	if _, ok := models.ParsePillar(string(in.Pillar)); !ok {
		return nil, apperr.InvalidOperation("Invalid pillar: " + string(in.Pillar))
	}
	if err := validateMetadata(&in.Metadata); err != nil {
		return nil, err
	}
	if len(files) > MaxFilesPerRequest {
		return nil, apperr.InvalidOperation("At most 10 files may be uploaded at once")
	}

	sub := models.Submission{
		UserID:                  caller.ID,
		Title:                   in.Title,
		Pillar:                  in.Pillar,
		Category:                in.Category,
		Description:             in.Description,
		Location:                in.Location,
		Tags:                    in.Tags,
		Status:                  statemachine.InitialStatus,
		Metadata:                in.Metadata,
		IsLinkedToAncestralLand: in.IsLinkedToAncestralLand,
	}
	if in.DateOfDocumentation != nil {
		sub.DateOfDocumentation = *in.DateOfDocumentation
	}

	batch := storage.NewBatch(s.store)
	rows, err := s.uploadFiles(ctx, batch, in.Pillar, files, 0)
	if err != nil {
		batch.Rollback(context.WithoutCancel(ctx))
		return nil, err
	}
	sub.Files = rows

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}
		return tx.Create(&models.SubmissionStatusHistory{
			SubmissionID: sub.ID,
			ToStatus:     sub.Status,
			ChangedBy:    caller.ID,
			Note:         "created",
		}).Error
	})
	if err != nil {
		batch.Rollback(context.WithoutCancel(ctx))
		return nil, apperr.Internal(err, "Failed to create submission")
	}

	logger.L().Info("submission created",
		zap.String("submission_id", sub.ID.String()),
		zap.String("user_id", caller.ID.String()),
		zap.Int("files", len(rows)))
	return &sub, nil
}

func (s *SubmissionService) load(ctx context.Context, db *gorm.DB, id uuid.UUID) (*models.Submission, error) {
	var sub models.Submission
	err := db.WithContext(ctx).Preload("Files", orderedFiles).First(&sub, "id = ?", id).Error
	if err != nil {
		return nil, dbError(err, "Submission not found", "Failed to load submission")
	}
	return &sub, nil
}

// Update applies an owner's edit. New files are appended after the
// existing ones; an Approved submission goes back to Pending.
func (s *SubmissionService) Update(ctx context.Context, caller policy.Principal, id uuid.UUID, patch SubmissionPatch, files []FileUpload) (*models.Submission, error) {
	sub, err := s.load(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if err := policy.RequireOwner(caller, sub.UserID); err != nil {
		return nil, err
	}
	if len(files) > MaxFilesPerRequest {
		return nil, apperr.InvalidOperation("At most 10 files may be uploaded at once")
	}

	if patch.Pillar != nil && *patch.Pillar != sub.Pillar {
		return nil, apperr.InvalidOperation("Pillar cannot be changed after submission")
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apperr.InvalidOperation("Title cannot be empty")
		}
		sub.Title = title
	}
	if patch.Category != nil {
		sub.Category = *patch.Category
	}
	if patch.Description != nil {
		sub.Description = *patch.Description
	}
	if patch.Location != nil {
		sub.Location = *patch.Location
	}
	if patch.Tags != nil {
		sub.Tags = patch.Tags
	}
	if patch.DateOfDocumentation != nil {
		sub.DateOfDocumentation = *patch.DateOfDocumentation
	}
	if patch.Metadata != nil {
		if err := validateMetadata(patch.Metadata); err != nil {
			return nil, err
		}
		sub.Metadata = *patch.Metadata
	}
	if patch.IsLinkedToAncestralLand != nil {
		sub.IsLinkedToAncestralLand = *patch.IsLinkedToAncestralLand
	}

	previous := sub.Status
	sub.Status = statemachine.AfterOwnerEdit(previous)
	if err := statemachine.CanTransition(previous, sub.Status, statemachine.ActorOwner); err != nil {
		return nil, err
	}

	batch := storage.NewBatch(s.store)
	rows, err := s.uploadFiles(ctx, batch, sub.Pillar, files, len(sub.Files))
	if err != nil {
		batch.Rollback(context.WithoutCancel(ctx))
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(sub).Updates(contentColumns(sub)).Error; err != nil {
			return err
		}
		for i := range rows {
			rows[i].SubmissionID = sub.ID
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		if previous == sub.Status {
			return nil
		}
		return tx.Create(&models.SubmissionStatusHistory{
			SubmissionID: sub.ID,
			FromStatus:   previous,
			ToStatus:     sub.Status,
			ChangedBy:    caller.ID,
			Note:         "edited by owner",
		}).Error
	})
	if err != nil {
		batch.Rollback(context.WithoutCancel(ctx))
		return nil, apperr.Internal(err, "Failed to update submission")
	}
	sub.Files = append(sub.Files, rows...)

	if previous != sub.Status {
		logger.L().Info("submission status changed",
			zap.String("submission_id", sub.ID.String()),
			zap.String("from", string(previous)),
			zap.String("to", string(sub.Status)))
	}
	return sub, nil
}

func contentColumns(sub *models.Submission) map[string]any {
	return map[string]any{
		"title":                              sub.Title,
		"category":                           sub.Category,
		"description":                        sub.Description,
		"location_county":                    sub.Location.County,
		"location_sub_county":                sub.Location.SubCounty,
		"location_specific_area":             sub.Location.SpecificArea,
		"tags":                               sub.Tags,
		"date_of_documentation":              sub.DateOfDocumentation,
		"metadata_is_practice_active":        sub.Metadata.IsPracticeActive,
		"metadata_estimated_age_of_practice": sub.Metadata.EstimatedAgeOfPractice,
		"metadata_source_of_information":     sub.Metadata.SourceOfInformation,
		"metadata_sensitivity_level":         sub.Metadata.SensitivityLevel,
		"is_linked_to_ancestral_land":        sub.IsLinkedToAncestralLand,
		"status":                             sub.Status,
	}
}

// SetStatus is the administrator's review action. An empty status or
// empty notes keeps the current value.
func (s *SubmissionService) SetStatus(ctx context.Context, caller policy.Principal, id uuid.UUID, status, notes string) (*models.Submission, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}
	sub, err := s.load(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	previous := sub.Status
	if status != "" {
		next, ok := models.ParseStatus(status)
		if !ok {
			return nil, apperr.InvalidOperation("Invalid status: " + status)
		}
		if err := statemachine.CanTransition(previous, next, statemachine.ActorAdmin); err != nil {
			return nil, err
		}
		sub.Status = next
	}
	if notes != "" {
		sub.AdminNotes = notes
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(sub).Updates(map[string]any{
			"status":      sub.Status,
			"admin_notes": sub.AdminNotes,
		}).Error; err != nil {
			return err
		}
		if previous == sub.Status {
			return nil
		}
		return tx.Create(&models.SubmissionStatusHistory{
			SubmissionID: sub.ID,
			FromStatus:   previous,
			ToStatus:     sub.Status,
			ChangedBy:    caller.ID,
			Note:         notes,
		}).Error
	})
	if err != nil {
		return nil, apperr.Internal(err, "Failed to update submission status")
	}

	logger.L().Info("submission reviewed",
		zap.String("submission_id", sub.ID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(sub.Status)),
		zap.String("admin_id", caller.ID.String()))
	return sub, nil
}

// Get returns one submission with its owner.
func (s *SubmissionService) Get(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	sub, err := s.load(ctx, s.db.Preload("User"), id)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// ListMine returns the caller's submissions, newest first.
func (s *SubmissionService) ListMine(ctx context.Context, caller policy.Principal) ([]models.Submission, error) {
	return s.List(ctx, SubmissionFilter{UserID: caller.ID})
}

// List returns submissions matching f with their owners, newest first.
func (s *SubmissionService) List(ctx context.Context, f SubmissionFilter) ([]models.Submission, error) {
	q := s.db.WithContext(ctx).Preload("User").Preload("Files", orderedFiles)
	if f.Pillar != "" {
		q = q.Where("pillar = ?", f.Pillar)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.County != "" {
		q = q.Where("location_county = ?", f.County)
	}
	if f.UserID != uuid.Nil {
		q = q.Where("user_id = ?", f.UserID)
	}

	var subs []models.Submission
	if err := q.Order("created_at DESC").Find(&subs).Error; err != nil {
		return nil, apperr.Internal(err, "Failed to list submissions")
	}
	return subs, nil
}

// History returns the status audit trail of a submission, oldest first.
func (s *SubmissionService) History(ctx context.Context, id uuid.UUID) ([]models.SubmissionStatusHistory, error) {
	db := s.db.WithContext(ctx)
	if err := db.Select("id").First(&models.Submission{}, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "Submission not found", "Failed to load submission")
	}
	var history []models.SubmissionStatusHistory
	if err := db.Where("submission_id = ?", id).Order("created_at ASC, id ASC").Find(&history).Error; err != nil {
		return nil, apperr.Internal(err, "Failed to load history")
	}
	return history, nil
}

// Delete removes a submission. Allowed for the owner and administrators.
func (s *SubmissionService) Delete(ctx context.Context, caller policy.Principal, id uuid.UUID) error {
	sub, err := s.load(ctx, s.db, id)
	if err != nil {
		return err
	}
	if err := policy.RequireOwnerOrAdmin(caller, sub.UserID); err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("submission_id = ?", sub.ID).Delete(&models.SubmissionFile{}).Error; err != nil {
			return err
		}
		if err := tx.Where("submission_id = ?", sub.ID).Delete(&models.SubmissionStatusHistory{}).Error; err != nil {
			return err
		}
		res := tx.Delete(sub)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("Submission not found")
	}
	if err != nil {
		return apperr.Internal(err, "Failed to delete submission")
	}

	ids := make([]string, 0, len(sub.Files))
	for _, f := range sub.Files {
		if f.PublicID != "" {
			ids = append(ids, f.PublicID)
		}
	}
	removeBlobs(context.WithoutCancel(ctx), s.store, ids)

	logger.L().Info("submission deleted",
		zap.String("submission_id", sub.ID.String()),
		zap.String("deleted_by", caller.ID.String()))
	return nil
}
