package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"heritage-api/apperr"
	"heritage-api/logger"
	"heritage-api/models"
	"heritage-api/policy"
	"heritage-api/storage"
)

const minPasswordLength = 8

// RegisterInput is a self-service contributor registration.
type RegisterInput struct {
	Name           string
	Phone          string
	Location       models.Location
	Clan           string
	ProfilePicture *FileUpload
}

// AdminSeed is the externally configured Super Admin account.
type AdminSeed struct {
	Name     string
	Phone    string
	Email    string
	Password string
}

// SyncResult reports what SyncSuperAdmin did.
type SyncResult string

const (
	SyncSkipped   SyncResult = "skipped"
	SyncCreated   SyncResult = "created"
	SyncUpdated   SyncResult = "updated"
	SyncUnchanged SyncResult = "unchanged"
)

type IdentityService struct {
	db     *gorm.DB
	store  storage.BlobStore
	folder string
	now    func() time.Time
}

// NewIdentityService builds the service. Profile pictures go to
// <uploadFolder>/profiles.
func NewIdentityService(db *gorm.DB, store storage.BlobStore, uploadFolder string) *IdentityService {
	return &IdentityService{db: db, store: store, folder: uploadFolder + "/profiles", now: time.Now}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperr.Internal(err, "Failed to hash password")
	}
	return string(hash), nil
}

func passwordMatches(hash, password string) bool {
	return hash != "" && bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// changedAt is one second behind now so a token issued in the same
// second as the change is still accepted.
func (s *IdentityService) changedAt() *time.Time {
	t := s.now().Add(-time.Second)
	return &t
}

// Register creates a contributor. The phone number must be unused.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Name == "" || in.Phone == "" {
		return nil, apperr.InvalidOperation("Name and phone are required")
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.User{}).Where("phone = ?", in.Phone).Count(&count).Error; err != nil {
		return nil, apperr.Internal(err, "Failed to register user")
	}
	if count > 0 {
		return nil, apperr.Conflict("User already exists with this phone number")
	}

	user := models.User{
		Name:     in.Name,
		Phone:    in.Phone,
		Location: in.Location,
		Clan:     in.Clan,
		Role:     models.RoleContributor,
	}

	batch := storage.NewBatch(s.store)
	if in.ProfilePicture != nil {
		so, err := batch.Upload(ctx, storage.Object{
			Folder:      s.folder,
			Filename:    in.ProfilePicture.Filename,
			ContentType: in.ProfilePicture.ContentType,
			Body:        in.ProfilePicture.Body,
		})
		if err != nil {
			return nil, apperr.Internal(err, "Failed to upload profile picture")
		}
		user.ProfilePicture = so.URL
		user.ProfilePictureID = so.PublicID
	}

	if err := db.Create(&user).Error; err != nil {
		batch.Rollback(context.WithoutCancel(ctx))
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("User already exists with this phone number")
		}
		return nil, apperr.Internal(err, "Failed to register user")
	}

	logger.L().Info("user registered", zap.String("user_id", user.ID.String()))
	return &user, nil
}

// LoginContributor resolves a contributor by phone number.
func (s *IdentityService) LoginContributor(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("phone = ? AND role = ?", strings.TrimSpace(phone), models.RoleContributor).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthorized("User not found or not a contributor")
	}
	if err != nil {
		return nil, apperr.Internal(err, "Failed to log in")
	}
	return &user, nil
}

// LoginAdmin checks an administrator's email and password. Every failure
// yields the same message.
func (s *IdentityService) LoginAdmin(ctx context.Context, email, password string) (*models.User, error) {
	invalid := apperr.Unauthorized("Invalid admin credentials")

	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ? AND role IN ?", strings.ToLower(strings.TrimSpace(email)),
			[]models.Role{models.RoleAdmin, models.RoleSuperAdmin}).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, apperr.Internal(err, "Failed to log in")
	}
	if !passwordMatches(user.PasswordHash, password) {
		return nil, invalid
	}
	return &user, nil
}

func (s *IdentityService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "User not found", "Failed to load user")
	}
	return &user, nil
}

// ChangePassword rotates an administrator's password. Tokens issued
// before the change stop being accepted.
func (s *IdentityService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) (*models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.HasPassword() {
		return nil, apperr.Forbidden("Only administrators have passwords")
	}
	if !passwordMatches(user.PasswordHash, current) {
		return nil, apperr.Unauthorized("Current password is incorrect")
	}
	if len(next) < minPasswordLength {
		return nil, apperr.InvalidOperation("New password must be at least 8 characters")
	}

	hash, err := hashPassword(next)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	user.PasswordChangedAt = s.changedAt()
	if err := s.db.WithContext(ctx).Model(user).Updates(map[string]any{
		"password_hash":       user.PasswordHash,
		"password_changed_at": user.PasswordChangedAt,
	}).Error; err != nil {
		return nil, apperr.Internal(err, "Failed to change password")
	}

	logger.L().Info("password changed", zap.String("user_id", user.ID.String()))
	return user, nil
}

// SyncSuperAdmin makes the stored Super Admin match seed. Running it twice
// with the same seed changes nothing the second time.
func (s *IdentityService) SyncSuperAdmin(ctx context.Context, seed AdminSeed) (SyncResult, error) {
	email := strings.ToLower(strings.TrimSpace(seed.Email))
	if email == "" || seed.Password == "" {
		return SyncSkipped, nil
	}
	db := s.db.WithContext(ctx)

	var admin models.User
	err := db.Where("role = ?", models.RoleSuperAdmin).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = db.Where("email = ?", email).First(&admin).Error
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, err := hashPassword(seed.Password)
		if err != nil {
			return "", err
		}
		admin = models.User{
			Name:              seed.Name,
			Phone:             seed.Phone,
			Email:             &email,
			PasswordHash:      hash,
			Role:              models.RoleSuperAdmin,
			PasswordChangedAt: s.changedAt(),
		}
		if err := db.Create(&admin).Error; err != nil {
			return "", dbError(err, "", "Failed to create super admin")
		}
		logger.L().Info("super admin created", zap.String("email", email))
		return SyncCreated, nil
	case err != nil:
		return "", apperr.Internal(err, "Failed to load super admin")
	}

	sameEmail := admin.Email != nil && *admin.Email == email
	if sameEmail && admin.Role == models.RoleSuperAdmin && passwordMatches(admin.PasswordHash, seed.Password) {
		return SyncUnchanged, nil
	}

	if !sameEmail {
		var holder models.User
		err := db.Where("email = ? AND id <> ?", email, admin.ID).First(&holder).Error
		if err == nil {
			return "", apperr.Conflict(fmt.Sprintf(
				"cannot move super admin to %s: the address belongs to %s account %s",
				email, holder.Role, holder.ID))
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.Internal(err, "Failed to check admin email")
		}
	}

	updates := map[string]any{
		"email": email,
		"role":  models.RoleSuperAdmin,
	}
	if !passwordMatches(admin.PasswordHash, seed.Password) {
		hash, err := hashPassword(seed.Password)
		if err != nil {
			return "", err
		}
		updates["password_hash"] = hash
		updates["password_changed_at"] = s.changedAt()
	}
	if err := db.Model(&admin).Updates(updates).Error; err != nil {
		return "", dbError(err, "", "Failed to update super admin")
	}
	logger.L().Info("super admin updated", zap.String("email", email))
	return SyncUpdated, nil
}

// ListContributors returns every contributor, newest first.
func (s *IdentityService) ListContributors(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).
		Where("role = ?", models.RoleContributor).
		Order("created_at DESC").
		Find(&users).Error; err != nil {
		return nil, apperr.Internal(err, "Failed to list users")
	}
	return users, nil
}

// DeleteUser removes a user together with every submission they own.
// It returns the number of submissions removed.
func (s *IdentityService) DeleteUser(ctx context.Context, caller policy.Principal, target uuid.UUID) (int, error) {
	if err := policy.CanDeleteUser(caller, target); err != nil {
		return 0, err
	}
	user, err := s.GetUser(ctx, target)
	if err != nil {
		return 0, err
	}

	var blobs []string
	var removed int
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		if err := tx.Model(&models.Submission{}).Where("user_id = ?", user.ID).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) > 0 {
			if err := tx.Model(&models.SubmissionFile{}).
				Where("submission_id IN ? AND public_id <> ''", ids).
				Pluck("public_id", &blobs).Error; err != nil {
				return err
			}
			if err := tx.Where("submission_id IN ?", ids).Delete(&models.SubmissionFile{}).Error; err != nil {
				return err
			}
			if err := tx.Where("submission_id IN ?", ids).Delete(&models.SubmissionStatusHistory{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", ids).Delete(&models.Submission{}).Error; err != nil {
				return err
			}
		}
		removed = len(ids)
		return tx.Delete(user).Error
	})
	if err != nil {
		return 0, apperr.Internal(err, "Failed to delete user")
	}

	if user.ProfilePictureID != "" {
		blobs = append(blobs, user.ProfilePictureID)
	}
	removeBlobs(context.WithoutCancel(ctx), s.store, blobs)

	logger.L().Info("user deleted",
		zap.String("user_id", user.ID.String()),
		zap.String("deleted_by", caller.ID.String()),
		zap.Int("submissions", removed))
	return removed, nil
}

// removeBlobs deletes stored objects whose rows are already gone.
func removeBlobs(ctx context.Context, store storage.BlobStore, ids []string) {
	for _, id := range ids {
		if err := store.Delete(ctx, id); err != nil {
			logger.L().Warn("failed to remove blob", zap.String("public_id", id), zap.Error(err))
		}
	}
}
