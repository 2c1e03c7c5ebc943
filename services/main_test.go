package services

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"heritage-api/config"
	"heritage-api/logger"
	"heritage-api/models"
	"heritage-api/policy"
	"heritage-api/storage"
)

func TestMain(m *testing.M) {
	if _, err := logger.Init("error", "json"); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, config.Migrate(db))
	return db
}

type fixture struct {
	db          *gorm.DB
	store       *storage.MemoryStore
	identity    *IdentityService
	submissions *SubmissionService
	reports     *ReportService
}

func newFixture(t *testing.T) *fixture {
	db := newTestDB(t)
	store := storage.NewMemoryStore()
	subs := NewSubmissionService(db, store, "bc4p")
	return &fixture{
		db:          db,
		store:       store,
		identity:    NewIdentityService(db, store, "bc4p"),
		submissions: subs,
		reports:     NewReportService(db, subs),
	}
}

func (f *fixture) contributor(t *testing.T, phone string) policy.Principal {
	t.Helper()
	u, err := f.identity.Register(context.Background(), RegisterInput{Name: "Contributor " + phone, Phone: phone})
	require.NoError(t, err)
	return policy.Principal{ID: u.ID, Role: u.Role}
}

func (f *fixture) admin(t *testing.T) policy.Principal {
	t.Helper()
	_, err := f.identity.SyncSuperAdmin(context.Background(), AdminSeed{
		Name: "Super Admin", Phone: "0000000000", Email: "admin@example.org", Password: "initial-pass",
	})
	require.NoError(t, err)
	var u models.User
	require.NoError(t, f.db.Where("role = ?", models.RoleSuperAdmin).First(&u).Error)
	return policy.Principal{ID: u.ID, Role: u.Role}
}

func (f *fixture) submit(t *testing.T, owner policy.Principal, title string, pillar models.Pillar, files ...FileUpload) *models.Submission {
	t.Helper()
	sub, err := f.submissions.Create(context.Background(), owner, SubmissionInput{Title: title, Pillar: pillar}, files)
	require.NoError(t, err)
	return sub
}

func textFile(name string) FileUpload {
	return FileUpload{Filename: name, ContentType: "text/plain", Body: strings.NewReader("content of " + name)}
}

// mockStore is a BlobStore whose calls are scripted per test.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) Upload(ctx context.Context, obj storage.Object) (storage.StoredObject, error) {
	args := m.Called(ctx, obj)
	return args.Get(0).(storage.StoredObject), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, publicID string) error {
	args := m.Called(ctx, publicID)
	return args.Error(0)
}
