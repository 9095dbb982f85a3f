package services_test

import (
	"context"
	"image"
	"io"
	"sync"
	"testing"

	"garage/internal/database"
	"garage/internal/models"
	"garage/internal/repositories"
	"garage/internal/services"
	"garage/internal/storage"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil && user.ID == 0 {
		user.ID = 1
	}
	return args.Error(0)
}

func (m *MockUserRepository) Save(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, query string) ([]models.User, error) {
	args := m.Called(ctx, query)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// recordingMailer keeps every message it is asked to send.
type recordingMailer struct {
	mu   sync.Mutex
	sent []services.Message
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, msg services.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

// recordingPublisher keeps every event it is asked to publish.
type recordingPublisher struct {
	mu     sync.Mutex
	events []services.Event
}

func (p *recordingPublisher) PublishEvent(ctx context.Context, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event.(services.Event))
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// failingBackend wraps a backend and fails the selected save operations.
type failingBackend struct {
	storage.Backend
	failImages    bool
	failGenerated bool
}

func (b *failingBackend) SaveImage(ctx context.Context, content io.Reader, filename string, ownerID uint, kind storage.ImageKind) (string, error) {
	if b.failImages {
		return "", io.ErrShortWrite
	}
	return b.Backend.SaveImage(ctx, content, filename, ownerID, kind)
}

func (b *failingBackend) SaveGeneratedImage(ctx context.Context, img image.Image, ownerID uint) (string, error) {
	if b.failGenerated {
		return "", io.ErrShortWrite
	}
	return b.Backend.SaveGeneratedImage(ctx, img, ownerID)
}

// env wires real repositories on an in-memory database to services backed by
// local storage in a temporary directory.
type env struct {
	db        *gorm.DB
	users     *repositories.GORMUserRepository
	boxes     *repositories.GORMBoxRepository
	items     *repositories.GORMItemRepository
	local     *storage.LocalBackend
	backend   *failingBackend
	qr        *services.QRService
	boxSvc    *services.BoxService
	itemSvc   *services.ItemService
	guard     *services.OwnershipGuard
	search    *services.SearchService
	admin     *services.AdminService
	publisher *recordingPublisher
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := zap.NewNop().Sugar()
	db, err := database.Open(database.MemoryDSN(t.Name()), log)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	e := &env{
		db:        db,
		users:     repositories.NewGORMUserRepository(db),
		boxes:     repositories.NewGORMBoxRepository(db),
		items:     repositories.NewGORMItemRepository(db),
		local:     storage.NewLocalBackend(t.TempDir(), log),
		publisher: &recordingPublisher{},
	}
	e.backend = &failingBackend{Backend: e.local}
	e.qr = services.NewQRService(e.backend, log)
	e.boxSvc = services.NewBoxService(e.boxes, e.backend, e.qr, []string{"png", "jpg", "jpeg", "gif", "webp"}, e.publisher, log)
	e.itemSvc = services.NewItemService(e.items, e.boxes, e.publisher, log)
	e.guard = services.NewOwnershipGuard(e.boxes, e.items, log)
	e.search = services.NewSearchService(e.boxes, e.items)
	e.admin = services.NewAdminService(e.users, e.boxes, e.items, e.backend, log)
	return e
}

func (e *env) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", PasswordHash: "hash"}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *env) box(t *testing.T, owner *models.User, name string) *models.Box {
	t.Helper()
	box, err := e.boxSvc.Create(context.Background(), owner.ID, services.BoxInput{Name: name}, nil)
	require.NoError(t, err)
	return box
}

var _ storage.Backend = (*failingBackend)(nil)
