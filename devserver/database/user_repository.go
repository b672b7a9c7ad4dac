package database

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	dsmodels "github.com/Ziroworld/ailav-client/devserver/models"
)

// ErrUserNotFound is returned when no account matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailTaken is returned when registering an email that already
// has an account.
var ErrEmailTaken = errors.New("email already exists")

// UserRepository stores accounts.
type UserRepository interface {
	Create(ctx context.Context, user *dsmodels.User) error
	FindByEmail(ctx context.Context, email string) (*dsmodels.User, error)
	FindByID(ctx context.Context, id string) (*dsmodels.User, error)
	Update(ctx context.Context, user *dsmodels.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]dsmodels.User, error)
}

// ConnectPostgres opens the users database and runs migrations.
func ConnectPostgres(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&dsmodels.User{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	log.Println("Connected to PostgreSQL")
	return db
}

// GormUserRepository persists users with GORM.
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, user *dsmodels.User) error {
	var existing dsmodels.User
	if err := r.db.WithContext(ctx).Where("email = ?", user.Email).First(&existing).Error; err == nil {
		return ErrEmailTaken
	}
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*dsmodels.User, error) {
	var user dsmodels.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) FindByID(ctx context.Context, id string) (*dsmodels.User, error) {
	var user dsmodels.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) Update(ctx context.Context, user *dsmodels.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *GormUserRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&dsmodels.User{}, "id = ?", id).Error
}

func (r *GormUserRepository) List(ctx context.Context) ([]dsmodels.User, error) {
	var users []dsmodels.User
	if err := r.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// MemoryUserRepository is the in-process fallback used by tests and
// standalone runs.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*dsmodels.User // keyed by id
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]*dsmodels.User)}
}

func (m *MemoryUserRepository) Create(_ context.Context, user *dsmodels.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrEmailTaken
		}
	}
	clone := *user
	m.users[user.ID.String()] = &clone
	return nil
}

func (m *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*dsmodels.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MemoryUserRepository) FindByID(_ context.Context, id string) (*dsmodels.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *MemoryUserRepository) Update(_ context.Context, user *dsmodels.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID.String()]; !ok {
		return ErrUserNotFound
	}
	clone := *user
	m.users[user.ID.String()] = &clone
	return nil
}

func (m *MemoryUserRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *MemoryUserRepository) List(_ context.Context) ([]dsmodels.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := make([]dsmodels.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, nil
}
