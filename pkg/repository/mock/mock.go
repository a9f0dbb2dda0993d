package mock

import (
	"context"
	"sync"

	"github.com/garnizeh/mentorhub/pkg/models"
)

// Test helpers and mocks
type Mocks struct {
	Users *mockUserRepo
}

func NewMocks() *Mocks {
	return &Mocks{
		Users: &mockUserRepo{byID: make(map[int64]*models.User)},
	}
}

type mockUserRepo struct {
	mu        sync.Mutex
	byID      map[int64]*models.User
	nextID    int64
	CreateErr error
	LookupErr error
	BumpErr   error
}

// Add stores a copy of u, assigning an id when it has none.
func (m *mockUserRepo) Add(u models.User) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == 0 {
		m.nextID++
		u.ID = m.nextID
	} else if u.ID > m.nextID {
		m.nextID = u.ID
	}
	m.byID[u.ID] = &u
	return u.ID
}

func (m *mockUserRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	return m.Add(*u), nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) BumpTokenVersion(ctx context.Context, id int64) error {
	if m.BumpErr != nil {
		return m.BumpErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		u.TokenVersion++
	}
	return nil
}
