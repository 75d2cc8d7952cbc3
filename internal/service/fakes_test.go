package service

import (
	"context"
	"slices"
	"sync"

	"dscatalog/internal/model"
)

// memoryUsers is an in-memory user store keyed by id.
type memoryUsers struct {
	mu      sync.Mutex
	users   map[int64]model.User
	nextID  int64
	err     error
	updates int
}

func newMemoryUsers(users ...model.User) *memoryUsers {
	m := &memoryUsers{users: map[int64]model.User{}, nextID: 1}
	for _, u := range users {
		m.users[u.ID] = u
		if u.ID >= m.nextID {
			m.nextID = u.ID + 1
		}
	}
	return m
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return model.User{}, m.err
	}
	for _, u := range m.users {
		if model.NormalizeEmail(u.Email) == model.NormalizeEmail(email) {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (m *memoryUsers) FindAllPaged(_ context.Context, page model.PageRequest) (model.Page[model.User], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int64, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	content := make([]model.User, 0, len(ids))
	for _, id := range ids {
		content = append(content, m.users[id])
	}
	return model.Page[model.User]{Content: content, Total: len(content), Request: page}, nil
}

func (m *memoryUsers) FindByID(_ context.Context, id int64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (m *memoryUsers) Create(_ context.Context, u model.User) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = u
	return u, nil
}

func (m *memoryUsers) Update(_ context.Context, u model.User) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.users[u.ID]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	m.updates++
	u.PasswordHash = existing.PasswordHash
	m.users[u.ID] = u
	return u, nil
}

func (m *memoryUsers) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return model.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}
