package storage

import (
	"context"
	"sync"

	"healtrack/internal/domain/entity"
	"healtrack/internal/domain/port"
)

// MemoryUserRepository in-memory хранилище состояний диалога.
// Живёт столько же, сколько процесс: метки пациентов не переживают перезапуск.
// Наружу отдаются копии, изменения вступают в силу только через Save.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[int64]*entity.User
}

// NewMemoryUserRepository создаёт новое in-memory хранилище
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[int64]*entity.User),
	}
}

// Get возвращает пользователя по ID, создаёт нового если не найден
func (r *MemoryUserRepository) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	r.mu.RLock()
	user, exists := r.users[userID]
	r.mu.RUnlock()

	if exists {
		return clone(user), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Пока ждали блокировку, пользователя мог создать другой апдейт.
	if user, exists := r.users[userID]; exists {
		return clone(user), nil
	}
	user = entity.NewUser(userID, chatID)
	r.users[userID] = user

	return clone(user), nil
}

// Save сохраняет состояние пользователя
func (r *MemoryUserRepository) Save(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	r.users[user.ID] = clone(user)
	r.mu.Unlock()

	return nil
}

// UpdateState обновляет состояние пользователя
func (r *MemoryUserRepository) UpdateState(ctx context.Context, userID int64, state entity.UserState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, exists := r.users[userID]; exists {
		user.SetState(state)
	}

	return nil
}

// Forget удаляет пользователя вместе с меткой пациента.
func (r *MemoryUserRepository) Forget(ctx context.Context, userID int64) error {
	r.mu.Lock()
	delete(r.users, userID)
	r.mu.Unlock()

	return nil
}

func clone(u *entity.User) *entity.User {
	cp := *u
	return &cp
}

var _ port.UserRepository = (*MemoryUserRepository)(nil)
