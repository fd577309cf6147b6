package app

import (
	"context"
	"errors"
	"strings"
	"sync"

	"healtrack/internal/domain/entity"
	"healtrack/internal/domain/port"
)

// ErrBusy анализ предыдущего фото этого пользователя ещё не закончен.
var ErrBusy = errors.New("analysis already in progress")

// UserService ведёт состояние диалога с ботом.
// Чтение и запись состояния выполняются под одной блокировкой,
// фото разных пользователей обрабатываются параллельно.
type UserService struct {
	mu   sync.Mutex
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.setState(ctx, userID, chatID, state)
}

func (s *UserService) setState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	user.SetState(state)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// BeginCheck переводит пользователя в ожидание фото раны.
func (s *UserService) BeginCheck(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingPhoto)
}

// BeginProcessing отмечает, что фото принято и идёт анализ.
// Если анализ уже идёт, возвращает ErrBusy и текущее состояние.
func (s *UserService) BeginProcessing(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if user.State == entity.StateProcessing {
		return user, ErrBusy
	}
	return s.setState(ctx, userID, chatID, entity.StateProcessing)
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}

// SetPatient запоминает метку пациента. Пустая строка сбрасывает метку.
func (s *UserService) SetPatient(ctx context.Context, userID, chatID int64, patientID string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	user.SetPatient(strings.TrimSpace(patientID))
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Forget стирает состояние диалога и метку пациента.
func (s *UserService) Forget(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.repo.Forget(ctx, userID)
}
