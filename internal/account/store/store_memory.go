package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gatekeeper/internal/account/models"
	"gatekeeper/pkg/domain"
)

// InMemoryDirectory stores accounts in memory, for tests and for running
// without a configured database. The single mutex gives UpdateAuthState
// the same atomicity the postgres store gets from row locking.
type InMemoryDirectory struct {
	mu       sync.RWMutex
	accounts map[domain.AccountID]*models.Account
}

// NewInMemory constructs an empty in-memory directory.
func NewInMemory() *InMemoryDirectory {
	return &InMemoryDirectory{accounts: make(map[domain.AccountID]*models.Account)}
}

func (s *InMemoryDirectory) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.Username == account.Username {
			return fmt.Errorf("create account %q: %w", account.Username, ErrDuplicateUsername)
		}
	}
	s.accounts[account.ID] = account.Clone()
	return nil
}

func (s *InMemoryDirectory) FindByID(_ context.Context, accountID domain.AccountID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if account, ok := s.accounts[accountID]; ok {
		return account.Clone(), nil
	}
	return nil, fmt.Errorf("account %s: %w", accountID, ErrNotFound)
}

func (s *InMemoryDirectory) FindByUsername(_ context.Context, username string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.accounts {
		if account.Username == username {
			return account.Clone(), nil
		}
	}
	return nil, fmt.Errorf("account %q: %w", username, ErrNotFound)
}

func (s *InMemoryDirectory) List(_ context.Context) ([]*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		out = append(out, account.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// Update copies identity fields onto the stored record. Auth state and
// secret material in the caller's snapshot are ignored, matching the
// postgres store's column list.
func (s *InMemoryDirectory) Update(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.accounts[account.ID]
	if !ok {
		return fmt.Errorf("account %s: %w", account.ID, ErrNotFound)
	}
	for _, existing := range s.accounts {
		if existing.ID != account.ID && existing.Username == account.Username {
			return fmt.Errorf("update account %q: %w", account.Username, ErrDuplicateUsername)
		}
	}
	cp := current.Clone()
	cp.Username = account.Username
	cp.DisplayName = account.DisplayName
	cp.Email = account.Email
	cp.UpdatedAt = time.Now()
	s.accounts[account.ID] = cp
	return nil
}

func (s *InMemoryDirectory) UpdateAuthState(_ context.Context, accountID domain.AccountID, mutate func(*models.Account) error) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}

	cp := account.Clone()
	if err := mutate(cp); err != nil {
		return nil, err
	}
	cp.UpdatedAt = time.Now()
	s.accounts[accountID] = cp
	return cp.Clone(), nil
}

func (s *InMemoryDirectory) Delete(_ context.Context, accountID domain.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[accountID]; !ok {
		return fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	delete(s.accounts, accountID)
	return nil
}
