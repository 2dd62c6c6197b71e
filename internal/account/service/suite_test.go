package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"gatekeeper/internal/account/models"
	"gatekeeper/internal/account/store"
	"gatekeeper/internal/audit"
	"gatekeeper/internal/token"
	"gatekeeper/pkg/secrets"
)

// serviceSuite wires the service against in-memory stores with a
// controllable clock. MinCost keeps the bcrypt work factor cheap.
type serviceSuite struct {
	suite.Suite

	ctx      context.Context
	accounts *store.InMemoryDirectory
	events   *audit.InMemoryStore
	hasher   *secrets.Hasher
	issuer   *token.Issuer
	svc      *Service

	now time.Time
}

func (s *serviceSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	s.accounts = store.NewInMemory()
	s.events = audit.NewInMemoryStore()
	s.hasher = secrets.NewHasher(bcrypt.MinCost)
	s.issuer = token.NewIssuer("test-signing-key", time.Hour, token.WithClock(s.clock))

	recorder := audit.NewRecorder(s.events, audit.WithLogger(logger), audit.WithClock(s.clock))
	s.svc = New(s.accounts, s.hasher, s.issuer, recorder,
		WithLogger(logger),
		WithClock(s.clock),
	)
}

func (s *serviceSuite) clock() time.Time {
	return s.now
}

// advance moves the suite clock forward.
func (s *serviceSuite) advance(d time.Duration) {
	s.now = s.now.Add(d)
}

// register creates an account through the service and returns its ID.
func (s *serviceSuite) register(username, password string) string {
	result, err := s.svc.Register(s.ctx, models.RegisterRequest{
		Username:    username,
		Password:    password,
		DisplayName: "Test Account",
	})
	s.Require().NoError(err)
	return result.AccountID
}

// authorize flips the authorization flag directly through the store.
func (s *serviceSuite) authorize(username string) {
	account, err := s.accounts.FindByUsername(s.ctx, username)
	s.Require().NoError(err)
	_, err = s.accounts.UpdateAuthState(s.ctx, account.ID, func(a *models.Account) error {
		a.Authorized = true
		return nil
	})
	s.Require().NoError(err)
}

// lastEvent returns the newest audit event, failing if there is none.
func (s *serviceSuite) lastEvent() audit.Event {
	events, err := s.events.ListRecent(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().NotEmpty(events)
	return events[0]
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(serviceSuite))
}
