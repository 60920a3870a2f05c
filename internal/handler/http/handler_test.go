package http

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/questlog-app/questlog/internal/logger"
	"github.com/questlog-app/questlog/internal/service"
	"github.com/questlog-app/questlog/models"
)

// ─────────────────────────────────────────────
// Mock AuthService
// ─────────────────────────────────────────────

// mockAuthService implements service.AuthService for unit tests.
// Each method field can be overridden per test case.
type mockAuthService struct {
	registerUserFn func(ctx context.Context, user models.User) (models.User, error)
	loginFn        func(ctx context.Context, user models.User) (models.User, error)
	createTokenFn  func(ctx context.Context, user models.User) (models.Token, error)
	parseTokenFn   func(ctx context.Context, tokenString string) (models.Token, error)
}

func (m *mockAuthService) RegisterUser(ctx context.Context, user models.User) (models.User, error) {
	return m.registerUserFn(ctx, user)
}

func (m *mockAuthService) Login(ctx context.Context, user models.User) (models.User, error) {
	return m.loginFn(ctx, user)
}

func (m *mockAuthService) CreateToken(ctx context.Context, user models.User) (models.Token, error) {
	return m.createTokenFn(ctx, user)
}

func (m *mockAuthService) ParseToken(ctx context.Context, tokenString string) (models.Token, error) {
	return m.parseTokenFn(ctx, tokenString)
}

// ─────────────────────────────────────────────
// Mock RecordService
// ─────────────────────────────────────────────

// mockRecordService implements service.RecordService for unit tests.
type mockRecordService struct {
	fetchSinceFn func(ctx context.Context, userID int64, table string, since *time.Time) ([]models.Record, error)
	upsertFn     func(ctx context.Context, userID int64, table string, rec models.Record) (models.Record, error)
	deleteFn     func(ctx context.Context, userID int64, table, id string) (bool, error)
}

func (m *mockRecordService) FetchSince(ctx context.Context, userID int64, table string, since *time.Time) ([]models.Record, error) {
	return m.fetchSinceFn(ctx, userID, table, since)
}

func (m *mockRecordService) Upsert(ctx context.Context, userID int64, table string, rec models.Record) (models.Record, error) {
	return m.upsertFn(ctx, userID, table, rec)
}

func (m *mockRecordService) Delete(ctx context.Context, userID int64, table, id string) (bool, error) {
	return m.deleteFn(ctx, userID, table, id)
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

// newTestHandler builds a Handler over the given service mocks. Nil mocks
// are fine for tests that never reach the corresponding service.
func newTestHandler(t *testing.T, auth service.AuthService, records service.RecordService) *Handler {
	t.Helper()
	svcs := &service.Services{
		AuthService:   auth,
		RecordService: records,
	}
	return NewHandler(svcs, NewHub(logger.Nop()), logger.Nop())
}

// alwaysAuthorized returns an AuthService mock whose ParseToken accepts any
// token and resolves it to the given user id. Used to drive requests
// through the auth middleware in routed tests.
func alwaysAuthorized(userID int64) *mockAuthService {
	return &mockAuthService{
		parseTokenFn: func(_ context.Context, _ string) (models.Token, error) {
			return models.Token{UserID: userID}, nil
		},
	}
}

// userBody serialises a models.User to a JSON request body string.
func userBody(t *testing.T, u models.User) string {
	t.Helper()
	b, err := json.Marshal(u)
	require.NoError(t, err)
	return string(b)
}

// stubToken returns a models.Token with the given signed string.
func stubToken(signed string) models.Token {
	return models.Token{SignedString: signed}
}

// validUser is a convenience fixture used across multiple tests.
var validUser = models.User{
	Login:    "alice",
	Password: "open-sesame",
}
