package service

import (
	"context"
	"fmt"
	"time"

	"github.com/questlog-app/questlog/internal/config"
	"github.com/questlog-app/questlog/internal/logger"
	"github.com/questlog-app/questlog/internal/store"
	"github.com/questlog-app/questlog/internal/utils"
	"github.com/questlog-app/questlog/models"
	"golang.org/x/crypto/bcrypt"
)

// authService is the concrete implementation of [AuthService]. It
// handles registration, credential verification, and the JWT token
// lifecycle using a UserRepository for persistence and bcrypt for
// password hashing.
type authService struct {
	userRepository store.UserRepository

	// tokenSignKey is the HMAC secret used to sign and verify JWTs.
	tokenSignKey string

	// tokenIssuer is the "iss" claim embedded in every issued JWT.
	// Tokens whose issuer differs are rejected during parsing.
	tokenIssuer string

	// tokenDuration controls how long a newly issued JWT stays valid.
	tokenDuration time.Duration

	logger *logger.Logger
}

// NewAuthService constructs an [AuthService] wired to the given
// UserRepository and populated with security parameters from cfg.
//
// The returned service is safe for concurrent use; all state is
// read-only after construction.
func NewAuthService(userRepository store.UserRepository, cfg config.App, logger *logger.Logger) AuthService {
	return &authService{
		userRepository: userRepository,
		tokenSignKey:   cfg.TokenSignKey,
		tokenIssuer:    cfg.TokenIssuer,
		tokenDuration:  cfg.TokenDuration,
		logger:         logger,
	}
}

// RegisterUser implements [AuthService].
//
// Returns the persisted user (with a server-assigned UserID) or:
//   - ErrInvalidDataProvided if Login or Password is empty.
//   - A wrapped storage error if the repository call fails (e.g. login
//     already taken — see store.ErrLoginTaken).
func (a *authService) RegisterUser(ctx context.Context, user models.User) (models.User, error) {
	log := logger.FromContext(ctx)

	if user.Login == "" || user.Password == "" {
		log.Error().Str("login", user.Login).Msg("invalid user data provided")
		return models.User{}, ErrInvalidDataProvided
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Err(err).Str("login", user.Login).Msg("password hashing failed")
		return models.User{}, fmt.Errorf("password hashing failed: %w", err)
	}
	user.PasswordHash = string(hash)
	user.Password = ""

	registeredUser, err := a.userRepository.CreateUser(ctx, user)
	if err != nil {
		log.Err(err).Str("login", user.Login).Msg("user creation ended with error")
		return models.User{}, fmt.Errorf("user creation ended with error: %w", err)
	}

	return registeredUser, nil
}

// Login implements [AuthService].
//
// Returns the authenticated account or:
//   - ErrInvalidDataProvided if Login or Password is empty.
//   - A wrapped storage error if the lookup fails (e.g. user not found —
//     see store.ErrUserNotFound).
//   - ErrWrongPassword if the password does not match the stored hash.
func (a *authService) Login(ctx context.Context, user models.User) (models.User, error) {
	log := logger.FromContext(ctx)

	if user.Login == "" || user.Password == "" {
		log.Error().Str("login", user.Login).Msg("invalid user data provided")
		return models.User{}, ErrInvalidDataProvided
	}

	foundUser, err := a.userRepository.FindUserByLogin(ctx, user.Login)
	if err != nil {
		log.Err(err).Str("login", user.Login).Msg("user search by login failed")
		return models.User{}, fmt.Errorf("user search by login failed: %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(foundUser.PasswordHash), []byte(user.Password)); err != nil {
		log.Warn().Int64("id", foundUser.UserID).Str("login", foundUser.Login).Msg("wrong password")
		return models.User{}, ErrWrongPassword
	}

	return foundUser, nil
}

// CreateToken implements [AuthService]. The token is signed with the
// configured tokenSignKey, carries the configured tokenIssuer as the
// "iss" claim, and expires after tokenDuration.
func (a *authService) CreateToken(ctx context.Context, user models.User) (models.Token, error) {
	token, err := utils.GenerateJWTToken(a.tokenIssuer, user.UserID, a.tokenDuration, a.tokenSignKey)
	if err != nil {
		return models.Token{}, fmt.Errorf("%w: %w", ErrTokenCreationFailed, err)
	}

	return token, nil
}

// ParseToken implements [AuthService]. It verifies the signature and
// issuer claim; any validation failure (expired, wrong issuer,
// malformed) is normalised to ErrTokenIsExpiredOrInvalid so callers do
// not inspect low-level JWT errors.
func (a *authService) ParseToken(ctx context.Context, tokenString string) (models.Token, error) {
	token, err := utils.ValidateAndParseJWTToken(tokenString, a.tokenSignKey, a.tokenIssuer)
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("token validation failed")
		return models.Token{}, ErrTokenIsExpiredOrInvalid
	}

	return token, nil
}
