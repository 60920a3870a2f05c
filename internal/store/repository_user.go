package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/questlog-app/questlog/internal/logger"
	"github.com/questlog-app/questlog/models"
)

// userRepository is the PostgreSQL-backed implementation of
// [UserRepository].
type userRepository struct {
	*DB
	logger *logger.Logger
}

// NewUserRepository constructs a [UserRepository] backed by the
// provided database connection and logger.
func NewUserRepository(db *DB, logger *logger.Logger) UserRepository {
	return &userRepository{
		DB:     db,
		logger: logger,
	}
}

// CreateUser implements [UserRepository]. A unique-violation on the
// login column is translated into [ErrLoginTaken].
func (p *userRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	log := logger.FromContext(ctx)

	query, args, err := psql.
		Insert("users").
		Columns("login", "password_hash").
		Values(user.Login, user.PasswordHash).
		Suffix("RETURNING user_id, login, password_hash, created_at").
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "userRepository.CreateUser").Str("login", user.Login).
			Msg("failed to build insert query")
		return models.User{}, fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	var created models.User
	err = p.DB.QueryRowContext(ctx, query, args...).
		Scan(&created.UserID, &created.Login, &created.PasswordHash, &created.CreatedAt)
	if err != nil {
		if postgresErrorCode(err) == pgerrcode.UniqueViolation {
			log.Warn().Str("func", "userRepository.CreateUser").Str("login", user.Login).
				Msg("login already registered")
			return models.User{}, fmt.Errorf("%w: %s", ErrLoginTaken, user.Login)
		}
		log.Err(err).Str("func", "userRepository.CreateUser").Str("login", user.Login).
			Msg("failed to execute insert")
		return models.User{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return created, nil
}

// FindUserByLogin implements [UserRepository]. An absent login is
// reported as [ErrUserNotFound].
func (p *userRepository) FindUserByLogin(ctx context.Context, login string) (models.User, error) {
	log := logger.FromContext(ctx)

	query, args, err := psql.
		Select("user_id", "login", "password_hash", "created_at").
		From("users").
		Where(sq.Eq{"login": login}).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "userRepository.FindUserByLogin").Str("login", login).
			Msg("failed to build select query")
		return models.User{}, fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	var found models.User
	err = p.DB.QueryRowContext(ctx, query, args...).
		Scan(&found.UserID, &found.Login, &found.PasswordHash, &found.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("%w: %s", ErrUserNotFound, login)
		}
		log.Err(err).Str("func", "userRepository.FindUserByLogin").Str("login", login).
			Msg("failed to execute select")
		return models.User{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return found, nil
}
