package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sentinel errors shared by all repository implementations.
var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("user already exists")
)

// Repository persists users.
//
// EnsureAuthKeyByPhone and EnsureAuthKeyByEmail implement the one atomic
// write the handshake needs: create the record with the candidate key on
// first verification, or return the already-stored key. Both must execute
// as a single statement so concurrent first-time verifications cannot
// create duplicate rows.
type Repository interface {
	FindByPhone(ctx context.Context, phone string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByAuthKey(ctx context.Context, authKey string) (User, error)
	CreateEmailUser(ctx context.Context, user User) error
	EnsureAuthKeyByPhone(ctx context.Context, phone, candidate string) (string, error)
	EnsureAuthKeyByEmail(ctx context.Context, email, candidate string) (string, error)
}

const uniqueViolation = "23505"

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed user repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the users table when absent. There are no further
// migrations.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, `CREATE TABLE IF NOT EXISTS users (
        id UUID PRIMARY KEY,
        phone TEXT UNIQUE,
        email TEXT UNIQUE,
        password TEXT NOT NULL DEFAULT '',
        auth_key TEXT NOT NULL DEFAULT '',
        is_premium BOOLEAN NOT NULL DEFAULT FALSE,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`)
	if err != nil {
		return fmt.Errorf("ensure users table: %w", err)
	}
	return nil
}

const selectColumns = `id, COALESCE(phone, ''), COALESCE(email, ''), password, auth_key, is_premium, created_at`

// FindByPhone fetches a user by phone number.
func (r *PostgresRepository) FindByPhone(ctx context.Context, phone string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM users WHERE phone = $1`, phone)
	return scanUser(row)
}

// FindByEmail fetches a user by email address.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// FindByAuthKey fetches the user holding the given auth key.
func (r *PostgresRepository) FindByAuthKey(ctx context.Context, authKey string) (User, error) {
	if authKey == "" {
		return User{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM users WHERE auth_key = $1`, authKey)
	return scanUser(row)
}

// CreateEmailUser inserts a new email-registered user. The auth key stays
// empty until the registration is verified.
func (r *PostgresRepository) CreateEmailUser(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users (id, email, password, created_at)
        VALUES ($1, $2, $3, $4)`, userID, user.Email, user.Password, user.CreatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// EnsureAuthKeyByPhone creates the phone user with candidate as its auth
// key, or returns the key already on record. Single upsert statement per
// the concurrency contract.
func (r *PostgresRepository) EnsureAuthKeyByPhone(ctx context.Context, phone, candidate string) (string, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO users (id, phone, auth_key, created_at)
        VALUES ($1, $2, $3, now())
        ON CONFLICT (phone) DO UPDATE
        SET auth_key = CASE WHEN users.auth_key = '' THEN EXCLUDED.auth_key ELSE users.auth_key END
        RETURNING auth_key`, uuid.New(), phone, candidate)
	var key string
	if err := row.Scan(&key); err != nil {
		return "", err
	}
	return key, nil
}

// EnsureAuthKeyByEmail sets the auth key on the registered email user, or
// creates the record outright if registration was skipped.
func (r *PostgresRepository) EnsureAuthKeyByEmail(ctx context.Context, email, candidate string) (string, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO users (id, email, auth_key, created_at)
        VALUES ($1, $2, $3, now())
        ON CONFLICT (email) DO UPDATE
        SET auth_key = CASE WHEN users.auth_key = '' THEN EXCLUDED.auth_key ELSE users.auth_key END
        RETURNING auth_key`, uuid.New(), email, candidate)
	var key string
	if err := row.Scan(&key); err != nil {
		return "", err
	}
	return key, nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		id        uuid.UUID
		createdAt time.Time
		user      User
	)
	if err := row.Scan(&id, &user.Phone, &user.Email, &user.Password, &user.AuthKey, &user.Premium, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.ID = id.String()
	user.CreatedAt = createdAt.UTC()
	return user, nil
}
