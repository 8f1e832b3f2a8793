package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/relayhq/identity/internal/domain"
	"github.com/relayhq/identity/pkg/database"
	apperrors "github.com/relayhq/identity/pkg/errors"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	pool database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool database.DBTX) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user into the database. A unique violation on
// email or github_username surfaces as ErrAlreadyExists so callers can
// retry the write as an update against the existing row.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, name, email, github_username, credential_ciphertext, credential_iv, credential_auth_tag, credential_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	ciphertext, iv, tag := credentialColumns(u.Credential)

	_, err := r.pool.Exec(ctx, query,
		u.ID,
		u.Name,
		u.Email,
		nullableString(u.GitHubUsername),
		ciphertext,
		iv,
		tag,
		u.CredentialVersion,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, name, email, github_username, credential_ciphertext, credential_iv, credential_auth_tag, credential_version, created_at, updated_at
		FROM users
		WHERE id = $1`

	return r.scanUser(ctx, query, id)
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, name, email, github_username, credential_ciphertext, credential_iv, credential_auth_tag, credential_version, created_at, updated_at
		FROM users
		WHERE email = $1`

	return r.scanUser(ctx, query, email)
}

// GetByGitHubUsername retrieves a user by their linked GitHub login.
func (r *UserRepository) GetByGitHubUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT id, name, email, github_username, credential_ciphertext, credential_iv, credential_auth_tag, credential_version, created_at, updated_at
		FROM users
		WHERE github_username = $1`

	return r.scanUser(ctx, query, username)
}

// Update modifies an existing user in the database.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET name = $1, email = $2, github_username = $3,
		    credential_ciphertext = $4, credential_iv = $5, credential_auth_tag = $6,
		    credential_version = $7, updated_at = $8
		WHERE id = $9`

	ciphertext, iv, tag := credentialColumns(u.Credential)

	ct, err := r.pool.Exec(ctx, query,
		u.Name,
		u.Email,
		nullableString(u.GitHubUsername),
		ciphertext,
		iv,
		tag,
		u.CredentialVersion,
		u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("update user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", u.ID)
	}

	return nil
}

// scanUser is a helper that executes a query expected to return a single user row.
func (r *UserRepository) scanUser(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var (
		u        domain.User
		username *string
		cipher   *string
		iv       *string
		tag      *string
	)

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&username,
		&cipher,
		&iv,
		&tag,
		&u.CredentialVersion,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	if username != nil {
		u.GitHubUsername = *username
	}
	if cipher != nil && iv != nil && tag != nil {
		u.Credential = &domain.EncryptedCredential{
			Ciphertext: *cipher,
			IV:         *iv,
			AuthTag:    *tag,
		}
	}

	return &u, nil
}

func credentialColumns(c *domain.EncryptedCredential) (ciphertext, iv, tag *string) {
	if c == nil {
		return nil, nil, nil
	}
	return &c.Ciphertext, &c.IV, &c.AuthTag
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
