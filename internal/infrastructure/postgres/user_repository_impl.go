package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/fastbb/internal/domain/entity"
	"github.com/oksasatya/fastbb/internal/domain/repository"
)

const userColumns = `u.id, u.username, u.email, u.avatar_url, u.reg_date, u.last_login, u.is_active, u.is_admin`

type UserRepository struct {
	db TxDB
}

func NewUserRepository(db TxDB) *UserRepository {
	return &UserRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, extra ...any) (*entity.User, error) {
	u := &entity.User{}
	dest := append([]any{&u.ID, &u.Username, &u.Email, &u.AvatarURL, &u.RegDate, &u.LastLogin, &u.IsActive, &u.IsAdmin}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg any) (*entity.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE `+where, arg)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.findOne(ctx, `u.username = $1`, username)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	return r.findOne(ctx, `u.id = $1`, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, `u.email = $1`, email)
}

func (r *UserRepository) FindCredentialByUsername(ctx context.Context, username string) (*entity.StoredCredential, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`, c.password_hash
		FROM users u
		JOIN user_credentials c ON c.user_id = u.id
		WHERE u.username = $1
	`, username)

	var hash string
	u, err := scanUser(row, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &entity.StoredCredential{
		User:       *u,
		Credential: entity.Credential{UserID: u.ID, PasswordHash: hash},
	}, nil
}

// Insert writes the identity and its credential in one transaction.
func (r *UserRepository) Insert(ctx context.Context, sc *entity.StoredCredential) (*entity.User, error) {
	u := sc.User
	err := WithTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO users (username, email, is_active, is_admin)
			VALUES ($1, $2, $3, $4)
			RETURNING id, avatar_url, reg_date, last_login
		`, u.Username, u.Email, u.IsActive, u.IsAdmin)
		if err := row.Scan(&u.ID, &u.AvatarURL, &u.RegDate, &u.LastLogin); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO user_credentials (user_id, password_hash)
			VALUES ($1, $2)
		`, u.ID, sc.Credential.PasswordHash)
		return err
	})
	if err != nil {
		if name, ok := uniqueConstraint(err); ok {
			switch name {
			case "users_email_key":
				return nil, repository.ErrDuplicateEmail
			default:
				return nil, repository.ErrDuplicateUsername
			}
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	sc.User = u
	sc.Credential.UserID = u.ID
	return &u, nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, ts, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(tag)
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id int64, url string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET avatar_url = $1 WHERE id = $2`, url, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(tag)
}

func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]entity.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users u ORDER BY u.id OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
