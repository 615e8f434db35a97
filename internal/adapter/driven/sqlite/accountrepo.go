package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/model"
	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AccountStore = (*AccountRepo)(nil)

// AccountRepo is the SQLite implementation of the AccountStore port interface.
type AccountRepo struct {
	db *DB
}

// NewAccountRepo creates a new AccountRepo backed by the given DB.
func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

const accountColumns = `id, email, meli_user_id, meli_access_token, meli_refresh_token,
       meli_token_expires_at, meli_last_sync_at, meli_last_publications_sync_at,
       created_at, updated_at`

// Create inserts a new account record.
func (r *AccountRepo) Create(ctx context.Context, account model.Account) error {
	const query = `
		INSERT INTO accounts (
			id, email, meli_user_id, meli_access_token, meli_refresh_token,
			meli_token_expires_at, meli_last_sync_at, meli_last_publications_sync_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		account.ID, account.Email,
		nullInt64(account.MeliUserID), nullString(account.MeliAccessToken), nullString(account.MeliRefreshToken),
		formatNullTime(account.MeliTokenExpiresAt),
		formatNullTime(account.MeliLastSyncAt),
		formatNullTime(account.MeliLastPublicationsSyncAt),
	)
	if err != nil {
		return fmt.Errorf("create account %q: %w", account.Email, err)
	}
	return nil
}

// GetByID retrieves a single account. Returns nil, nil if it does not exist.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`

	account, err := scanAccount(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", id, err)
	}
	return account, nil
}

// Save overwrites the account's mutable fields.
func (r *AccountRepo) Save(ctx context.Context, account model.Account) error {
	const query = `
		UPDATE accounts SET
			email = ?,
			meli_user_id = ?,
			meli_access_token = ?,
			meli_refresh_token = ?,
			meli_token_expires_at = ?,
			meli_last_sync_at = ?,
			meli_last_publications_sync_at = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	res, err := r.db.Writer.ExecContext(ctx, query,
		account.Email,
		nullInt64(account.MeliUserID), nullString(account.MeliAccessToken), nullString(account.MeliRefreshToken),
		formatNullTime(account.MeliTokenExpiresAt),
		formatNullTime(account.MeliLastSyncAt),
		formatNullTime(account.MeliLastPublicationsSyncAt),
		account.ID,
	)
	if err != nil {
		return fmt.Errorf("save account %s: %w", account.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save account %s: rows affected: %w", account.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("save account %s: %w", account.ID, driven.ErrAccountNotFound)
	}
	return nil
}

// ListConnected returns all accounts holding a complete MercadoLibre credential.
func (r *AccountRepo) ListConnected(ctx context.Context) ([]model.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE meli_access_token IS NOT NULL
		  AND meli_refresh_token IS NOT NULL
		  AND meli_token_expires_at IS NOT NULL
		ORDER BY created_at
	`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list connected accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

// scanner abstracts *sql.Row and *sql.Rows for the shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*model.Account, error) {
	var (
		account              model.Account
		meliUserID           sql.NullInt64
		accessToken          sql.NullString
		refreshToken         sql.NullString
		expiresAt            sql.NullString
		lastSyncAt           sql.NullString
		lastPublicationsSync sql.NullString
		createdAt            string
		updatedAt            string
	)

	if err := row.Scan(
		&account.ID, &account.Email,
		&meliUserID, &accessToken, &refreshToken,
		&expiresAt, &lastSyncAt, &lastPublicationsSync,
		&createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	account.MeliUserID = meliUserID.Int64
	account.MeliAccessToken = accessToken.String
	account.MeliRefreshToken = refreshToken.String

	var err error
	if account.MeliTokenExpiresAt, err = parseNullTime(expiresAt); err != nil {
		return nil, fmt.Errorf("parse meli_token_expires_at: %w", err)
	}
	if account.MeliLastSyncAt, err = parseNullTime(lastSyncAt); err != nil {
		return nil, fmt.Errorf("parse meli_last_sync_at: %w", err)
	}
	if account.MeliLastPublicationsSyncAt, err = parseNullTime(lastPublicationsSync); err != nil {
		return nil, fmt.Errorf("parse meli_last_publications_sync_at: %w", err)
	}
	if account.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if account.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &account, nil
}

// nullString converts an empty string to NULL so the connected-state columns
// stay truly absent when disconnected.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt64(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
