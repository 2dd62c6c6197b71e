package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"gatekeeper/internal/account/models"
	"gatekeeper/pkg/domain"
)

// PostgresDirectory persists accounts in PostgreSQL. Whatever shape the
// columns have, the rest of the engine only ever sees canonical booleans
// and time.Time values; normalization happens here and nowhere else.
type PostgresDirectory struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed directory.
func NewPostgres(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

const accountColumns = `
	id, username, secret_digest, display_name, email, role,
	authorized, blocked, locked, lock_expiry, failed_attempts,
	secret_history, secret_changed_at, force_secret_reset,
	created_at, updated_at`

func (s *PostgresDirectory) Create(ctx context.Context, account *models.Account) error {
	history, err := json.Marshal(account.SecretHistory)
	if err != nil {
		return fmt.Errorf("encode secret history: %w", err)
	}

	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(account.ID),
		account.Username,
		account.SecretDigest,
		account.DisplayName,
		account.Email,
		string(account.Role),
		account.Authorized,
		account.Blocked,
		account.Locked,
		account.LockExpiry,
		account.FailedAttempts,
		history,
		account.SecretChangedAt,
		account.ForceSecretReset,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create account %q: %w", account.Username, ErrDuplicateUsername)
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *PostgresDirectory) FindByID(ctx context.Context, accountID domain.AccountID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	account, err := scanAccount(s.db.QueryRowContext(ctx, query, uuid.UUID(accountID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %s: %w", accountID, ErrNotFound)
		}
		return nil, fmt.Errorf("find account by id: %w", err)
	}
	return account, nil
}

func (s *PostgresDirectory) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	// The username column is case-sensitive by design: matching is
	// case-considered per the uniqueness policy.
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`
	account, err := scanAccount(s.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %q: %w", username, ErrNotFound)
		}
		return nil, fmt.Errorf("find account by username: %w", err)
	}
	return account, nil
}

func (s *PostgresDirectory) List(ctx context.Context) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY username`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

// Update writes identity columns only. Auth-state columns are excluded so
// a snapshot read before a concurrent login transition cannot write stale
// lockout state back over it.
func (s *PostgresDirectory) Update(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts SET
			username = $2, display_name = $3, email = $4, updated_at = now()
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(account.ID),
		account.Username,
		account.DisplayName,
		account.Email,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update account %q: %w", account.Username, ErrDuplicateUsername)
		}
		return fmt.Errorf("update account: %w", err)
	}
	return requireRowAffected(res, account.ID)
}

// UpdateAuthState runs the mutation inside a transaction holding a row
// lock, so two concurrent bad-password attempts cannot both read the same
// counter value and lose an increment or double-fire the lock transition.
func (s *PostgresDirectory) UpdateAuthState(ctx context.Context, accountID domain.AccountID, mutate func(*models.Account) error) (*models.Account, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin auth state tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is a no-op
	}()

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	account, err := scanAccount(tx.QueryRowContext(ctx, query, uuid.UUID(accountID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %s: %w", accountID, ErrNotFound)
		}
		return nil, fmt.Errorf("lock account row: %w", err)
	}

	if err := mutate(account); err != nil {
		return nil, err
	}

	history, err := json.Marshal(account.SecretHistory)
	if err != nil {
		return nil, fmt.Errorf("encode secret history: %w", err)
	}

	update := `
		UPDATE accounts SET
			secret_digest = $2, authorized = $3, blocked = $4, locked = $5,
			lock_expiry = $6, failed_attempts = $7, secret_history = $8,
			secret_changed_at = $9, force_secret_reset = $10, updated_at = now()
		WHERE id = $1
	`
	_, err = tx.ExecContext(ctx, update,
		uuid.UUID(account.ID),
		account.SecretDigest,
		account.Authorized,
		account.Blocked,
		account.Locked,
		account.LockExpiry,
		account.FailedAttempts,
		history,
		account.SecretChangedAt,
		account.ForceSecretReset,
	)
	if err != nil {
		return nil, fmt.Errorf("update auth state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit auth state tx: %w", err)
	}
	return account, nil
}

func (s *PostgresDirectory) Delete(ctx context.Context, accountID domain.AccountID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, uuid.UUID(accountID))
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return requireRowAffected(res, accountID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		account    models.Account
		id         uuid.UUID
		role       string
		lockExpiry sql.NullTime
		history    []byte
	)
	err := row.Scan(
		&id,
		&account.Username,
		&account.SecretDigest,
		&account.DisplayName,
		&account.Email,
		&role,
		&account.Authorized,
		&account.Blocked,
		&account.Locked,
		&lockExpiry,
		&account.FailedAttempts,
		&history,
		&account.SecretChangedAt,
		&account.ForceSecretReset,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.ID = domain.AccountID(id)
	account.Role = models.Role(role)
	if lockExpiry.Valid {
		t := lockExpiry.Time
		account.LockExpiry = &t
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &account.SecretHistory); err != nil {
			return nil, fmt.Errorf("decode secret history: %w", err)
		}
	}
	return &account, nil
}

func requireRowAffected(res sql.Result, accountID domain.AccountID) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return false
}
