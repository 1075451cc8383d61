package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cashwallet/internal/account/models"
	"cashwallet/internal/platform/database"
	"cashwallet/pkg/domain"
	"cashwallet/pkg/platform/outbox"
	"cashwallet/pkg/platform/sentinel"
)

// txAppender writes outbox entries inside a caller-owned transaction.
type txAppender interface {
	AppendTx(ctx context.Context, tx *sql.Tx, entry *outbox.Entry) error
}

// PostgresStore persists accounts in PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	events txAppender
}

func NewPostgres(db *sql.DB, events txAppender) *PostgresStore {
	return &PostgresStore{db: db, events: events}
}

const accountColumns = `id, email, first_name, last_name, phone, country_code, birth_date, language, role, password_hash, created_at`

// Create inserts the account, its wallets and the creation event in one transaction.
func (s *PostgresStore) Create(ctx context.Context, account *models.Account, wallets []*models.Wallet, event *outbox.Entry) error {
	if account == nil {
		return fmt.Errorf("account is required")
	}

	return database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (`+accountColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			uuid.UUID(account.ID),
			account.Email,
			account.FirstName,
			account.LastName,
			account.Phone,
			account.CountryCode,
			nullDate(account.BirthDate),
			account.Language,
			string(account.Role),
			account.PasswordHash,
			account.CreatedAt,
		)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return fmt.Errorf("account %s: %w", account.Email, sentinel.ErrAlreadyExists)
			}
			return fmt.Errorf("insert account: %w", err)
		}

		for _, w := range wallets {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO wallets (id, account_id, currency, balance_minor, created_at)
				VALUES ($1, $2, $3, $4, $5)`,
				uuid.UUID(w.ID), uuid.UUID(w.AccountID), string(w.Currency), w.BalanceMinor, w.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert %s wallet: %w", w.Currency, err)
			}
		}

		if event != nil && s.events != nil {
			return s.events.AppendTx(ctx, tx, event)
		}
		return nil
	})
}

func (s *PostgresStore) FindByID(ctx context.Context, accountID domain.AccountID) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, uuid.UUID(accountID))
	return scanAccount(row, "find account by id")
}

func (s *PostgresStore) FindByEmail(ctx context.Context, address string) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, address)
	return scanAccount(row, "find account by email")
}

func (s *PostgresStore) ListWallets(ctx context.Context, accountID domain.AccountID) ([]*models.Wallet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, currency, balance_minor, created_at
		FROM wallets
		WHERE account_id = $1
		ORDER BY created_at ASC, currency ASC`, uuid.UUID(accountID))
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []*models.Wallet
	for rows.Next() {
		var (
			walletID, ownerID uuid.UUID
			currency          string
			w                 models.Wallet
		)
		if err := rows.Scan(&walletID, &ownerID, &currency, &w.BalanceMinor, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		w.ID = domain.WalletID(walletID)
		w.AccountID = domain.AccountID(ownerID)
		w.Currency = models.Currency(currency)
		wallets = append(wallets, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallets: %w", err)
	}
	return wallets, nil
}

func scanAccount(row *sql.Row, op string) (*models.Account, error) {
	var (
		accountID uuid.UUID
		birthDate sql.NullTime
		role      string
		a         models.Account
	)
	err := row.Scan(&accountID, &a.Email, &a.FirstName, &a.LastName, &a.Phone, &a.CountryCode,
		&birthDate, &a.Language, &role, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.ID = domain.AccountID(accountID)
	a.Role = models.Role(role)
	if birthDate.Valid {
		d := birthDate.Time
		a.BirthDate = &d
	}
	return &a, nil
}

func nullDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
