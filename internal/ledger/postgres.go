package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists accounts in PostgreSQL. Row locks via SELECT ... FOR
// UPDATE give the same per-account atomicity the in-memory store provides
// with mutexes.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed account ledger.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const accountColumns = `contract_id, rib, phone, first_name, last_name, company_name, kind, balance, status, created_at, last_updated`

// Create inserts an account record.
func (s *PostgresStore) Create(ctx context.Context, account Account) error {
	_, err := s.db.Exec(ctx, `INSERT INTO accounts (`+accountColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		account.ContractID, account.RIB, account.Phone, account.FirstName, account.LastName,
		account.CompanyName, account.Kind, account.Balance, account.Status,
		account.CreatedAt.UTC(), account.LastUpdated.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAccountExists
	}
	return err
}

// Get fetches an account by contract ID or phone number.
func (s *PostgresStore) Get(ctx context.Context, key string) (Account, error) {
	row := s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts
        WHERE contract_id = $1 OR phone = $1`, key)
	return scanAccount(row)
}

// Credit adds amount to the account balance.
func (s *PostgresStore) Credit(ctx context.Context, key string, amount int64) (Account, error) {
	return s.adjust(ctx, key, amount, false)
}

// Debit removes amount from the account balance, failing without mutation if
// the balance does not cover it.
func (s *PostgresStore) Debit(ctx context.Context, key string, amount int64) (Account, error) {
	return s.adjust(ctx, key, amount, true)
}

func (s *PostgresStore) adjust(ctx context.Context, key string, amount int64, debit bool) (Account, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Account{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	account, err := lockAccount(ctx, tx, key)
	if err != nil {
		return Account{}, err
	}

	if debit {
		if account.Balance < amount {
			return Account{}, ErrInsufficientBalance
		}
		account.Balance -= amount
	} else {
		account.Balance += amount
	}
	account.LastUpdated = time.Now().UTC()

	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = $1, last_updated = $2 WHERE contract_id = $3`,
		account.Balance, account.LastUpdated, account.ContractID); err != nil {
		return Account{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Account{}, err
	}
	return account, nil
}

// Transfer debits the source and credits the destination inside one database
// transaction, locking rows in contract-ID order.
func (s *PostgresStore) Transfer(ctx context.Context, fromKey, toKey string, debit, credit int64) (TransferResult, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return TransferResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	fromID, err := contractIDForKey(ctx, tx, fromKey)
	if err != nil {
		return TransferResult{}, err
	}
	toID, err := contractIDForKey(ctx, tx, toKey)
	if err != nil {
		return TransferResult{}, err
	}
	// Both keys may resolve to one row; the second UPDATE would then clobber
	// the first and mint the credited amount.
	if fromID == toID {
		return TransferResult{}, ErrSameAccount
	}

	// Lock both rows in contract-ID order to avoid deadlock between two
	// opposing transfers.
	locked := make(map[string]Account, 2)
	first, second := fromID, toID
	if second < first {
		first, second = second, first
	}
	for _, id := range []string{first, second} {
		account, err := lockAccount(ctx, tx, id)
		if err != nil {
			return TransferResult{}, err
		}
		locked[id] = account
	}

	from, to := locked[fromID], locked[toID]
	if from.Balance < debit {
		return TransferResult{}, ErrInsufficientBalance
	}

	now := time.Now().UTC()
	from.Balance -= debit
	from.LastUpdated = now
	to.Balance += credit
	to.LastUpdated = now

	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = $1, last_updated = $2 WHERE contract_id = $3`,
		from.Balance, now, from.ContractID); err != nil {
		return TransferResult{}, err
	}
	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = $1, last_updated = $2 WHERE contract_id = $3`,
		to.Balance, now, to.ContractID); err != nil {
		return TransferResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return TransferResult{}, err
	}
	return TransferResult{From: from, To: to}, nil
}

func contractIDForKey(ctx context.Context, tx pgx.Tx, key string) (string, error) {
	var id string
	if err := tx.QueryRow(ctx, `SELECT contract_id FROM accounts WHERE contract_id = $1 OR phone = $1`, key).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrContractNotFound
		}
		return "", err
	}
	return id, nil
}

func lockAccount(ctx context.Context, tx pgx.Tx, key string) (Account, error) {
	row := tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts
        WHERE contract_id = $1 OR phone = $1 FOR UPDATE`, key)
	return scanAccount(row)
}

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	var createdAt, lastUpdated time.Time
	err := row.Scan(&a.ContractID, &a.RIB, &a.Phone, &a.FirstName, &a.LastName,
		&a.CompanyName, &a.Kind, &a.Balance, &a.Status, &createdAt, &lastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrContractNotFound
		}
		return Account{}, err
	}
	a.CreatedAt = createdAt.UTC()
	a.LastUpdated = lastUpdated.UTC()
	return a, nil
}

// PostgresJournal persists journal entries in PostgreSQL.
type PostgresJournal struct {
	db *pgxpool.Pool
}

// NewPostgresJournal constructs a Postgres-backed transaction journal.
func NewPostgresJournal(db *pgxpool.Pool) *PostgresJournal {
	return &PostgresJournal{db: db}
}

// Append inserts a journal entry; a reused reference is rejected.
func (j *PostgresJournal) Append(ctx context.Context, txn Transaction) error {
	_, err := j.db.Exec(ctx, `INSERT INTO transactions
        (reference, type, source, destination, amount, fees, total_fees, status, is_canceled, note, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		txn.Reference, txn.Type, txn.Source, txn.Destination, txn.Amount, txn.Fees,
		txn.TotalFees, txn.Status, txn.IsCanceled, txn.Note, txn.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateReference
	}
	return err
}

// List returns entries involving the account, most recent first.
func (j *PostgresJournal) List(ctx context.Context, accountKey string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := j.db.Query(ctx, `SELECT reference, type, source, destination, amount, fees, total_fees, status, is_canceled, note, created_at
        FROM transactions WHERE source = $1 OR destination = $1
        ORDER BY created_at DESC LIMIT $2`, accountKey, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var tx Transaction
		var createdAt time.Time
		if err := rows.Scan(&tx.Reference, &tx.Type, &tx.Source, &tx.Destination, &tx.Amount,
			&tx.Fees, &tx.TotalFees, &tx.Status, &tx.IsCanceled, &tx.Note, &createdAt); err != nil {
			return nil, err
		}
		tx.CreatedAt = createdAt.UTC()
		out = append(out, tx)
	}
	return out, rows.Err()
}
