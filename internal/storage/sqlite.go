package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

const sqliteColumns = `id, owner, date, type, category, amount, payment_method,
	bank_account, credit_card, person, description, created_at`

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; serialise through one connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunSQLiteMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return core.StoreFailure("ping", err)
	}
	return nil
}

// List returns transactions in [m.Start, m.End). Dates are stored as
// YYYY-MM-DD text so lexical comparison matches calendar order.
func (r *SQLiteRepository) List(ctx context.Context, owner string, m core.Month) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sqliteColumns+`
		 FROM transactions
		 WHERE owner = ? AND date >= ? AND date < ?
		 ORDER BY date DESC, id DESC`,
		owner, m.Start().String(), m.End().String(),
	)
	if err != nil {
		return nil, core.StoreFailure("list transactions", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		t, err := scanSQLite(rows)
		if err != nil {
			return nil, core.StoreFailure("scan transaction", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, core.StoreFailure("list transactions", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, owner string, in core.Input) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO transactions (owner, date, type, category, amount, payment_method,
			bank_account, credit_card, person, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING `+sqliteColumns,
		owner, in.Date.String(), string(in.Type), in.Category, in.Amount.String(), string(in.PaymentMethod),
		in.BankAccount, in.CreditCard, in.Person, in.Description,
		r.now().UTC().Format(time.RFC3339Nano),
	)
	t, err := scanSQLite(row)
	if err != nil {
		return core.Transaction{}, core.StoreFailure("create transaction", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"date", t.Date.String(),
		"type", t.Type,
		"amount", t.Amount.String())
	return t, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, owner string, id int64, in core.Input) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE transactions
		 SET date = ?, type = ?, category = ?, amount = ?, payment_method = ?,
			bank_account = ?, credit_card = ?, person = ?, description = ?
		 WHERE id = ? AND owner = ?
		 RETURNING `+sqliteColumns,
		in.Date.String(), string(in.Type), in.Category, in.Amount.String(), string(in.PaymentMethod),
		in.BankAccount, in.CreditCard, in.Person, in.Description,
		id, owner,
	)
	t, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("update %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, core.StoreFailure("update transaction", err)
	}
	return t, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, owner string, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND owner = ?`, id, owner)
	if err != nil {
		return core.StoreFailure("delete transaction", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.StoreFailure("delete transaction", err)
	}
	if n == 0 {
		return fmt.Errorf("delete %d: %w", id, core.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLite(s scanner) (core.Transaction, error) {
	var (
		t                             core.Transaction
		date, typ, amount, method, ts string
		bank, card, person, desc      sql.NullString
	)
	err := s.Scan(&t.ID, &t.Owner, &date, &typ, &t.Category, &amount, &method,
		&bank, &card, &person, &desc, &ts)
	if err != nil {
		return t, err
	}
	if t.Date, err = core.ParseDate(date); err != nil {
		return t, err
	}
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return t, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
		return t, fmt.Errorf("parse created_at %q: %w", ts, err)
	}
	t.Type = core.Type(typ)
	t.PaymentMethod = core.PaymentMethod(method)
	t.BankAccount = nullString(bank)
	t.CreditCard = nullString(card)
	t.Person = nullString(person)
	t.Description = nullString(desc)
	return t, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
