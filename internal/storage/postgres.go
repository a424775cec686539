package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const postgresColumns = `id, owner, date, type, category, amount::text, payment_method,
	bank_account, credit_card, person, description, created_at`

type PostgresRepository struct {
	Pool *pgxpool.Pool
}

// NewPostgresRepository connects to databaseURL and applies migrations.
func NewPostgresRepository(ctx context.Context, databaseURL string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunPostgresMigrations(databaseURL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &PostgresRepository{Pool: pool}, nil
}

func (r *PostgresRepository) Close() error {
	r.Pool.Close()
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	if err := r.Pool.Ping(ctx); err != nil {
		return core.StoreFailure("ping", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, owner string, m core.Month) ([]core.Transaction, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT `+postgresColumns+`
		 FROM transactions
		 WHERE owner = $1
		 AND date >= $2::date
		 AND date < $3::date
		 ORDER BY date DESC, id DESC`,
		owner, m.Start().String(), m.End().String(),
	)
	if err != nil {
		return nil, core.StoreFailure("list transactions", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		t, err := scanPostgres(rows)
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

func (r *PostgresRepository) Create(ctx context.Context, owner string, in core.Input) (core.Transaction, error) {
	row := r.Pool.QueryRow(ctx,
		`INSERT INTO transactions (owner, date, type, category, amount, payment_method,
			bank_account, credit_card, person, description)
		 VALUES ($1, $2::date, $3, $4, $5::numeric, $6, $7, $8, $9, $10)
		 RETURNING `+postgresColumns,
		owner, in.Date.String(), string(in.Type), in.Category, in.Amount.String(), string(in.PaymentMethod),
		in.BankAccount, in.CreditCard, in.Person, in.Description,
	)
	t, err := scanPostgres(row)
	if err != nil {
		return core.Transaction{}, core.StoreFailure("create transaction", err)
	}
	return t, nil
}

func (r *PostgresRepository) Update(ctx context.Context, owner string, id int64, in core.Input) (core.Transaction, error) {
	row := r.Pool.QueryRow(ctx,
		`UPDATE transactions
		 SET date = $1::date,
			type = $2,
			category = $3,
			amount = $4::numeric,
			payment_method = $5,
			bank_account = $6,
			credit_card = $7,
			person = $8,
			description = $9
		 WHERE id = $10 AND owner = $11
		 RETURNING `+postgresColumns,
		in.Date.String(), string(in.Type), in.Category, in.Amount.String(), string(in.PaymentMethod),
		in.BankAccount, in.CreditCard, in.Person, in.Description,
		id, owner,
	)
	t, err := scanPostgres(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("update %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, core.StoreFailure("update transaction", err)
	}
	return t, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, owner string, id int64) error {
	ct, err := r.Pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND owner = $2`, id, owner)
	if err != nil {
		return core.StoreFailure("delete transaction", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("delete %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func scanPostgres(row pgx.Row) (core.Transaction, error) {
	var (
		t           core.Transaction
		date        time.Time
		typ, method string
		amount      string
	)
	err := row.Scan(&t.ID, &t.Owner, &date, &typ, &t.Category, &amount, &method,
		&t.BankAccount, &t.CreditCard, &t.Person, &t.Description, &t.CreatedAt)
	if err != nil {
		return t, err
	}
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return t, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	t.Date = core.NewDate(date.Year(), int(date.Month()), date.Day())
	t.Type = core.Type(typ)
	t.PaymentMethod = core.PaymentMethod(method)
	return t, nil
}
