package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/client"
	"fintrack/internal/core"
	"fintrack/internal/view"
)

// globals holds the options shared by every command.
type globals struct {
	Server  string        `help:"Base URL of the fintrack server." default:"http://localhost:8081" env:"FINTRACK_URL"`
	Timeout time.Duration `help:"Per-request timeout." default:"15s"`
	Retry   time.Duration `help:"How long list, summary and catalog retry a failing server. Zero disables retries." default:"5s"`
	JSON    bool          `help:"Print JSON instead of a table."`

	out io.Writer
	now func() time.Time
}

func (g *globals) client() (*client.Client, error) {
	return client.New(g.Server,
		client.WithHTTPClient(&http.Client{Timeout: g.Timeout}),
		client.WithReadRetries(g.Retry),
	)
}

func (g *globals) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), g.Timeout+g.Retry)
}

// month resolves --month, defaulting to the current month.
func (g *globals) month(flag string) (core.Month, error) {
	if flag == "" {
		return core.CurrentMonth(g.now()), nil
	}
	return core.ParseMonth(flag)
}

// apiError keeps the server's message for rejected input and missing rows;
// other failures also carry their cause.
func apiError(op string, err error) error {
	switch core.KindOf(err) {
	case core.KindInvalidArgument, core.KindNotFound:
		return errors.New(core.UserMessage(op, err))
	default:
		return fmt.Errorf("%s: %w", core.UserMessage(op, err), err)
	}
}

func (g *globals) printJSON(v any) error {
	enc := json.NewEncoder(g.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (g *globals) printTransactions(txs []core.Transaction) error {
	if g.JSON {
		return g.printJSON(txs)
	}
	tw := tabwriter.NewWriter(g.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tCATEGORY\tAMOUNT\tPAYMENT\tPERSON\tDESCRIPTION")
	for _, r := range view.Rows(txs) {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Date, r.TypeName, r.Category, r.Amount, r.Payment, r.Person, r.Description)
	}
	return tw.Flush()
}

type listCmd struct {
	Month string `help:"Month as YYYY-MM. Defaults to the current month."`
}

func (c *listCmd) Run(g *globals) error {
	m, err := g.month(c.Month)
	if err != nil {
		return err
	}
	api, err := g.client()
	if err != nil {
		return err
	}
	ctx, cancel := g.context()
	defer cancel()

	txs, err := api.List(ctx, m.String())
	if err != nil {
		return apiError(core.OpList, err)
	}
	txs = view.InMonth(txs, m)
	view.SortByDateDesc(txs)
	return g.printTransactions(txs)
}

// inputFlags are the editable fields of a transaction.
type inputFlags struct {
	Date        string `help:"Date as YYYY-MM-DD. Defaults to today."`
	Type        string `help:"Transaction type." default:"expense"`
	Category    string `required:"" help:"Category; see 'fintrackctl catalog'."`
	Amount      string `required:"" help:"Amount, up to two decimals."`
	Payment     string `help:"Payment method (cash, bank, credit, upi)." default:"cash"`
	BankAccount string `name:"bank-account" help:"Bank account id, for bank payments."`
	CreditCard  string `name:"credit-card" help:"Credit card id, for credit payments."`
	Person      string `help:"Counterparty, for lent, borrowed, received and shared types."`
	Description string `help:"Free-text note."`
}

func (f inputFlags) input(now time.Time) (core.Input, error) {
	date := f.Date
	if date == "" {
		date = now.Format(core.DateLayout)
	}
	return view.Draft{
		Date:          date,
		Type:          f.Type,
		Category:      f.Category,
		Amount:        f.Amount,
		PaymentMethod: f.Payment,
		BankAccount:   f.BankAccount,
		CreditCard:    f.CreditCard,
		Person:        f.Person,
		Description:   f.Description,
	}.Input()
}

type addCmd struct {
	Input inputFlags `embed:""`

	Key string `help:"Idempotency key; retries with the same key never create a second row. Generated when empty."`
}

func (c *addCmd) Run(g *globals) error {
	in, err := c.Input.input(g.now())
	if err != nil {
		return err
	}
	key := c.Key
	if key == "" {
		key = uuid.NewString()
	}
	api, err := g.client()
	if err != nil {
		return err
	}
	ctx, cancel := g.context()
	defer cancel()

	t, err := api.CreateWithKey(ctx, in, key)
	if err != nil {
		return apiError(core.OpCreate, err)
	}
	return g.printTransactions([]core.Transaction{t})
}

type updateCmd struct {
	ID    int64      `arg:"" help:"Transaction id."`
	Input inputFlags `embed:""`
}

func (c *updateCmd) Run(g *globals) error {
	in, err := c.Input.input(g.now())
	if err != nil {
		return err
	}
	api, err := g.client()
	if err != nil {
		return err
	}
	ctx, cancel := g.context()
	defer cancel()

	t, err := api.Update(ctx, c.ID, in)
	if err != nil {
		return apiError(core.OpUpdate, err)
	}
	return g.printTransactions([]core.Transaction{t})
}

type deleteCmd struct {
	ID int64 `arg:"" help:"Transaction id."`
}

func (c *deleteCmd) Run(g *globals) error {
	api, err := g.client()
	if err != nil {
		return err
	}
	ctx, cancel := g.context()
	defer cancel()

	if err := api.Delete(ctx, c.ID); err != nil {
		return apiError(core.OpDelete, err)
	}
	fmt.Fprintf(g.out, "Transaction %d deleted\n", c.ID)
	return nil
}

type summaryCmd struct {
	Month string `help:"Month as YYYY-MM. Defaults to the current month."`
}

func (c *summaryCmd) Run(g *globals) error {
	m, err := g.month(c.Month)
	if err != nil {
		return err
	}
	api, err := g.client()
	if err != nil {
		return err
	}
	ctx, cancel := g.context()
	defer cancel()

	txs, err := api.List(ctx, m.String())
	if err != nil {
		return apiError(core.OpList, err)
	}
	items := view.Summary(core.Summarize(view.InMonth(txs, m)))
	if g.JSON {
		out := make(map[core.Type]string, len(items))
		for _, it := range items {
			out[it.Type] = it.Total.StringFixed(2)
		}
		return g.printJSON(out)
	}

	fmt.Fprintln(g.out, m.Label())
	tw := tabwriter.NewWriter(g.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t\n", it.Name, it.Amount)
	}
	return tw.Flush()
}

type catalogCmd struct{}

func (c *catalogCmd) Run(g *globals) error {
	api, err := g.client()
	if err != nil {
		return err
	}
	ctx, cancel := g.context()
	defer cancel()

	cat, err := api.Catalog(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if g.JSON {
		return g.printJSON(cat)
	}

	tw := tabwriter.NewWriter(g.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tNAME\tCATEGORIES")
	for _, t := range cat.Types {
		name := t.Name
		if !t.Offered {
			name += " (legacy)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%v\n", t.ID, name, cat.Categories[t.ID])
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "PAYMENT\tNAME\t")
	for _, p := range cat.PaymentMethods {
		fmt.Fprintf(tw, "%s\t%s\t\n", p.ID, p.Name)
	}
	for _, o := range cat.BankAccounts {
		fmt.Fprintf(tw, "bank:%s\t%s\t\n", o.ID, o.Name)
	}
	for _, o := range cat.CreditCards {
		fmt.Fprintf(tw, "credit:%s\t%s\t\n", o.ID, o.Name)
	}
	return tw.Flush()
}
