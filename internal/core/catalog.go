package core

// Option is an identifier with a display name, as offered by the UI.
type Option struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var typeNames = map[Type]string{
	Expense:       "Regular Expense",
	Lent:          "Money Lent",
	Borrowed:      "Money Borrowed",
	Received:      "Money Received",
	Reimbursement: "Office Reimbursement",
	Shared:        "Shared Expense",
	Salary:        "Salary",
	Investment:    "Investment Returns",
	OtherIncome:   "Other Income",
}

// AllTypes is the union of every type the system has ever accepted, in
// display order. Legacy types stay valid for stored and submitted rows.
var AllTypes = []Type{
	Expense, Lent, Borrowed, Received, Reimbursement, Shared,
	Salary, Investment, OtherIncome,
}

// OfferedTypes are the types the entry form currently offers. Received is
// kept out of the form but remains accepted everywhere else.
var OfferedTypes = []Type{
	Expense, Lent, Borrowed, Reimbursement, Shared,
	Salary, Investment, OtherIncome,
}

var paymentMethodNames = map[PaymentMethod]string{
	Cash:   "Cash",
	Bank:   "Bank Transfer",
	Credit: "Credit Card",
	UPI:    "UPI",
}

var PaymentMethods = []PaymentMethod{Cash, Bank, Credit, UPI}

var BankAccounts = []Option{
	{ID: "hdfc_savings", Name: "HDFC Savings"},
	{ID: "icici_salary", Name: "ICICI Salary Account"},
	{ID: "sbi_savings", Name: "SBI Savings"},
}

var CreditCards = []Option{
	{ID: "hdfc_card", Name: "HDFC Credit Card"},
	{ID: "icici_card", Name: "ICICI Credit Card"},
	{ID: "axis_card", Name: "Axis Credit Card"},
}

// Income category lists, one per income type.
var (
	SalaryCategories      = []string{"Monthly Salary", "Bonus"}
	InvestmentCategories  = []string{"Stock Dividends", "Stock Sale Gains", "Mutual Fund Returns", "Interest Income"}
	OtherIncomeCategories = []string{"Rental Income", "Freelance Income", "Others"}
)

// ExpenseCategories are offered for expense and the legacy counterparty
// types. "Others" is shared with other_income.
var ExpenseCategories = []string{
	"Food & Groceries",
	"Transportation",
	"Shopping",
	"Entertainment",
	"Bills & Utilities",
	"Healthcare",
	"Personal Care",
	"Office Expenses",
	"Loans",
	"Credit Card Bill",
	"Others",
}

// incomeOnly holds categories that are never valid for expense-like types.
var incomeOnly = func() map[string]struct{} {
	shared := map[string]struct{}{}
	for _, c := range ExpenseCategories {
		shared[c] = struct{}{}
	}
	out := map[string]struct{}{}
	for _, list := range [][]string{SalaryCategories, InvestmentCategories, OtherIncomeCategories} {
		for _, c := range list {
			if _, ok := shared[c]; !ok {
				out[c] = struct{}{}
			}
		}
	}
	return out
}()

// AllowedCategories returns the categories offered for t.
func AllowedCategories(t Type) []string {
	switch t {
	case Salary:
		return SalaryCategories
	case Investment:
		return InvestmentCategories
	case OtherIncome:
		return OtherIncomeCategories
	default:
		return ExpenseCategories
	}
}

// CategoryAllowed reports whether category may be used with t. Income types
// are restricted to their list; expense-like types accept any category that
// does not belong exclusively to an income type, so free-form expense
// categories stay valid.
func CategoryAllowed(t Type, category string) bool {
	switch t {
	case Salary, Investment, OtherIncome:
		for _, c := range AllowedCategories(t) {
			if c == category {
				return true
			}
		}
		return false
	default:
		_, income := incomeOnly[category]
		return !income
	}
}

// IsIncome reports whether t is one of the income types.
func (t Type) IsIncome() bool {
	return t == Salary || t == Investment || t == OtherIncome
}

// BankAccountName resolves a bank account id, falling back to the id.
func BankAccountName(id string) string {
	return optionName(BankAccounts, id)
}

// CreditCardName resolves a credit card id, falling back to the id.
func CreditCardName(id string) string {
	return optionName(CreditCards, id)
}

func optionKnown(opts []Option, id string) bool {
	for _, o := range opts {
		if o.ID == id {
			return true
		}
	}
	return false
}

func optionName(opts []Option, id string) string {
	for _, o := range opts {
		if o.ID == id {
			return o.Name
		}
	}
	return id
}

// TypeOption describes a type for catalog consumers.
type TypeOption struct {
	ID      Type   `json:"id"`
	Name    string `json:"name"`
	Offered bool   `json:"offered"`
	Income  bool   `json:"income"`
}

// Catalog is the full set of static options served to clients.
type Catalog struct {
	Types          []TypeOption      `json:"types"`
	PaymentMethods []Option          `json:"paymentMethods"`
	BankAccounts   []Option          `json:"bankAccounts"`
	CreditCards    []Option          `json:"creditCards"`
	Categories     map[Type][]string `json:"categories"`
}

// NewCatalog assembles the catalog from the package-level lists.
func NewCatalog() Catalog {
	offered := map[Type]bool{}
	for _, t := range OfferedTypes {
		offered[t] = true
	}
	c := Catalog{
		BankAccounts: BankAccounts,
		CreditCards:  CreditCards,
		Categories:   map[Type][]string{},
	}
	for _, t := range AllTypes {
		c.Types = append(c.Types, TypeOption{ID: t, Name: t.Name(), Offered: offered[t], Income: t.IsIncome()})
		c.Categories[t] = AllowedCategories(t)
	}
	for _, m := range PaymentMethods {
		c.PaymentMethods = append(c.PaymentMethods, Option{ID: string(m), Name: m.Name()})
	}
	return c
}
