// Package statement defines normalized bank-statement transactions and the
// pure metrics computed over them: deposit/withdrawal totals, NSF event
// counts, and average daily balance.
//
// Transactions arrive from an upstream extraction service and are read-only
// here. Amounts are signed decimals: positive = credit, negative = debit.
package statement

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single normalized bank-statement line item.
type Transaction struct {
	Date        time.Time        `json:"date"`
	Description string           `json:"description"`
	Amount      decimal.Decimal  `json:"amount"` // positive = credit, negative = debit
	Balance     *decimal.Decimal `json:"balance,omitempty"`
	Category    string           `json:"category,omitempty"`
}

// IsCredit reports whether the transaction is a deposit.
func (t Transaction) IsCredit() bool {
	return t.Amount.Sign() > 0
}

// Context carries statement-level metadata supplied alongside the
// transactions: the opening balance for balance math and the business
// identity fields used in external verification payloads.
type Context struct {
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	PeriodStart    time.Time       `json:"periodStart,omitempty"`
	PeriodEnd      time.Time       `json:"periodEnd,omitempty"`
	AccountID      string          `json:"accountId,omitempty"`
	BusinessName   string          `json:"businessName,omitempty"`
	TaxID          string          `json:"taxId,omitempty"`
	SSN            string          `json:"ssn,omitempty"`
	Address        string          `json:"address,omitempty"`
	State          string          `json:"state,omitempty"`
}

// Totals holds the deposit and withdrawal sums for a transaction set.
type Totals struct {
	TotalDeposits    decimal.Decimal `json:"totalDeposits"`
	TotalWithdrawals decimal.Decimal `json:"totalWithdrawals"`
}

// BalanceProfile is the result of the daily balance walk.
type BalanceProfile struct {
	AverageDailyBalance decimal.Decimal `json:"averageDailyBalance"`
	PeriodDays          int             `json:"periodDays"`
}
