package statement

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// nsfKeywords are the description fragments that mark a transaction as a
// non-sufficient-funds event. Matching is case-insensitive; a transaction
// matching several keywords still counts once.
var nsfKeywords = []string{
	"nsf",
	"insufficient funds",
	"overdraft",
	"returned check",
	"returned item",
	"bounce",
	"chargeback",
	"reversal",
	"dishonored",
	"unpaid",
	"refer to maker",
}

// ComputeTotals sums positive amounts as deposits and absolute negative
// amounts as withdrawals, rounded to 2 decimal places.
func ComputeTotals(txns []Transaction) Totals {
	deposits := decimal.Zero
	withdrawals := decimal.Zero

	for _, t := range txns {
		switch t.Amount.Sign() {
		case 1:
			deposits = deposits.Add(t.Amount)
		case -1:
			withdrawals = withdrawals.Add(t.Amount.Neg())
		}
	}

	return Totals{
		TotalDeposits:    deposits.Round(2),
		TotalWithdrawals: withdrawals.Round(2),
	}
}

// NSFCount counts transactions whose description contains an NSF keyword.
func NSFCount(txns []Transaction) int {
	count := 0
	for _, t := range txns {
		desc := strings.ToLower(t.Description)
		for _, kw := range nsfKeywords {
			if strings.Contains(desc, kw) {
				count++
				break
			}
		}
	}
	return count
}

// AverageDailyBalance walks every calendar day from the first to the last
// transaction date (inclusive), applying each day's net transaction amount
// to a running balance seeded with openingBalance, and averages the running
// balance over the day count. Days with no activity carry the prior balance
// forward. An empty transaction set returns the opening balance with 0 days.
func AverageDailyBalance(txns []Transaction, openingBalance decimal.Decimal) BalanceProfile {
	if len(txns) == 0 {
		return BalanceProfile{
			AverageDailyBalance: openingBalance.Round(2),
			PeriodDays:          0,
		}
	}

	dailyNet := make(map[string]decimal.Decimal, len(txns))
	var first, last time.Time
	for i, t := range txns {
		day := t.Date.UTC().Truncate(24 * time.Hour)
		key := day.Format("2006-01-02")
		dailyNet[key] = dailyNet[key].Add(t.Amount)
		if i == 0 || day.Before(first) {
			first = day
		}
		if i == 0 || day.After(last) {
			last = day
		}
	}

	balance := openingBalance
	sum := decimal.Zero
	days := 0
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if net, ok := dailyNet[day.Format("2006-01-02")]; ok {
			balance = balance.Add(net)
		}
		sum = sum.Add(balance)
		days++
	}

	return BalanceProfile{
		AverageDailyBalance: sum.DivRound(decimal.NewFromInt(int64(days)), 2),
		PeriodDays:          days,
	}
}

// PeriodDays returns the inclusive calendar-day span of the transaction set.
func PeriodDays(txns []Transaction) int {
	if len(txns) == 0 {
		return 0
	}
	sorted := make([]Transaction, len(txns))
	copy(sorted, txns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	first := sorted[0].Date.UTC().Truncate(24 * time.Hour)
	last := sorted[len(sorted)-1].Date.UTC().Truncate(24 * time.Hour)
	return int(last.Sub(first).Hours()/24) + 1
}
