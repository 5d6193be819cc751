package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/helioslend/helios/internal/statement"
	"github.com/helioslend/helios/internal/waterfall"
)

var (
	ErrInvalidOpeningBalance = errors.New("opening balance is not a valid decimal")
	ErrInvalidTransaction    = errors.New("malformed transaction")
)

// TransactionInput is the wire form of one statement transaction.
// Monetary fields travel as decimal strings. A transaction whose amount
// does not parse is skipped, not an error; a malformed date rejects the
// whole request.
type TransactionInput struct {
	Date        string  `json:"date" binding:"required"`
	Description string  `json:"description"`
	Amount      string  `json:"amount"`
	Balance     *string `json:"balance,omitempty"`
	Category    string  `json:"category,omitempty"`
}

// AnalyzeRequest is the wire form of one analysis request.
type AnalyzeRequest struct {
	AccountID      string                `json:"accountId"`
	OpeningBalance string                `json:"openingBalance"`
	PeriodStart    string                `json:"periodStart,omitempty"`
	PeriodEnd      string                `json:"periodEnd,omitempty"`
	BusinessName   string                `json:"businessName,omitempty"`
	TaxID          string                `json:"taxId,omitempty"`
	SSN            string                `json:"ssn,omitempty"`
	Address        string                `json:"address,omitempty"`
	State          string                `json:"state,omitempty"`
	User           waterfall.UserContext `json:"user"`
	Transactions   []TransactionInput    `json:"transactions" binding:"required"`
}

// Service runs the waterfall pipeline for API callers and persists the
// result.
type Service struct {
	store    Store
	pipeline *waterfall.Service
	logger   *slog.Logger
}

// NewService creates an analysis service over the given store and
// pipeline.
func NewService(store Store, pipeline *waterfall.Service, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, pipeline: pipeline, logger: logger}
}

// Analyze parses the request, runs the full waterfall pipeline, and
// persists the consolidated result.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (*Record, error) {
	txns, stmtCtx, err := parseRequest(req)
	if err != nil {
		return nil, err
	}

	result, err := s.pipeline.Run(ctx, txns, stmtCtx, req.User)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		ID:             result.ID,
		AccountID:      result.AccountID,
		VeritasScore:   result.HeliosEngine.VeritasScore.Score,
		FinalScore:     result.EnhancedRisk.FinalScore,
		Recommendation: string(result.EnhancedRisk.Recommendation),
		Proceeded:      result.Waterfall.CriteriaEvaluation.ShouldProceed,
		TotalCostUSD:   result.Waterfall.TotalCost.StringFixed(2),
		Analysis:       result,
		CreatedAt:      result.CreatedAt,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		s.logger.Error("failed to persist analysis", "analysis_id", rec.ID, "error", err)
		return nil, fmt.Errorf("persist analysis: %w", err)
	}
	return rec, nil
}

// Get returns one persisted analysis by id.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.store.Get(ctx, id)
}

// ListByAccount returns recent analyses for an account, newest first.
func (s *Service) ListByAccount(ctx context.Context, accountID string, limit int, opts ...ListOption) ([]*Record, error) {
	return s.store.ListByAccount(ctx, accountID, limit, opts...)
}

// parseRequest converts the wire request into domain inputs. Transactions
// with unparseable amounts are dropped; an unparseable date or opening
// balance rejects the request.
func parseRequest(req AnalyzeRequest) ([]statement.Transaction, statement.Context, error) {
	opening := decimal.Zero
	if req.OpeningBalance != "" {
		var err error
		opening, err = decimal.NewFromString(req.OpeningBalance)
		if err != nil {
			return nil, statement.Context{}, ErrInvalidOpeningBalance
		}
	}

	txns := make([]statement.Transaction, 0, len(req.Transactions))
	for i, in := range req.Transactions {
		date, err := parseDate(in.Date)
		if err != nil {
			return nil, statement.Context{}, fmt.Errorf("%w: transaction %d has invalid date %q", ErrInvalidTransaction, i, in.Date)
		}
		amount, err := decimal.NewFromString(in.Amount)
		if err != nil {
			continue
		}
		txn := statement.Transaction{
			Date:        date,
			Description: in.Description,
			Amount:      amount,
			Category:    in.Category,
		}
		if in.Balance != nil {
			if bal, err := decimal.NewFromString(*in.Balance); err == nil {
				txn.Balance = &bal
			}
		}
		txns = append(txns, txn)
	}

	stmtCtx := statement.Context{
		OpeningBalance: opening,
		AccountID:      req.AccountID,
		BusinessName:   req.BusinessName,
		TaxID:          req.TaxID,
		SSN:            req.SSN,
		Address:        req.Address,
		State:          req.State,
	}
	if start, err := parseDate(req.PeriodStart); err == nil && req.PeriodStart != "" {
		stmtCtx.PeriodStart = start
	}
	if end, err := parseDate(req.PeriodEnd); err == nil && req.PeriodEnd != "" {
		stmtCtx.PeriodEnd = end
	}
	return txns, stmtCtx, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
