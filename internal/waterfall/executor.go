package waterfall

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/helioslend/helios/internal/providers"
	"github.com/helioslend/helios/internal/statement"
)

// Executor runs the external verification plan. Providers execute in a
// fixed order (middesk, isoftpull, sos) and each failure is isolated: one
// provider going down never aborts the others, and the executor itself
// never returns an error for provider-level problems.
type Executor struct {
	cfg    Config
	set    providers.Set
	logger *slog.Logger
}

// NewExecutor creates an executor over the given provider set.
func NewExecutor(cfg Config, set providers.Set, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{cfg: cfg, set: set, logger: logger}
}

// Execute invokes each provider enabled by the plan. Disabled providers
// are recorded as skipped and appear in neither ExecutionOrder nor Errors.
func (e *Executor) Execute(ctx context.Context, stmtCtx statement.Context, user UserContext, plan APIPlan) *ExternalVerificationResult {
	result := &ExternalVerificationResult{
		TotalCost: decimal.Zero,
		Errors:    []ProviderFailure{},
	}
	sub := buildSubject(stmtCtx, user)

	e.run(ctx, result, providers.ServiceMiddesk, plan.Middesk, e.cfg.MiddeskCost,
		"business verification unavailable; final score carries no middesk adjustment",
		func(callCtx context.Context) error {
			v, err := e.set.Business.VerifyBusiness(callCtx, sub)
			if err != nil {
				return err
			}
			result.Middesk = v
			return nil
		})

	e.run(ctx, result, providers.ServiceISoftpull, plan.ISoftpull, e.cfg.ISoftpullCost,
		"credit pull unavailable; final score carries no bureau adjustment",
		func(callCtx context.Context) error {
			r, err := e.set.Credit.CheckCredit(callCtx, sub)
			if err != nil {
				return err
			}
			result.ISoftpull = r
			return nil
		})

	e.run(ctx, result, providers.ServiceSOS, plan.SOS, e.cfg.SOSCost,
		"registration lookup unavailable; final score carries no registration adjustment",
		func(callCtx context.Context) error {
			r, err := e.set.Registration.VerifyRegistration(callCtx, sub)
			if err != nil {
				return err
			}
			result.SOS = r
			return nil
		})

	return result
}

// run executes one provider call with panic isolation, recording the
// outcome tag plus the aggregate views (execution order, cost, errors).
func (e *Executor) run(ctx context.Context, result *ExternalVerificationResult, service string, enabled bool, cost decimal.Decimal, impact string, call func(context.Context) error) {
	if !enabled {
		result.Outcomes = append(result.Outcomes, Outcome{
			Service: service,
			Status:  OutcomeSkipped,
			Cost:    decimal.Zero,
		})
		return
	}

	start := time.Now()
	err := invoke(ctx, call)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		e.logger.Warn("verification provider failed",
			"provider", service,
			"error", err,
			"duration_ms", elapsed,
		)
		result.Errors = append(result.Errors, ProviderFailure{
			Service: service,
			Error:   err.Error(),
			Impact:  impact,
		})
		result.Outcomes = append(result.Outcomes, Outcome{
			Service:    service,
			Status:     OutcomeFailed,
			Error:      err.Error(),
			Cost:       decimal.Zero,
			DurationMS: elapsed,
		})
		return
	}

	result.ExecutionOrder = append(result.ExecutionOrder, service)
	result.TotalCost = result.TotalCost.Add(cost)
	result.Outcomes = append(result.Outcomes, Outcome{
		Service:    service,
		Status:     OutcomeSuccess,
		Cost:       cost,
		DurationMS: elapsed,
	})
}

// invoke shields the pipeline from a misbehaving adapter: a panic inside
// a provider call becomes an ordinary failure for that provider only.
func invoke(ctx context.Context, call func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panicked: %v", r)
		}
	}()
	return call(ctx)
}

// buildSubject assembles the provider request payload. User-supplied
// identity fields win over statement metadata.
func buildSubject(stmtCtx statement.Context, user UserContext) providers.Subject {
	pick := func(primary, fallback string) string {
		if primary != "" {
			return primary
		}
		return fallback
	}
	return providers.Subject{
		BusinessName: pick(user.BusinessName, stmtCtx.BusinessName),
		TaxID:        pick(user.TaxID, stmtCtx.TaxID),
		SSN:          pick(user.SSN, stmtCtx.SSN),
		Address:      pick(user.Address, stmtCtx.Address),
		State:        pick(user.State, stmtCtx.State),
	}
}
