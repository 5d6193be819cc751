// Package providers defines the external verification provider contracts
// and their implementations: live HTTP adapters for Middesk, iSoftpull,
// and Secretary of State registries, plus deterministic stubs for
// development and testing.
//
// Providers are modeled as opaque collaborators. Each call eventually
// resolves to a result or an error; timeouts and retries live inside the
// adapter so the waterfall core only sees success or failure.
package providers

import (
	"context"
	"errors"
)

// Service names used in execution order and error reporting.
const (
	ServiceMiddesk   = "middesk"
	ServiceISoftpull = "isoftpull"
	ServiceSOS       = "sos"
)

var (
	ErrProviderUnavailable = errors.New("verification provider unavailable")
	ErrSubjectIncomplete   = errors.New("verification subject missing required fields")
)

// Subject is the identity payload sent to verification providers,
// assembled from statement metadata and the requesting user context.
type Subject struct {
	BusinessName string `json:"businessName,omitempty"`
	TaxID        string `json:"taxId,omitempty"`
	SSN          string `json:"ssn,omitempty"`
	Address      string `json:"address,omitempty"`
	State        string `json:"state,omitempty"`
}

// BusinessVerification is the Middesk-style business identity result.
// Verified is nil when the provider could not make a determination;
// that is distinct from an explicit false.
type BusinessVerification struct {
	Verified     *bool  `json:"verified,omitempty"`
	BusinessName string `json:"businessName,omitempty"`
	Status       string `json:"status,omitempty"`
}

// CreditReport is the iSoftpull-style soft credit pull result.
type CreditReport struct {
	Score  int    `json:"score"`
	Bureau string `json:"bureau,omitempty"`
}

// RegistrationCheck is the Secretary of State registration result.
type RegistrationCheck struct {
	Status       string `json:"status"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
}

// RegistrationActive is the SOS status that earns a score adjustment.
const RegistrationActive = "ACTIVE"

// BusinessVerifier verifies business identity (Middesk).
type BusinessVerifier interface {
	VerifyBusiness(ctx context.Context, sub Subject) (*BusinessVerification, error)
}

// CreditChecker runs a soft credit pull (iSoftpull).
type CreditChecker interface {
	CheckCredit(ctx context.Context, sub Subject) (*CreditReport, error)
}

// RegistrationVerifier checks state registration status (SOS).
type RegistrationVerifier interface {
	VerifyRegistration(ctx context.Context, sub Subject) (*RegistrationCheck, error)
}

// Set bundles one adapter per provider for injection into the waterfall
// executor. Implementations are swapped per environment: live HTTP
// adapters in production, deterministic stubs in development and tests.
type Set struct {
	Business     BusinessVerifier
	Credit       CreditChecker
	Registration RegistrationVerifier
}
