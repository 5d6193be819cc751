package providers

import (
	"context"
	"hash/fnv"
)

// StubSet returns deterministic in-process providers for development and
// testing. Results are a pure function of the subject so repeated analyses
// of the same applicant stay idempotent.
func StubSet() Set {
	return Set{
		Business:     &stubBusiness{},
		Credit:       &stubCredit{},
		Registration: &stubRegistration{},
	}
}

func subjectHash(sub Subject) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sub.BusinessName))
	_, _ = h.Write([]byte(sub.TaxID))
	_, _ = h.Write([]byte(sub.SSN))
	return h.Sum32()
}

type stubBusiness struct{}

func (s *stubBusiness) VerifyBusiness(_ context.Context, sub Subject) (*BusinessVerification, error) {
	verified := subjectHash(sub)%10 < 8 // 80% of subjects verify
	name := sub.BusinessName
	if name == "" {
		name = "UNKNOWN BUSINESS"
	}
	return &BusinessVerification{
		Verified:     &verified,
		BusinessName: name,
		Status:       "completed",
	}, nil
}

type stubCredit struct{}

func (s *stubCredit) CheckCredit(_ context.Context, sub Subject) (*CreditReport, error) {
	// Spread scores across the bureau range, skewed toward the middle.
	score := 520 + int(subjectHash(sub)%280)
	return &CreditReport{Score: score, Bureau: "stub"}, nil
}

type stubRegistration struct{}

func (s *stubRegistration) VerifyRegistration(_ context.Context, sub Subject) (*RegistrationCheck, error) {
	status := RegistrationActive
	if subjectHash(sub)%5 == 0 {
		status = "INACTIVE"
	}
	return &RegistrationCheck{Status: status, Jurisdiction: sub.State}, nil
}
