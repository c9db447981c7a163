package assessment

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/tokenrisk/scanner/internal/domain/evidence"
)

var validRiskLevels = map[RiskLevel]bool{
	RiskLow:      true,
	RiskMedium:   true,
	RiskHigh:     true,
	RiskCritical: true,
}

var validConfidenceLevels = map[Confidence]bool{
	ConfidenceLevelLow:    true,
	ConfidenceLevelMedium: true,
	ConfidenceLevelHigh:   true,
}

// Validate rejects an assessment that the model produced but that does not
// meet the citation and content invariants: a non-empty summary, a
// recognized riskLevel and confidence, at least one reason, every reason
// has a non-blank title and detail, and every evidenceRef on every reason
// resolves to an item actually present in the ledger the assessment was
// generated from — a single fabricated ref invalidates the whole reason.
func Validate(a Assessment, ledger *evidence.Ledger) error {
	if strings.TrimSpace(a.Summary) == "" {
		return eris.Wrap(ErrCitationInvalid, "blank summary")
	}
	if !validRiskLevels[a.RiskLevel] {
		return eris.Wrapf(ErrCitationInvalid, "unrecognized riskLevel %q", a.RiskLevel)
	}
	if !validConfidenceLevels[a.Confidence] {
		return eris.Wrapf(ErrCitationInvalid, "unrecognized confidence %q", a.Confidence)
	}
	if len(a.Reasons) == 0 {
		return ErrNoReasons
	}
	for i, r := range a.Reasons {
		if strings.TrimSpace(r.Title) == "" {
			return eris.Wrapf(ErrCitationInvalid, "reason %d: blank title", i)
		}
		if strings.TrimSpace(r.Detail) == "" {
			return eris.Wrapf(ErrCitationInvalid, "reason %d: blank detail", i)
		}
		if len(r.EvidenceRefs) == 0 {
			return eris.Wrapf(ErrCitationInvalid, "reason %d: no evidenceRefs", i)
		}
		for _, ref := range r.EvidenceRefs {
			if !ledger.HasID(ref) {
				return eris.Wrapf(ErrCitationInvalid, "reason %d: evidenceRef %q does not resolve against the ledger", i, ref)
			}
		}
	}
	return nil
}

// HydrateEmptyRefs fills in the full set of evidence ids for any reason
// whose evidenceRefs came back empty from the model, before validation
// runs, per the LLM bridge's hydrate-then-validate contract.
func HydrateEmptyRefs(a Assessment, ledger *evidence.Ledger) Assessment {
	ids := EvidenceIDs(ledger)
	out := a
	out.Reasons = make([]Reason, len(a.Reasons))
	for i, r := range a.Reasons {
		if len(r.EvidenceRefs) == 0 {
			r.EvidenceRefs = ids
		}
		out.Reasons[i] = r
	}
	return out
}

// EvidenceIDs returns every item id currently in the ledger, used to seed
// Fallback's evidenceRefs so even a degraded assessment cites something real.
func EvidenceIDs(ledger *evidence.Ledger) []string {
	items := ledger.Items()
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}
