package assessment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenrisk/scanner/internal/domain/evidence"
)

func ledgerWithOneItem() *evidence.Ledger {
	return evidence.NewLedger(evidence.OK("ev_bytecode_aaaa1111", evidence.ToolRPCBytecode, "Check contract bytecode", "", time.Now(), map[string]any{"isContract": true}))
}

func validAssessment() Assessment {
	return Assessment{
		Summary:    "Looks fine",
		RiskLevel:  RiskLow,
		Confidence: ConfidenceLevelHigh,
		Reasons: []Reason{
			{Title: "t", Detail: "d", EvidenceRefs: []string{"ev_bytecode_aaaa1111"}},
		},
	}
}

func TestValidate_RejectsNoReasons(t *testing.T) {
	a := validAssessment()
	a.Reasons = nil
	err := Validate(a, ledgerWithOneItem())
	require.ErrorIs(t, err, ErrNoReasons)
}

func TestValidate_RejectsUnrecognizedRiskLevel(t *testing.T) {
	a := validAssessment()
	a.RiskLevel = "super_safe"
	err := Validate(a, ledgerWithOneItem())
	require.ErrorIs(t, err, ErrCitationInvalid)
}

func TestValidate_RejectsUnrecognizedConfidence(t *testing.T) {
	a := validAssessment()
	a.Confidence = "extreme"
	err := Validate(a, ledgerWithOneItem())
	require.ErrorIs(t, err, ErrCitationInvalid)
}

func TestValidate_RejectsBlankTitleOrDetail(t *testing.T) {
	ledger := ledgerWithOneItem()
	a := validAssessment()
	a.Reasons[0].Title = "  "
	require.ErrorIs(t, Validate(a, ledger), ErrCitationInvalid)

	a = validAssessment()
	a.Reasons[0].Detail = ""
	require.ErrorIs(t, Validate(a, ledger), ErrCitationInvalid)
}

func TestValidate_RejectsBlankSummary(t *testing.T) {
	a := validAssessment()
	a.Summary = "   "
	require.ErrorIs(t, Validate(a, ledgerWithOneItem()), ErrCitationInvalid)
}

func TestValidate_RejectsUnresolvedEvidenceRefs(t *testing.T) {
	a := validAssessment()
	a.Reasons[0].EvidenceRefs = []string{"ev_nonexistent_0000"}
	err := Validate(a, ledgerWithOneItem())
	require.ErrorIs(t, err, ErrCitationInvalid)
}

func TestValidate_AcceptsWellFormedAssessment(t *testing.T) {
	assert.NoError(t, Validate(validAssessment(), ledgerWithOneItem()))
}

func TestHydrateEmptyRefs_FillsEmptyRefsWithFullLedger(t *testing.T) {
	ledger := ledgerWithOneItem()
	a := validAssessment()
	a.Reasons[0].EvidenceRefs = nil
	hydrated := HydrateEmptyRefs(a, ledger)
	assert.Equal(t, EvidenceIDs(ledger), hydrated.Reasons[0].EvidenceRefs)
	require.NoError(t, Validate(hydrated, ledger))
}

func TestFallback_CitesGivenEvidenceIDsAndIncludesMissingDataNotes(t *testing.T) {
	ledger := ledgerWithOneItem()
	ids := EvidenceIDs(ledger)
	fb := Fallback(ids, []string{"holders_getTopHolders"})
	require.NoError(t, Validate(fb, ledger))
	assert.Contains(t, fb.MissingData, "AI assessment output could not be generated")
	assert.Contains(t, fb.MissingData, "Evidence from holders_getTopHolders was unavailable")
}
