package assessment

import "errors"

// RiskLevel is the headline risk bucket rendered alongside OverallScore.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Confidence is how much the assessor trusts its own verdict, independent
// of how risky that verdict is.
type Confidence string

const (
	ConfidenceLevelLow    Confidence = "low"
	ConfidenceLevelMedium Confidence = "medium"
	ConfidenceLevelHigh   Confidence = "high"
)

// CategoryScores breaks the overall risk score down by concern, each on a
// 0-100 scale where 100 is maximally risky.
type CategoryScores struct {
	Liquidity    int `json:"liquidity"`
	Ownership    int `json:"ownership"`
	Contract     int `json:"contract"`
	Distribution int `json:"distribution"`
	Trading      int `json:"trading"`
}

// Reason is a single cited finding backing the overall verdict.
type Reason struct {
	Title        string   `json:"title"`
	Detail       string   `json:"detail"`
	EvidenceRefs []string `json:"evidenceRefs"`
}

// Assessment is the final, model-authored risk verdict for a scan, always
// grounded in the scan's evidence ledger via Reason.EvidenceRefs.
type Assessment struct {
	Summary       string         `json:"summary"`
	OverallScore  int            `json:"overallScore"`
	RiskLevel     RiskLevel      `json:"riskLevel"`
	Confidence    Confidence     `json:"confidence"`
	CategoryScores CategoryScores `json:"categoryScores"`
	Reasons       []Reason       `json:"reasons"`
	MissingData   []string       `json:"missingData"`
}

// ErrNoReasons is returned by Validate when an assessment carries zero
// reasons, which is never an acceptable output regardless of risk level.
var ErrNoReasons = errors.New("assessment: no reasons given")

// ErrCitationInvalid is returned by Validate when the summary, riskLevel or
// confidence is invalid, or when a reason fails citation or content checks.
var ErrCitationInvalid = errors.New("assessment: invalid reason")

// Fallback is the deterministic low-confidence assessment substituted
// whenever the LLM bridge cannot produce a valid structured assessment
// after exhausting its retry matrix. unavailableTools lists tools whose
// evidence item came back with status=unavailable, each contributing one
// conditional missingData note.
func Fallback(evidenceRefs []string, unavailableTools []string) Assessment {
	missing := []string{"AI assessment output could not be generated"}
	for _, tool := range unavailableTools {
		missing = append(missing, "Evidence from "+tool+" was unavailable")
	}

	return Assessment{
		Summary:      "Automated risk assessment could not be completed. The collected evidence is available below, but no AI-generated verdict could be produced for this scan.",
		OverallScore: 55,
		RiskLevel:    RiskMedium,
		Confidence:   ConfidenceLevelLow,
		CategoryScores: CategoryScores{
			Liquidity:    50,
			Ownership:    55,
			Contract:     55,
			Distribution: 60,
			Trading:      60,
		},
		Reasons: []Reason{
			{
				Title:        "Automated assessment unavailable",
				Detail:       "The risk model did not return a usable verdict for this scan. Review the evidence items directly before relying on this result.",
				EvidenceRefs: evidenceRefs,
			},
			{
				Title:        "Evidence was still collected",
				Detail:       "All provider evidence gathered before the assessment step remains attached to this scan for manual review.",
				EvidenceRefs: evidenceRefs,
			},
		},
		MissingData: missing,
	}
}
