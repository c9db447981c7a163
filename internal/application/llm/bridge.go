package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tokenrisk/scanner/internal/domain/assessment"
	"github.com/tokenrisk/scanner/internal/domain/evidence"
	domainllm "github.com/tokenrisk/scanner/internal/domain/llm"
	"github.com/tokenrisk/scanner/internal/domain/plan"
	"github.com/tokenrisk/scanner/internal/infra/llm/prompt"
)

// Bridge is the Planner/Assessor use case: it calls a domainllm.Client with
// schema-constrained prompts and validates the result outside the call,
// per the "LLM as a fallible structured-output oracle" design.
type Bridge struct {
	Client        domainllm.Client
	PrimaryModel  string
	FallbackModel string
}

type plannerStep struct {
	Tool    string `json:"tool"`
	StepKey string `json:"stepKey"`
	Reason  string `json:"reason"`
}

type plannerOutput struct {
	Steps []plannerStep `json:"steps"`
}

// Plan proposes an ordered tool plan. The second return value reports
// whether the caller should treat this as a fallback (i.e. the call
// failed and the returned plan is empty) so the runner can emit the right
// warning events and still proceed with the baseline-only merge.
func (b *Bridge) Plan(ctx context.Context, tokenAddress string, avail plan.Availability) (plan.Plan, bool) {
	allowed := allowedToolNames(avail)
	sys := prompt.PlannerSystemPrompt(allowed)
	user := prompt.PlannerUserPrompt(tokenAddress)

	models := b.modelAttempts()
	var lastErr error
	for _, model := range models {
		out, err := b.Client.Complete(ctx, model, sys, user)
		if err != nil {
			lastErr = err
			if errors.Is(err, domainllm.ErrNoOutput) {
				continue
			}
			break
		}

		var parsed plannerOutput
		if err := json.Unmarshal([]byte(out), &parsed); err != nil {
			lastErr = eris.Wrap(err, "planner: decode output")
			continue
		}
		if len(parsed.Steps) == 0 {
			lastErr = eris.New("planner: empty steps")
			continue
		}

		result := make(plan.Plan, 0, len(parsed.Steps))
		for _, s := range parsed.Steps {
			tool := evidence.Tool(s.Tool)
			if !isKnownTool(tool) || !avail.Allows(tool) {
				continue
			}
			stepKey := s.StepKey
			if strings.TrimSpace(stepKey) == "" {
				stepKey = string(tool)
			}
			result = append(result, plan.Step{StepKey: stepKey, Tool: tool, Title: s.Reason, Reason: s.Reason})
		}
		return result, false
	}

	if lastErr != nil {
		zap.L().Warn("planner call failed, falling back to baseline plan", zap.Error(lastErr))
	}
	return nil, true
}

// Assess calls the assessor across the model/payload retry matrix and
// validates citations outside the call. The third return value reports
// whether the returned assessment is the deterministic fallback.
func (b *Bridge) Assess(ctx context.Context, tokenAddress string, ledger *evidence.Ledger, unavailableTools []string) (assessment.Assessment, string, bool) {
	sys := prompt.AssessorSystemPrompt()

	type attempt struct {
		model   string
		payload []evidencePayloadItem
	}

	models := b.modelAttempts()
	var attempts []attempt
	for _, model := range models {
		attempts = append(attempts, attempt{model: model, payload: fullPayload(ledger)})
		attempts = append(attempts, attempt{model: model, payload: compactPayload(ledger)})
	}

	var lastErr error
	for _, a := range attempts {
		body, err := json.Marshal(a.payload)
		if err != nil {
			lastErr = eris.Wrap(err, "assessor: encode evidence payload")
			continue
		}

		out, err := b.Client.Complete(ctx, a.model, sys, prompt.AssessorUserPrompt(tokenAddress, string(body)))
		if err != nil {
			lastErr = err
			if errors.Is(err, domainllm.ErrNoOutput) {
				continue
			}
			break
		}

		var parsed assessment.Assessment
		if err := json.Unmarshal([]byte(out), &parsed); err != nil {
			lastErr = eris.Wrap(err, "assessor: decode output")
			continue
		}

		hydrated := assessment.HydrateEmptyRefs(parsed, ledger)
		if err := assessment.Validate(hydrated, ledger); err != nil {
			lastErr = err
			continue
		}

		return hydrated, a.model, false
	}

	if lastErr != nil {
		zap.L().Warn("assessor call failed, falling back to deterministic assessment", zap.Error(lastErr))
	}
	return assessment.Fallback(assessment.EvidenceIDs(ledger), unavailableTools), "", true
}

// Chat answers a follow-up question about an already-completed scan from a
// bounded evidence snapshot only, per the "answer from snapshot only, cite
// evidence ids" chat contract. It retries once on the fallback model on a
// "no output" error, mirroring the planner's retry policy.
func (b *Bridge) Chat(ctx context.Context, tokenAddress, snapshotJSON string) (string, error) {
	sys := prompt.ChatSystemPrompt()
	user := prompt.ChatUserPrompt(tokenAddress, snapshotJSON)

	var lastErr error
	for _, model := range b.modelAttempts() {
		out, err := b.Client.Complete(ctx, model, sys, user)
		if err != nil {
			lastErr = err
			if errors.Is(err, domainllm.ErrNoOutput) {
				continue
			}
			break
		}

		var parsed struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal([]byte(out), &parsed); err != nil {
			lastErr = eris.Wrap(err, "chat: decode output")
			continue
		}
		if strings.TrimSpace(parsed.Message) == "" {
			lastErr = eris.New("chat: empty message")
			continue
		}
		return parsed.Message, nil
	}
	return "", lastErr
}

func (b *Bridge) modelAttempts() []string {
	if b.FallbackModel == "" || b.FallbackModel == b.PrimaryModel {
		return []string{b.PrimaryModel}
	}
	return []string{b.PrimaryModel, b.FallbackModel}
}

func allowedToolNames(avail plan.Availability) []string {
	var names []string
	for _, t := range evidence.AllTools {
		if avail.Allows(t) {
			names = append(names, string(t))
		}
	}
	return names
}

func isKnownTool(tool evidence.Tool) bool {
	for _, t := range evidence.AllTools {
		if t == tool {
			return true
		}
	}
	return false
}
