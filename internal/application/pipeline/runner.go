package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	applicationllm "github.com/tokenrisk/scanner/internal/application/llm"
	"github.com/tokenrisk/scanner/internal/application/registry"
	"github.com/tokenrisk/scanner/internal/domain/event"
	"github.com/tokenrisk/scanner/internal/domain/evidence"
	"github.com/tokenrisk/scanner/internal/domain/plan"
	"github.com/tokenrisk/scanner/internal/domain/scan"
	"github.com/tokenrisk/scanner/internal/middleware"
)

// Runner executes the plan-merge -> per-step-execute -> assessment state
// machine for a single scan run, emitting the event log as it goes.
type Runner struct {
	Scans          scan.Repository
	Events         event.Repository
	Registry       registry.Registry
	Bridge         *applicationllm.Bridge
	Availability   plan.Availability
	ScannerVersion string
	ScoreVersion   string
}

// Run executes the scan identified by id. It claims the scan (queued ->
// running); a claim failure (the scan is not in "queued") is not an error —
// another worker already owns it, so Run returns nil having done nothing.
func (r *Runner) Run(ctx context.Context, id scan.ID) error {
	s, err := r.Scans.ClaimForRun(ctx, id)
	if err != nil {
		if err == scan.ErrNotFound {
			return nil
		}
		return err
	}

	middleware.IncrementScansRunning()
	defer middleware.DecrementScansRunning()

	start := time.Now()
	r.emit(ctx, id, event.LevelInfo, event.TypeRunStarted, "", "Scan run started", nil)

	r.emit(ctx, id, event.LevelInfo, event.TypeStepStarted, "validate_target", "Validating token address", nil)
	r.emit(ctx, id, event.LevelSuccess, event.TypeStepCompleted, "validate_target", "Token address validated", nil)

	ledger := evidence.NewLedger()
	currentStepKey := "agent_plan"

	merged, err := r.runPlanningStage(ctx, id, s.TokenAddress)
	if err != nil {
		r.fail(ctx, s, ledger, currentStepKey, err, start, false)
		return err
	}

	unavailableTools := make([]string, 0)
	for _, step := range merged {
		currentStepKey = step.StepKey
		item, failFast := r.runStep(ctx, id, step, s.TokenAddress, ledger)
		ledger.Append(item)
		if item.Status == evidence.StatusUnavailable {
			unavailableTools = append(unavailableTools, string(step.Tool))
		}
		if failFast {
			failErr := fmt.Errorf("address does not contain contract bytecode on Base")
			r.emit(ctx, id, event.LevelError, event.TypeStepFailed, step.StepKey, failErr.Error(), nil)
			r.fail(ctx, s, ledger, step.StepKey, failErr, start, true)
			return failErr
		}
	}

	currentStepKey = "agent_assessment"
	r.emit(ctx, id, event.LevelInfo, event.TypeStepStarted, "agent_assessment", "Generating assessment", nil)

	result, modelID, usedFallback := r.Bridge.Assess(ctx, s.TokenAddress, ledger, unavailableTools)
	if usedFallback {
		r.emit(ctx, id, event.LevelWarning, event.TypeLogLine, "agent_assessment", "Assessor unavailable, using deterministic fallback assessment", nil)
	}

	evidencePayload := map[string]any{"items": ledger.Items()}
	assessmentPayload := map[string]any{
		"summary":        result.Summary,
		"overallScore":   result.OverallScore,
		"riskLevel":      string(result.RiskLevel),
		"confidence":     string(result.Confidence),
		"categoryScores": result.CategoryScores,
		"reasons":        result.Reasons,
		"missingData":    result.MissingData,
	}

	durationMS := time.Since(start).Milliseconds()
	if err := r.Scans.Complete(ctx, id, evidencePayload, assessmentPayload, result.Summary, modelID, durationMS); err != nil {
		r.fail(ctx, s, ledger, currentStepKey, err, start, false)
		return err
	}

	middleware.RecordRiskLevel(string(result.RiskLevel))
	r.emit(ctx, id, event.LevelInfo, event.TypeAssessmentFinal, "agent_assessment", "Assessment complete", assessmentPayload)
	r.emit(ctx, id, event.LevelSuccess, event.TypeStepCompleted, "agent_assessment", "Assessment step completed", nil)
	r.emit(ctx, id, event.LevelInfo, event.TypeRunCompleted, "", "Scan run completed", nil)
	return nil
}

// runPlanningStage runs the planner and merges its proposal with the
// baseline plan, emitting the agent_plan step's events either way.
func (r *Runner) runPlanningStage(ctx context.Context, id scan.ID, tokenAddress string) (plan.Plan, error) {
	r.emit(ctx, id, event.LevelInfo, event.TypeStepStarted, "agent_plan", "Proposing an investigation plan", nil)

	proposed, usedFallback := r.Bridge.Plan(ctx, tokenAddress, r.Availability)
	if usedFallback {
		r.emit(ctx, id, event.LevelWarning, event.TypeLogLine, "agent_plan", "Planner unavailable, using baseline plan", nil)
	}

	merged := plan.Merge(proposed, r.Availability)

	planPayload := map[string]any{"steps": merged, "fallback": usedFallback}
	r.emit(ctx, id, event.LevelInfo, event.TypeArtifactPlan, "agent_plan", "Investigation plan ready", planPayload)

	level := event.LevelSuccess
	if usedFallback {
		level = event.LevelWarning
	}
	r.emit(ctx, id, level, event.TypeStepCompleted, "agent_plan", "Plan step completed", nil)

	return merged, nil
}

// runStep executes a single planned step and reports whether the run must
// fail fast (the rpc_getBytecode hasCode=false case).
func (r *Runner) runStep(ctx context.Context, id scan.ID, step plan.Step, tokenAddress string, ledger *evidence.Ledger) (evidence.Item, bool) {
	r.emit(ctx, id, event.LevelInfo, event.TypeStepStarted, step.StepKey, step.Reason, map[string]any{"tool": string(step.Tool)})

	executor, ok := r.Registry.Get(step.Tool)
	var item evidence.Item
	if !ok {
		item = evidence.Unavailable(evidence.NewID(step.Tool), step.Tool, step.Title, "", time.Now(),
			fmt.Errorf("no executor registered for tool %s", step.Tool))
	} else {
		item = executor.Execute(ctx, tokenAddress, *ledger)
	}

	r.emit(ctx, id, event.LevelInfo, event.TypeEvidenceItem, step.StepKey, step.Title, map[string]any{"item": item})

	logLevel := event.LevelInfo
	if item.Status == evidence.StatusUnavailable {
		logLevel = event.LevelWarning
		middleware.IncrementEvidenceUnavailable()
	}
	r.emit(ctx, id, logLevel, event.TypeLogLine, step.StepKey, fmt.Sprintf("%s -> %s", step.Tool, item.Status), nil)

	if step.Tool == evidence.ToolRPCBytecode {
		if hasCode, ok := item.Data["hasCode"].(bool); ok && !hasCode {
			return item, true
		}
	}

	level := event.LevelSuccess
	if item.Status == evidence.StatusUnavailable {
		level = event.LevelWarning
	}
	r.emit(ctx, id, level, event.TypeStepCompleted, step.StepKey, "Step completed", nil)

	return item, false
}

// fail persists the run as failed and emits the failure events. When the
// step-level failure hasn't already been reported (stepFailureReported is
// false), it emits step.failed for stepKey before run.failed, so a
// persistence or planning failure never surfaces as a bare run.failed with
// no corresponding step event.
func (r *Runner) fail(ctx context.Context, s *scan.Scan, ledger *evidence.Ledger, stepKey string, cause error, start time.Time, stepFailureReported bool) {
	evidencePayload := map[string]any{"items": ledger.Items()}
	durationMS := time.Since(start).Milliseconds()

	if err := r.Scans.Fail(ctx, s.ID, evidencePayload, cause.Error(), durationMS); err != nil {
		zap.L().Error("failed to persist failed scan", zap.Error(err), zap.String("scanId", string(s.ID)))
	}
	middleware.IncrementScansFailed()
	if !stepFailureReported {
		r.emit(ctx, s.ID, event.LevelError, event.TypeStepFailed, stepKey, cause.Error(), nil)
	}
	r.emit(ctx, s.ID, event.LevelError, event.TypeRunFailed, stepKey, cause.Error(), nil)
}

func (r *Runner) emit(ctx context.Context, id scan.ID, level event.Level, typ event.Type, stepKey, message string, payload map[string]any) {
	_, err := r.Events.Append(ctx, event.Event{
		ScanID:    id,
		Timestamp: time.Now(),
		Level:     level,
		Type:      typ,
		StepKey:   stepKey,
		Message:   message,
		Payload:   payload,
	})
	if err != nil {
		zap.L().Error("failed to append scan event", zap.Error(err), zap.String("scanId", string(id)), zap.String("type", string(typ)))
	}
}
