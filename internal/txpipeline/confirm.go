package txpipeline

import (
	"context"
	"time"

	"github.com/klaytn/boardrush/internal/chainmetrics"
	"github.com/klaytn/boardrush/internal/rpcclient"
)

// ConfirmGrace is the sleep before querying signature statuses after a burst
// (spec.md §4.3).
const ConfirmGrace = 3 * time.Second

// Program error codes with pipeline-defined meaning (original_source/bot/src/
// bot_runner.rs's match on Custom(n), mirrored here since this spec's
// program reuses the same instruction-processor error enum).
const (
	// ErrCodeNoDeployments is returned when an EV strategy intentionally
	// passed on every square -- an EV-skip, not a failure.
	ErrCodeNoDeployments = 7
	// ErrCodeAlreadyDeployed is returned when a sibling copy from the same
	// burst already landed -- collapses into success. Depends on the
	// on-chain program treating repeated deploys within a round as
	// idempotent; see DESIGN.md's Open Question 3.
	ErrCodeAlreadyDeployed = 9
)

// Outcome classifies one burst's aggregate result, per spec.md §4.3/§4.4.
type Outcome int

const (
	// OutcomeDeployed: at least one copy confirmed and actually deployed.
	OutcomeDeployed Outcome = iota
	// OutcomeSkipped: every reverted copy carried ErrCodeNoDeployments (an
	// intentional EV pass), or no copies were sent because the window
	// already closed.
	OutcomeSkipped
	// OutcomeMissed: zero confirmations and at least one non-skip failure
	// (expired, reverted with an unrelated code, or an RPC error).
	OutcomeMissed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDeployed:
		return "deployed"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "missed"
	}
}

// SignatureClassification is one signature's individually-queried status.
type SignatureClassification int

const (
	ClassConfirmed SignatureClassification = iota
	ClassLandedReverted
	ClassExpiredDropped
	ClassRPCError
)

// Report is the outcome of ConfirmAndReport: the aggregate Outcome plus the
// signatures counted as confirmed.
type Report struct {
	Outcome   Outcome
	Confirmed []string // signatures that actually confirmed (post AlreadyDeployed collapse)
}

// ConfirmAndReport sleeps ConfirmGrace, then queries each burst signature's
// status and program error code, classifying the whole burst per spec.md
// §4.3's confirm-and-report rules.
func ConfirmAndReport(ctx context.Context, authority string, client *rpcclient.Client, burst []BurstResult) Report {
	var sigs []string
	for _, r := range burst {
		if r.Err == nil && r.Signature != "" {
			sigs = append(sigs, r.Signature)
		}
	}

	if len(sigs) == 0 {
		// Either the window closed before any copy was even attempted (no
		// deploy was owed this tick), or every submission failed outright.
		return resolveOutcome(authority, nil, len(burst) == 0)
	}

	select {
	case <-time.After(ConfirmGrace):
	case <-ctx.Done():
	}

	statuses, err := client.GetSignatureStatuses(ctx, sigs)
	if err != nil {
		pipelineLogger.Warn("getSignatureStatuses failed, treating burst as missed", "authority", authority, "err", err)
		return resolveOutcome(authority, nil, false)
	}

	var confirmed []string
	sawNoDeployments := false
	sawOtherFailure := false

	for i, status := range statuses {
		sig := sigs[i]
		switch classify(status) {
		case ClassConfirmed:
			code, isAlreadyDeployed := programErrorCode(status)
			if isAlreadyDeployed && code == ErrCodeAlreadyDeployed {
				confirmed = append(confirmed, sig) // sibling landed, treat as success
				continue
			}
			if code == ErrCodeNoDeployments {
				sawNoDeployments = true
				continue
			}
			confirmed = append(confirmed, sig)
		case ClassLandedReverted:
			code, _ := programErrorCode(status)
			switch code {
			case ErrCodeNoDeployments:
				sawNoDeployments = true
			case ErrCodeAlreadyDeployed:
				confirmed = append(confirmed, sig)
			default:
				sawOtherFailure = true
			}
		case ClassExpiredDropped:
			sawOtherFailure = true
		case ClassRPCError:
			sawOtherFailure = true
		}
	}

	outcome := OutcomeMissed
	switch {
	case len(confirmed) > 0:
		outcome = OutcomeDeployed
	case sawNoDeployments && !sawOtherFailure:
		outcome = OutcomeSkipped
	}
	chainmetrics.DeployOutcomes.WithLabelValues(outcome.String()).Inc()
	return Report{Outcome: outcome, Confirmed: confirmed}
}

func resolveOutcome(authority string, confirmed []string, allSkip bool) Report {
	outcome := OutcomeMissed
	if len(confirmed) > 0 {
		outcome = OutcomeDeployed
	} else if allSkip {
		outcome = OutcomeSkipped
	}
	chainmetrics.DeployOutcomes.WithLabelValues(outcome.String()).Inc()
	return Report{Outcome: outcome, Confirmed: confirmed}
}

func classify(status *rpcclient.SignatureStatus) SignatureClassification {
	if status == nil {
		return ClassExpiredDropped
	}
	if status.Err != nil {
		return ClassLandedReverted
	}
	if status.ConfirmationStatus == "" {
		return ClassExpiredDropped
	}
	return ClassConfirmed
}

// programErrorCode extracts the Custom(n) instruction error code from a
// signature status' err field, if present: {"InstructionError":[0,{"Custom":n}]}.
func programErrorCode(status *rpcclient.SignatureStatus) (int, bool) {
	if status == nil || status.Err == nil {
		return 0, false
	}
	m, ok := status.Err.(map[string]interface{})
	if !ok {
		return 0, false
	}
	ixErr, ok := m["InstructionError"]
	if !ok {
		return 0, false
	}
	pair, ok := ixErr.([]interface{})
	if !ok || len(pair) != 2 {
		return 0, false
	}
	detail, ok := pair[1].(map[string]interface{})
	if !ok {
		return 0, false
	}
	code, ok := detail["Custom"].(float64)
	if !ok {
		return 0, false
	}
	return int(code), true
}
