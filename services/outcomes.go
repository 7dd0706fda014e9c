package services

import "errors"

// OutcomeRecorder receives the result of every engine operation.
// metrics.Registry implements it; a nil recorder is allowed.
type OutcomeRecorder interface {
	EngineOutcome(operation, outcome string)
}

const (
	opApply        = "apply"
	opUpdateStatus = "update_status"
	opWithdraw     = "withdraw"

	outcomeSuccess = "success"
	outcomeError   = "error"
)

func recordOutcome(rec OutcomeRecorder, operation string, err error) {
	if rec == nil {
		return
	}
	outcome := outcomeSuccess
	if err != nil {
		var failure *Failure
		if errors.As(err, &failure) {
			outcome = string(failure.Reason)
		} else {
			outcome = outcomeError
		}
	}
	rec.EngineOutcome(operation, outcome)
}
