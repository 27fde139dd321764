package domain

import (
	"errors"
	"fmt"
)

// Error classes. Adapters wrap these so callers can classify with errors.Is.
var (
	ErrDataUnavailable   = errors.New("data unavailable")
	ErrRiskLimitExceeded = errors.New("risk limit exceeded")
	ErrExecutionFailure  = errors.New("execution failure")
	ErrTransientNetwork  = errors.New("transient network error")
	ErrConfiguration     = errors.New("configuration error")
)

// RejectReason is the structured code logged for every attempt that does
// not produce a trade.
type RejectReason string

const (
	ReasonNone            RejectReason = ""
	ReasonBotPaused       RejectReason = "bot_paused"
	ReasonDailyLossLimit  RejectReason = "daily_loss_limit"
	ReasonArenaLossLimit  RejectReason = "arena_loss_limit"
	ReasonRiskCheckError  RejectReason = "risk_check_error"
	ReasonMissingToken    RejectReason = "missing_token_id"
	ReasonInvalidAmount   RejectReason = "invalid_amount"
	ReasonExecutionError  RejectReason = "execution_error"
	ReasonSettlementError RejectReason = "settlement_rejected"
	ReasonLedgerError     RejectReason = "ledger_error"
)

// APIErrorReason builds the reason code for an HTTP status returned by a
// settlement API.
func APIErrorReason(status int) RejectReason {
	return RejectReason(fmt.Sprintf("api_error_%d", status))
}

// APIError is returned by HTTP adapters for non-retryable responses.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("client error %d: %s", e.Status, e.Body)
}

// Unwrap classifies 4xx responses as execution failures.
func (e *APIError) Unwrap() error {
	return ErrExecutionFailure
}
