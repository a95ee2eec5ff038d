package mpesa

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TxState is the observed state of a gateway transaction. Pending is the
// only non-terminal state; once any other state is reached no further
// polling occurs.
type TxState string

const (
	StatePending   TxState = "Pending"
	StateCompleted TxState = "Completed"
	StateFailed    TxState = "Failed"
	StateCancelled TxState = "Cancelled"
	StateTimeout   TxState = "Timeout"
)

// userCancelCode is the provider code meaning the payer explicitly
// declined the prompt on their handset.
const userCancelCode = "1032"

// ErrWatchExhausted is the local give-up after the bounded poll budget,
// distinct from the gateway reporting its own Timeout state.
var ErrWatchExhausted = errors.New("payment confirmation not received in time, check status later")

// Gateway is the status-query surface the watcher polls.
type Gateway interface {
	QueryStatus(ctx context.Context, transactionRequestID string) (*StatusResponse, error)
}

// Settler applies terminal transaction states to the invoice.
type Settler interface {
	SettleInvoice(ctx context.Context, reference, providerID string) (bool, error)
	FailInvoice(ctx context.Context, reference string) error
}

// Outcome is the terminal result of watching one transaction
type Outcome struct {
	State             TxState `json:"state"`
	Message           string  `json:"message"`
	UserCancelled     bool    `json:"user_cancelled"`
	SettlementApplied bool    `json:"settlement_applied"`
}

// Succeeded reports whether the payment completed.
func (o *Outcome) Succeeded() bool {
	return o.State == StateCompleted
}

// Watcher polls the gateway for a transaction's state on a fixed
// interval and settles the invoice exactly once on completion. Polling
// is strictly sequential: the next query is issued only after the
// previous one resolves and the interval elapses.
type Watcher struct {
	gateway  Gateway
	store    Settler
	interval time.Duration
	maxTries int
	sleep    func(ctx context.Context, d time.Duration) error
	log      *zap.Logger
}

// NewWatcher creates a watcher with the given poll cadence
func NewWatcher(gateway Gateway, store Settler, interval time.Duration, maxTries int, log *zap.Logger) *Watcher {
	if maxTries <= 0 {
		maxTries = 6
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Watcher{
		gateway:  gateway,
		store:    store,
		interval: interval,
		maxTries: maxTries,
		sleep:    sleepCtx,
		log:      log,
	}
}

// WithSleep overrides the inter-poll delay, used by tests.
func (w *Watcher) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *Watcher {
	w.sleep = sleep
	return w
}

// Watch polls until the transaction reaches a terminal state or the poll
// budget is exhausted. A transport or parse failure during any poll ends
// the watch with that error; it is never retried silently.
func (w *Watcher) Watch(ctx context.Context, transactionRequestID, reference string) (*Outcome, error) {
	for attempt := 1; attempt <= w.maxTries; attempt++ {
		outcome, terminal, err := w.Step(ctx, transactionRequestID, reference)
		if err != nil {
			return nil, err
		}
		if terminal {
			w.log.Info("Payment reached terminal state",
				zap.String("transaction_request_id", transactionRequestID),
				zap.String("state", string(outcome.State)),
				zap.Int("attempts", attempt))
			return outcome, nil
		}
		if attempt < w.maxTries {
			if err := w.sleep(ctx, w.interval); err != nil {
				return nil, err
			}
		}
	}
	return nil, ErrWatchExhausted
}

// Step performs a single status query and applies any terminal
// transition to the invoice. It reports terminal=false while the
// transaction is still pending. The settlement applied on Completed is
// idempotent, so a repeated Step for an already-settled transaction is
// harmless.
func (w *Watcher) Step(ctx context.Context, transactionRequestID, reference string) (*Outcome, bool, error) {
	status, err := w.gateway.QueryStatus(ctx, transactionRequestID)
	if err != nil {
		return nil, false, fmt.Errorf("status query failed: %w", err)
	}

	code, message := status.Provider()

	// The payer declining on their device is reported by the provider
	// sub-object, sometimes while the envelope still says Failed or even
	// Pending. It gets a distinct outcome because the user-facing
	// message and handling differ from a generic failure.
	if isUserCancelled(code, message, status.ResultDesc) {
		if err := w.store.FailInvoice(ctx, reference); err != nil {
			return nil, false, err
		}
		return &Outcome{
			State:         StateCancelled,
			Message:       "Payment request was cancelled by the payer on their device.",
			UserCancelled: true,
		}, true, nil
	}

	switch TxState(status.Status) {
	case StatePending, "Processing", "Initiated":
		return &Outcome{State: StatePending, Message: "Awaiting payer confirmation."}, false, nil

	case StateCompleted:
		applied, err := w.store.SettleInvoice(ctx, reference, transactionRequestID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to settle invoice: %w", err)
		}
		return &Outcome{
			State:             StateCompleted,
			Message:           "Payment received and invoice settled.",
			SettlementApplied: applied,
		}, true, nil

	case StateCancelled:
		if err := w.store.FailInvoice(ctx, reference); err != nil {
			return nil, false, err
		}
		return &Outcome{
			State:         StateCancelled,
			Message:       "Payment request was cancelled by the payer on their device.",
			UserCancelled: true,
		}, true, nil

	case StateTimeout:
		if err := w.store.FailInvoice(ctx, reference); err != nil {
			return nil, false, err
		}
		return &Outcome{
			State:   StateTimeout,
			Message: "The payer did not respond to the payment prompt.",
		}, true, nil

	case StateFailed:
		if err := w.store.FailInvoice(ctx, reference); err != nil {
			return nil, false, err
		}
		return &Outcome{
			State:   StateFailed,
			Message: failureMessage(code, message, status.ResultDesc),
		}, true, nil

	default:
		// Unknown envelope state is treated as a terminal failure
		// rather than polled forever.
		if err := w.store.FailInvoice(ctx, reference); err != nil {
			return nil, false, err
		}
		return &Outcome{
			State:   StateFailed,
			Message: fmt.Sprintf("Payment failed with unrecognised status %q.", status.Status),
		}, true, nil
	}
}

// isUserCancelled detects the provider's explicit-decline sentinel.
func isUserCancelled(code, message, resultDesc string) bool {
	if code == userCancelCode {
		return true
	}
	for _, s := range []string{message, resultDesc} {
		if strings.Contains(strings.ToLower(s), "cancelled by user") {
			return true
		}
	}
	return false
}

// failureMessage maps provider failure details to a user-facing reason.
func failureMessage(code, message, resultDesc string) string {
	detail := message
	if detail == "" {
		detail = resultDesc
	}
	lower := strings.ToLower(detail)
	switch {
	case strings.Contains(lower, "insufficient"):
		return "Payment failed: insufficient mobile-money balance."
	case strings.Contains(lower, "unreachable"), code == "1037":
		return "Payment failed: the payer could not be reached."
	case detail != "":
		return "Payment failed: " + detail
	default:
		return "Payment failed."
	}
}

// sleepCtx waits for the duration, honouring context cancellation.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
