package mpesa

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGateway struct {
	testingT  *testing.T
	responses []*StatusResponse
	errs      []error
	calls     int
}

func (g *fakeGateway) QueryStatus(_ context.Context, _ string) (*StatusResponse, error) {
	i := g.calls
	g.calls++
	if i < len(g.errs) && g.errs[i] != nil {
		return nil, g.errs[i]
	}
	require.Less(g.testingT, i, len(g.responses), "gateway queried more times than scripted")
	return g.responses[i], nil
}

type fakeSettler struct {
	settleCalls int
	failCalls   int
	settleErr   error
	failedRefs  []string
	settledRefs []string
}

func (s *fakeSettler) SettleInvoice(_ context.Context, reference, providerID string) (bool, error) {
	s.settleCalls++
	if s.settleErr != nil {
		return false, s.settleErr
	}
	s.settledRefs = append(s.settledRefs, reference)
	// Only the first settlement applies, mirroring the conditional update.
	return s.settleCalls == 1, nil
}

func (s *fakeSettler) FailInvoice(_ context.Context, reference string) error {
	s.failCalls++
	s.failedRefs = append(s.failedRefs, reference)
	return nil
}

func newTestWatcher(gw *fakeGateway, st *fakeSettler, maxTries int) *Watcher {
	return NewWatcher(gw, st, time.Second, maxTries, zap.NewNop()).
		WithSleep(func(context.Context, time.Duration) error { return nil })
}

func pending() *StatusResponse   { return &StatusResponse{Status: "Pending"} }
func completed() *StatusResponse { return &StatusResponse{Status: "Completed"} }

func TestWatch_PendingThenCompleted(t *testing.T) {
	gw := &fakeGateway{testingT: t, responses: []*StatusResponse{pending(), pending(), completed()}}
	st := &fakeSettler{}
	w := newTestWatcher(gw, st, 6)

	outcome, err := w.Watch(context.Background(), "txn_1", "inv_ref_1")

	require.NoError(t, err)
	assert.Equal(t, StateCompleted, outcome.State)
	assert.True(t, outcome.Succeeded())
	assert.True(t, outcome.SettlementApplied)
	assert.Equal(t, 3, gw.calls)
	assert.Equal(t, 1, st.settleCalls)
	assert.Zero(t, st.failCalls)
	assert.Equal(t, []string{"inv_ref_1"}, st.settledRefs)
}

func TestWatch_UserCancelledByProviderCode(t *testing.T) {
	gw := &fakeGateway{testingT: t, responses: []*StatusResponse{
		{
			Status:           "Failed",
			ResultDesc:       "The service request failed.",
			ProviderResponse: json.RawMessage(`{"code":"1032","message":"Request cancelled by user"}`),
		},
	}}
	st := &fakeSettler{}
	w := newTestWatcher(gw, st, 6)

	outcome, err := w.Watch(context.Background(), "txn_1", "inv_ref_1")

	require.NoError(t, err)
	assert.Equal(t, StateCancelled, outcome.State)
	assert.True(t, outcome.UserCancelled)
	assert.Contains(t, outcome.Message, "cancelled by the payer")
	assert.Equal(t, 1, st.failCalls)
	assert.Zero(t, st.settleCalls)
}

func TestWatch_UserCancelledByResultDesc(t *testing.T) {
	gw := &fakeGateway{testingT: t, responses: []*StatusResponse{
		{Status: "Pending", ResultDesc: "Request Cancelled by user"},
	}}
	st := &fakeSettler{}
	w := newTestWatcher(gw, st, 6)

	outcome, err := w.Watch(context.Background(), "txn_1", "inv_ref_1")

	require.NoError(t, err)
	assert.True(t, outcome.UserCancelled)
	assert.Equal(t, StateCancelled, outcome.State)
}

func TestWatch_GatewayTimeoutState(t *testing.T) {
	gw := &fakeGateway{testingT: t, responses: []*StatusResponse{
		{Status: "Timeout", ResultDesc: "DS timeout"},
	}}
	st := &fakeSettler{}
	w := newTestWatcher(gw, st, 6)

	outcome, err := w.Watch(context.Background(), "txn_1", "inv_ref_1")

	require.NoError(t, err)
	assert.Equal(t, StateTimeout, outcome.State)
	assert.False(t, outcome.UserCancelled)
	assert.Contains(t, outcome.Message, "did not respond")
	assert.Equal(t, 1, st.failCalls)
}

func TestWatch_ExhaustsPollBudget(t *testing.T) {
	gw := &fakeGateway{testingT: t, responses: []*StatusResponse{
		pending(), pending(), pending(), pending(),
	}}
	st := &fakeSettler{}
	w := newTestWatcher(gw, st, 4)

	outcome, err := w.Watch(context.Background(), "txn_1", "inv_ref_1")

	assert.ErrorIs(t, err, ErrWatchExhausted)
	assert.Nil(t, outcome)
	assert.Equal(t, 4, gw.calls)
	// Local give-up leaves the invoice pending for a later status check.
	assert.Zero(t, st.failCalls)
	assert.Zero(t, st.settleCalls)
}

func TestWatch_TransportErrorIsTerminal(t *testing.T) {
	gw := &fakeGateway{testingT: t,
		responses: []*StatusResponse{pending(), nil},
		errs:      []error{nil, errors.New("connection reset")},
	}
	st := &fakeSettler{}
	w := newTestWatcher(gw, st, 6)

	outcome, err := w.Watch(context.Background(), "txn_1", "inv_ref_1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status query failed")
	assert.Nil(t, outcome)
	assert.Equal(t, 2, gw.calls)
}

func TestWatch_MalformedProviderResponseStillCompletes(t *testing.T) {
	gw := &fakeGateway{testingT: t, responses: []*StatusResponse{
		{Status: "Completed", ProviderResponse: json.RawMessage(`"not an object"`)},
	}}
	st := &fakeSettler{}
	w := newTestWatcher(gw, st, 6)

	outcome, err := w.Watch(context.Background(), "txn_1", "inv_ref_1")

	require.NoError(t, err)
	assert.Equal(t, StateCompleted, outcome.State)
	assert.True(t, outcome.SettlementApplied)
}

func TestWatch_InsufficientBalanceMessage(t *testing.T) {
	gw := &fakeGateway{testingT: t, responses: []*StatusResponse{
		{
			Status:           "Failed",
			ProviderResponse: json.RawMessage(`{"code":"1","message":"The balance is insufficient for the transaction"}`),
		},
	}}
	st := &fakeSettler{}
	w := newTestWatcher(gw, st, 6)

	outcome, err := w.Watch(context.Background(), "txn_1", "inv_ref_1")

	require.NoError(t, err)
	assert.Equal(t, StateFailed, outcome.State)
	assert.Equal(t, "Payment failed: insufficient mobile-money balance.", outcome.Message)
	assert.Equal(t, 1, st.failCalls)
}

func TestWatch_UnreachablePayerCode(t *testing.T) {
	gw := &fakeGateway{testingT: t, responses: []*StatusResponse{
		{
			Status:           "Failed",
			ResultDesc:       "DS timeout user cannot be reached",
			ProviderResponse: json.RawMessage(`{"code":"1037"}`),
		},
	}}
	st := &fakeSettler{}
	w := newTestWatcher(gw, st, 6)

	outcome, err := w.Watch(context.Background(), "txn_1", "inv_ref_1")

	require.NoError(t, err)
	assert.Equal(t, StateFailed, outcome.State)
	assert.Equal(t, "Payment failed: the payer could not be reached.", outcome.Message)
}

func TestWatch_UnknownStatusIsTerminalFailure(t *testing.T) {
	gw := &fakeGateway{testingT: t, responses: []*StatusResponse{
		{Status: "Reversed"},
	}}
	st := &fakeSettler{}
	w := newTestWatcher(gw, st, 6)

	outcome, err := w.Watch(context.Background(), "txn_1", "inv_ref_1")

	require.NoError(t, err)
	assert.Equal(t, StateFailed, outcome.State)
	assert.Contains(t, outcome.Message, "Reversed")
	assert.Equal(t, 1, st.failCalls)
}

func TestStep_RepeatedCompletedIsIdempotent(t *testing.T) {
	gw := &fakeGateway{testingT: t, responses: []*StatusResponse{completed(), completed()}}
	st := &fakeSettler{}
	w := newTestWatcher(gw, st, 6)

	first, terminal, err := w.Step(context.Background(), "txn_1", "inv_ref_1")
	require.NoError(t, err)
	assert.True(t, terminal)
	assert.True(t, first.SettlementApplied)

	second, terminal, err := w.Step(context.Background(), "txn_1", "inv_ref_1")
	require.NoError(t, err)
	assert.True(t, terminal)
	assert.Equal(t, StateCompleted, second.State)
	assert.False(t, second.SettlementApplied)
	assert.Equal(t, 2, st.settleCalls)
}

func TestStep_ProcessingAndInitiatedAreNonTerminal(t *testing.T) {
	for _, status := range []string{"Processing", "Initiated"} {
		gw := &fakeGateway{testingT: t, responses: []*StatusResponse{{Status: status}}}
		st := &fakeSettler{}
		w := newTestWatcher(gw, st, 6)

		outcome, terminal, err := w.Step(context.Background(), "txn_1", "inv_ref_1")
		require.NoError(t, err)
		assert.False(t, terminal, status)
		assert.Equal(t, StatePending, outcome.State, status)
	}
}

func TestWatch_SettleErrorSurfaces(t *testing.T) {
	gw := &fakeGateway{testingT: t, responses: []*StatusResponse{completed()}}
	st := &fakeSettler{settleErr: errors.New("db down")}
	w := newTestWatcher(gw, st, 6)

	outcome, err := w.Watch(context.Background(), "txn_1", "inv_ref_1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to settle invoice")
	assert.Nil(t, outcome)
}
