package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rental-service/internal/model"
)

var errTenantMissing = errors.New("tenant not found")

type fakeRepo struct {
	tenants map[string]model.Tenant
	created []model.Notification
}

func (r *fakeRepo) TenantByID(_ context.Context, id string) (*model.Tenant, error) {
	t, ok := r.tenants[id]
	if !ok {
		return nil, errTenantMissing
	}
	return &t, nil
}

func (r *fakeRepo) TenantsByOwner(_ context.Context, ownerID string) ([]model.Tenant, error) {
	var out []model.Tenant
	for _, t := range r.tenants {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeRepo) CreateNotification(_ context.Context, n *model.Notification) error {
	n.ID = "ntf_" + n.TenantID
	r.created = append(r.created, *n)
	return nil
}

type fakeSMS struct {
	err  error
	sent []string
}

func (s *fakeSMS) Send(_ context.Context, phone, message string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, message)
	return nil
}

type fakeEmail struct {
	err  error
	sent []string
}

func (e *fakeEmail) Send(_ context.Context, to, subject, html string) error {
	if e.err != nil {
		return e.err
	}
	e.sent = append(e.sent, html)
	return nil
}

type fakeWhatsApp struct {
	result WhatsAppResult
	err    error
	sent   int
}

func (w *fakeWhatsApp) Send(_ context.Context, phone, message string) (WhatsAppResult, error) {
	if w.err != nil {
		return WhatsAppResult{}, w.err
	}
	w.sent++
	return w.result, nil
}

type fixture struct {
	repo     *fakeRepo
	sms      *fakeSMS
	email    *fakeEmail
	whatsapp *fakeWhatsApp
	d        *Dispatcher
}

func newFixture(tenants ...model.Tenant) *fixture {
	f := &fixture{
		repo:     &fakeRepo{tenants: map[string]model.Tenant{}},
		sms:      &fakeSMS{},
		email:    &fakeEmail{},
		whatsapp: &fakeWhatsApp{result: WhatsAppResult{Success: true}},
	}
	for _, t := range tenants {
		f.repo.tenants[t.ID] = t
	}
	f.d = NewDispatcher(f.repo, f.sms, f.email, f.whatsapp, "KES", zap.NewNop()).
		WithClock(func() time.Time {
			return time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
		})
	return f
}

func overdueTenant(id, ownerID string) model.Tenant {
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	return model.Tenant{
		ID:         id,
		OwnerID:    ownerID,
		Name:       "Jane Tenant",
		Phone:      "254700000001",
		Email:      "jane@example.com",
		Price:      decimal.NewFromInt(10000),
		LeaseStart: &start,
	}
}

func TestDispatch_SkipsUpToDateTenant(t *testing.T) {
	tenant := overdueTenant("ten_1", "own_1")
	tenant.TotalRentPaid = decimal.NewFromInt(30000)
	f := newFixture(tenant)

	result, err := f.d.Dispatch(context.Background(), Request{
		OwnerID:        "own_1",
		Target:         "ten_1",
		Type:           model.NotifyPayment,
		DeliveryMethod: model.DeliverySMS,
	})

	require.NoError(t, err)
	assert.True(t, result.NothingToSend)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, f.repo.created)
	assert.Empty(t, f.sms.sent)
}

func TestDispatch_PaymentMessageEmbedsDues(t *testing.T) {
	f := newFixture(overdueTenant("ten_1", "own_1"))

	result, err := f.d.Dispatch(context.Background(), Request{
		OwnerID:        "own_1",
		Target:         "ten_1",
		Type:           model.NotifyPayment,
		DeliveryMethod: model.DeliverySMS,
	})

	require.NoError(t, err)
	require.Len(t, result.Notifications, 1)
	n := result.Notifications[0]
	assert.Equal(t, model.DeliverySuccess, n.DeliveryStatus)
	assert.Contains(t, n.Message, "30000.00")
	require.NotNil(t, n.TotalDues)
	assert.True(t, n.TotalDues.Equal(decimal.NewFromInt(30000)))
	require.NotNil(t, n.RentDues)
	assert.True(t, n.RentDues.Equal(decimal.NewFromInt(30000)))
}

func TestDispatch_RejectsCrossOwnerTenant(t *testing.T) {
	f := newFixture(overdueTenant("ten_1", "own_other"))

	_, err := f.d.Dispatch(context.Background(), Request{
		OwnerID:        "own_1",
		Target:         "ten_1",
		Type:           model.NotifyPayment,
		DeliveryMethod: model.DeliverySMS,
	})

	assert.ErrorIs(t, err, ErrNotOwned)
	assert.Empty(t, f.repo.created)
	assert.Empty(t, f.sms.sent)
}

func TestDispatch_AllFiltersByOwner(t *testing.T) {
	f := newFixture(
		overdueTenant("ten_1", "own_1"),
		overdueTenant("ten_2", "own_1"),
		overdueTenant("ten_3", "own_other"),
	)

	result, err := f.d.Dispatch(context.Background(), Request{
		OwnerID:        "own_1",
		Target:         TargetAll,
		Type:           model.NotifyPayment,
		DeliveryMethod: model.DeliverySMS,
	})

	require.NoError(t, err)
	assert.Len(t, result.Notifications, 2)
	for _, n := range result.Notifications {
		assert.Equal(t, "own_1", n.OwnerID)
	}
}

func TestDispatch_BothPartialFailureIsSuccess(t *testing.T) {
	f := newFixture(overdueTenant("ten_1", "own_1"))
	f.sms.err = errors.New("sms gateway down")

	result, err := f.d.Dispatch(context.Background(), Request{
		OwnerID:        "own_1",
		Target:         "ten_1",
		Type:           model.NotifyPayment,
		DeliveryMethod: model.DeliveryBoth,
	})

	require.NoError(t, err)
	require.Len(t, result.Notifications, 1)
	n := result.Notifications[0]
	assert.Equal(t, model.DeliverySuccess, n.DeliveryStatus)
	assert.Empty(t, n.DeliveryError)
	assert.Len(t, f.email.sent, 1)
}

func TestDispatch_BothAllChannelsFail(t *testing.T) {
	f := newFixture(overdueTenant("ten_1", "own_1"))
	f.sms.err = errors.New("sms gateway down")
	f.email.err = errors.New("smtp refused")
	f.whatsapp.err = errors.New("whatsapp unreachable")

	result, err := f.d.Dispatch(context.Background(), Request{
		OwnerID:        "own_1",
		Target:         "ten_1",
		Type:           model.NotifyPayment,
		DeliveryMethod: model.DeliveryBoth,
	})

	require.NoError(t, err)
	require.Len(t, result.Notifications, 1)
	n := result.Notifications[0]
	assert.Equal(t, model.DeliveryFailed, n.DeliveryStatus)
	assert.Contains(t, n.DeliveryError, "sms:")
	assert.Contains(t, n.DeliveryError, "email:")
	assert.Contains(t, n.DeliveryError, "whatsapp:")
}

func TestDispatch_TenantPreferenceOverridesRequest(t *testing.T) {
	tenant := overdueTenant("ten_1", "own_1")
	tenant.DeliveryMethod = model.DeliveryEmail
	f := newFixture(tenant)

	result, err := f.d.Dispatch(context.Background(), Request{
		OwnerID:        "own_1",
		Target:         "ten_1",
		Type:           model.NotifyPayment,
		DeliveryMethod: model.DeliverySMS,
	})

	require.NoError(t, err)
	require.Len(t, result.Notifications, 1)
	assert.Equal(t, model.DeliveryEmail, result.Notifications[0].DeliveryMethod)
	assert.Empty(t, f.sms.sent)
	assert.Len(t, f.email.sent, 1)
}

func TestDispatch_MissingPhoneIsRecordedFailure(t *testing.T) {
	tenant := overdueTenant("ten_1", "own_1")
	tenant.Phone = ""
	f := newFixture(tenant)

	result, err := f.d.Dispatch(context.Background(), Request{
		OwnerID:        "own_1",
		Target:         "ten_1",
		Type:           model.NotifyPayment,
		DeliveryMethod: model.DeliverySMS,
	})

	require.NoError(t, err)
	require.Len(t, result.Notifications, 1)
	n := result.Notifications[0]
	assert.Equal(t, model.DeliveryFailed, n.DeliveryStatus)
	assert.Contains(t, n.DeliveryError, "no phone number")
}

func TestDispatch_AppChannelAlwaysSucceeds(t *testing.T) {
	tenant := overdueTenant("ten_1", "own_1")
	tenant.Phone = ""
	tenant.Email = ""
	tenant.DeliveryMethod = model.DeliveryApp
	f := newFixture(tenant)

	result, err := f.d.Dispatch(context.Background(), Request{
		OwnerID:        "own_1",
		Target:         "ten_1",
		Type:           model.NotifyPayment,
		DeliveryMethod: model.DeliveryApp,
	})

	require.NoError(t, err)
	require.Len(t, result.Notifications, 1)
	assert.Equal(t, model.DeliverySuccess, result.Notifications[0].DeliveryStatus)
	assert.Empty(t, f.sms.sent)
	assert.Empty(t, f.email.sent)
	assert.Zero(t, f.whatsapp.sent)
}

func TestDispatch_WhatsAppInBandFailure(t *testing.T) {
	tenant := overdueTenant("ten_1", "own_1")
	tenant.DeliveryMethod = model.DeliveryWhatsApp
	f := newFixture(tenant)
	f.whatsapp.result = WhatsAppResult{
		Success:      false,
		ErrorCode:    "470",
		ErrorMessage: "recipient not on whatsapp",
	}

	result, err := f.d.Dispatch(context.Background(), Request{
		OwnerID:        "own_1",
		Target:         "ten_1",
		Type:           model.NotifyPayment,
		DeliveryMethod: model.DeliveryWhatsApp,
	})

	require.NoError(t, err)
	require.Len(t, result.Notifications, 1)
	n := result.Notifications[0]
	assert.Equal(t, model.DeliveryFailed, n.DeliveryStatus)
	assert.Contains(t, n.DeliveryError, "recipient not on whatsapp")
}

func TestDispatch_FallbackMessageForNonPaymentTypes(t *testing.T) {
	f := newFixture(overdueTenant("ten_1", "own_1"))

	result, err := f.d.Dispatch(context.Background(), Request{
		OwnerID:        "own_1",
		Target:         "ten_1",
		Type:           model.NotifyMaintenance,
		DeliveryMethod: model.DeliverySMS,
	})

	require.NoError(t, err)
	require.Len(t, result.Notifications, 1)
	n := result.Notifications[0]
	assert.Contains(t, n.Message, "maintenance")
	assert.Nil(t, n.TotalDues)
}

func TestDispatch_SMSTruncatedTo160(t *testing.T) {
	f := newFixture(overdueTenant("ten_1", "own_1"))

	long := strings.Repeat("pay your rent ", 30)
	_, err := f.d.Dispatch(context.Background(), Request{
		OwnerID:        "own_1",
		Target:         "ten_1",
		Type:           model.NotifyOther,
		Message:        long,
		DeliveryMethod: model.DeliverySMS,
	})

	require.NoError(t, err)
	require.Len(t, f.sms.sent, 1)
	assert.Len(t, f.sms.sent[0], 160)
}

func TestDispatch_InvalidTypeRejected(t *testing.T) {
	f := newFixture(overdueTenant("ten_1", "own_1"))

	_, err := f.d.Dispatch(context.Background(), Request{
		OwnerID:        "own_1",
		Target:         "ten_1",
		Type:           "gossip",
		DeliveryMethod: model.DeliverySMS,
	})

	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestDispatch_AllUpToDateIsNothingToSend(t *testing.T) {
	first := overdueTenant("ten_1", "own_1")
	first.TotalRentPaid = decimal.NewFromInt(50000)
	second := overdueTenant("ten_2", "own_1")
	second.TotalRentPaid = decimal.NewFromInt(50000)
	f := newFixture(first, second)

	result, err := f.d.Dispatch(context.Background(), Request{
		OwnerID:        "own_1",
		Target:         TargetAll,
		Type:           model.NotifyPayment,
		DeliveryMethod: model.DeliveryBoth,
	})

	require.NoError(t, err)
	assert.True(t, result.NothingToSend)
	assert.Equal(t, 2, result.Skipped)
	assert.Empty(t, result.Notifications)
}
