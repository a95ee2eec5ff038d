package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rental-service/internal/dues"
	"rental-service/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Owner{},
		&model.Property{},
		&model.Tenant{},
		&model.Payment{},
		&model.Invoice{},
		&model.Notification{},
	))
	return New(db)
}

func seedTenant(t *testing.T, s *Store, ownerID string) *model.Tenant {
	t.Helper()
	tenant := &model.Tenant{
		OwnerID:       ownerID,
		Name:          "Jane Tenant",
		Phone:         "254700000001",
		Price:         decimal.NewFromInt(10000),
		TotalRentPaid: decimal.NewFromInt(5000),
	}
	require.NoError(t, s.CreateTenant(context.Background(), tenant))
	return tenant
}

func seedInvoice(t *testing.T, s *Store, tenant *model.Tenant, reference string) *model.Invoice {
	t.Helper()
	inv := &model.Invoice{
		OwnerID:   tenant.OwnerID,
		TenantID:  tenant.ID,
		Amount:    decimal.NewFromInt(10000),
		Status:    model.InvoicePending,
		Reference: reference,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, s.CreateInvoice(context.Background(), inv))
	return inv
}

func TestSettleInvoice_AppliesOnce(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	tenant := seedTenant(t, s, "own_1")
	seedInvoice(t, s, tenant, "ref_1")

	applied, err := s.SettleInvoice(ctx, "ref_1", "MPESA123")
	require.NoError(t, err)
	assert.True(t, applied)

	inv, err := s.InvoiceByReference(ctx, "ref_1")
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceCompleted, inv.Status)
	assert.Equal(t, "MPESA123", inv.ProviderID)

	// Replay of the same confirmation is a no-op.
	applied, err = s.SettleInvoice(ctx, "ref_1", "MPESA123")
	require.NoError(t, err)
	assert.False(t, applied)

	payments, err := s.PaymentsByTenant(ctx, tenant.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, model.PaymentCompleted, payments[0].Status)
	assert.Equal(t, model.PaymentRent, payments[0].Type)
	assert.Equal(t, "MPESA123", payments[0].TransactionID)
	assert.True(t, payments[0].Amount.Equal(decimal.NewFromInt(10000)))

	got, err := s.TenantByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalRentPaid.Equal(decimal.NewFromInt(15000)),
		"ledger rolled forward exactly once, got %s", got.TotalRentPaid)
}

func TestSettleInvoice_UnknownReference(t *testing.T) {
	s := newTestStore(t)

	applied, err := s.SettleInvoice(context.Background(), "no_such_ref", "MPESA123")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, applied)
}

func TestFailInvoice_OnlyPendingTransitions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	tenant := seedTenant(t, s, "own_1")
	seedInvoice(t, s, tenant, "ref_1")

	require.NoError(t, s.FailInvoice(ctx, "ref_1"))
	inv, err := s.InvoiceByReference(ctx, "ref_1")
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceFailed, inv.Status)

	// A completed invoice never transitions to failed.
	seedInvoice(t, s, tenant, "ref_2")
	applied, err := s.SettleInvoice(ctx, "ref_2", "MPESA456")
	require.NoError(t, err)
	require.True(t, applied)

	require.NoError(t, s.FailInvoice(ctx, "ref_2"))
	inv, err = s.InvoiceByReference(ctx, "ref_2")
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceCompleted, inv.Status)
}

func TestFailedInvoiceCannotSettle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	tenant := seedTenant(t, s, "own_1")
	seedInvoice(t, s, tenant, "ref_1")

	require.NoError(t, s.FailInvoice(ctx, "ref_1"))

	// Failed is terminal: a completion report arriving after the invoice
	// was failed must not resurrect it or touch the ledger.
	applied, err := s.SettleInvoice(ctx, "ref_1", "MPESA123")
	require.NoError(t, err)
	assert.False(t, applied)

	inv, err := s.InvoiceByReference(ctx, "ref_1")
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceFailed, inv.Status)

	payments, err := s.PaymentsByTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)

	got, err := s.TenantByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalRentPaid.Equal(decimal.NewFromInt(5000)),
		"ledger must be untouched, got %s", got.TotalRentPaid)
}

func TestAttachCheckoutIDAndLookup(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	tenant := seedTenant(t, s, "own_1")
	seedInvoice(t, s, tenant, "ref_1")

	require.NoError(t, s.AttachCheckoutID(ctx, "ref_1", "txn_req_42"))

	inv, err := s.InvoiceByCheckoutID(ctx, "txn_req_42")
	require.NoError(t, err)
	assert.Equal(t, "ref_1", inv.Reference)

	_, err = s.InvoiceByCheckoutID(ctx, "txn_req_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBulkUpdateTenantStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	first := seedTenant(t, s, "own_1")
	second := seedTenant(t, s, "own_1")

	checkedAt := time.Now().Truncate(time.Second)
	err := s.BulkUpdateTenantStatus(ctx, []dues.StatusUpdate{
		{TenantID: first.ID, Status: model.StatusOverdue},
		{TenantID: second.ID, Status: model.StatusUpToDate},
	}, checkedAt)
	require.NoError(t, err)

	got, err := s.TenantByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOverdue, got.PaymentStatus)
	require.NotNil(t, got.StatusCheckedAt)

	got, err = s.TenantByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusUpToDate, got.PaymentStatus)
}

func TestBulkUpdateTenantStatus_EmptyBatch(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.BulkUpdateTenantStatus(context.Background(), nil, time.Now()))
}

func TestDeleteNotification_OwnerScoped(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	tenant := seedTenant(t, s, "own_1")

	n := &model.Notification{
		OwnerID:        "own_1",
		TenantID:       tenant.ID,
		Type:           model.NotifyPayment,
		Message:        "rent overdue",
		DeliveryMethod: model.DeliverySMS,
		DeliveryStatus: model.DeliverySuccess,
	}
	require.NoError(t, s.CreateNotification(ctx, n))
	require.NotEmpty(t, n.ID)

	// Another owner cannot delete it.
	err := s.DeleteNotification(ctx, "own_other", n.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteNotification(ctx, "own_1", n.ID))

	list, err := s.NotificationsByOwner(ctx, "own_1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTenantQueriesAreOwnerScoped(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedTenant(t, s, "own_1")
	seedTenant(t, s, "own_1")
	seedTenant(t, s, "own_other")

	mine, err := s.TenantsByOwner(ctx, "own_1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := s.AllTenants(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSecureIDPrefixes(t *testing.T) {
	s := newTestStore(t)
	tenant := seedTenant(t, s, "own_1")
	inv := seedInvoice(t, s, tenant, "ref_1")

	assert.Regexp(t, "^ten_", tenant.ID)
	assert.Regexp(t, "^inv_", inv.ID)
}
