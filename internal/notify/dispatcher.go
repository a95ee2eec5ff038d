// Package notify composes and delivers tenant notifications across the
// SMS, email and WhatsApp channels and records every dispatch attempt.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"rental-service/internal/dues"
	"rental-service/internal/model"
)

// TargetAll addresses a dispatch to every tenant of the owner.
const TargetAll = "all"

// ErrNotOwned is returned when the target tenant belongs to a different
// owner. The check runs before any message is sent.
var ErrNotOwned = errors.New("tenant does not belong to this owner")

// ErrInvalidRequest is returned for an unrecognised notification type or
// delivery method.
var ErrInvalidRequest = errors.New("invalid notification request")

// Repository is the persistence surface the dispatcher needs.
type Repository interface {
	TenantByID(ctx context.Context, id string) (*model.Tenant, error)
	TenantsByOwner(ctx context.Context, ownerID string) ([]model.Tenant, error)
	CreateNotification(ctx context.Context, n *model.Notification) error
}

// Request describes one dispatch: a single tenant id or TargetAll, the
// notification type, an optional caller-supplied message and the channel
// the caller asked for.
type Request struct {
	OwnerID        string
	Target         string
	Type           model.NotificationType
	Message        string
	DeliveryMethod model.DeliveryMethod
}

// Result is the outcome of one dispatch request. NothingToSend is set
// when zero tenants were processed, e.g. every targeted tenant was
// up to date; it is a normal outcome, not an error.
type Result struct {
	NothingToSend bool                 `json:"nothing_to_send"`
	Skipped       int                  `json:"skipped"`
	Notifications []model.Notification `json:"notifications"`
}

// Dispatcher delivers notifications through constructor-injected channel
// transports. Channel failures are captured into the persisted record;
// they never abort sibling channels or sibling tenants.
type Dispatcher struct {
	repo     Repository
	sms      SMSSender
	email    EmailSender
	whatsapp WhatsAppSender
	currency string
	now      func() time.Time
	log      *zap.Logger
}

// NewDispatcher wires the dispatcher dependencies
func NewDispatcher(repo Repository, sms SMSSender, email EmailSender, whatsapp WhatsAppSender, currency string, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		repo:     repo,
		sms:      sms,
		email:    email,
		whatsapp: whatsapp,
		currency: currency,
		now:      time.Now,
		log:      log,
	}
}

// WithClock overrides the reference clock, used for deterministic dues
// computation in tests.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// Dispatch processes a notification request against one tenant or every
// tenant of the owner. Each tenant is processed independently; one
// tenant's failure never aborts the others.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Result, error) {
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown notification type %q", ErrInvalidRequest, req.Type)
	}
	if !req.DeliveryMethod.Valid() {
		return nil, fmt.Errorf("%w: unknown delivery method %q", ErrInvalidRequest, req.DeliveryMethod)
	}

	tenants, err := d.resolveTargets(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &Result{Notifications: []model.Notification{}}
	for _, tenant := range tenants {
		n, skipped := d.dispatchOne(ctx, tenant, req)
		if skipped {
			result.Skipped++
			continue
		}
		if n == nil {
			continue
		}
		if err := d.repo.CreateNotification(ctx, n); err != nil {
			// Persistence failure for one tenant is isolated like a
			// channel failure; the rest of the batch continues.
			d.log.Error("Failed to persist notification",
				zap.String("tenant_id", tenant.ID), zap.Error(err))
			continue
		}
		result.Notifications = append(result.Notifications, *n)
	}

	if len(result.Notifications) == 0 {
		result.NothingToSend = true
	}
	return result, nil
}

// resolveTargets loads the tenants addressed by the request and enforces
// ownership before any side effect.
func (d *Dispatcher) resolveTargets(ctx context.Context, req Request) ([]model.Tenant, error) {
	if req.Target == TargetAll {
		// Owner-scoped query, cross-owner tenants are filtered at source.
		return d.repo.TenantsByOwner(ctx, req.OwnerID)
	}

	tenant, err := d.repo.TenantByID(ctx, req.Target)
	if err != nil {
		return nil, err
	}
	if tenant.OwnerID != req.OwnerID {
		return nil, ErrNotOwned
	}
	return []model.Tenant{*tenant}, nil
}

// dispatchOne composes and delivers one tenant's notification. The
// second return value reports the deliberate skip of an up-to-date
// tenant on a payment notification.
func (d *Dispatcher) dispatchOne(ctx context.Context, tenant model.Tenant, req Request) (*model.Notification, bool) {
	message := req.Message
	var snapshot *dues.Breakdown

	if req.Type == model.NotifyPayment {
		b := dues.Compute(tenant, d.now())
		if !b.Overdue() {
			// Business rule: nothing to collect, no record created.
			return nil, true
		}
		snapshot = &b
		message = paymentMessage(tenant, b, d.currency)
	} else if message == "" {
		message = fallbackMessage(req.Type)
	}

	channel := ResolveChannel(req.DeliveryMethod, tenant.DeliveryMethod)
	status, errDetail := d.deliver(ctx, tenant, req.Type, message, channel, snapshot)

	n := &model.Notification{
		OwnerID:        tenant.OwnerID,
		TenantID:       tenant.ID,
		Type:           req.Type,
		Message:        message,
		DeliveryMethod: channel,
		DeliveryStatus: status,
		DeliveryError:  errDetail,
	}
	if snapshot != nil {
		n.RentDues = &snapshot.RentDues
		n.DepositDues = &snapshot.DepositDues
		n.UtilityDues = &snapshot.UtilityDues
		n.TotalDues = &snapshot.TotalRemainingDues
	}
	return n, false
}

// deliver attempts the resolved channel(s) in fixed order: SMS, then
// email, then WhatsApp. The aggregate is success when at least one
// attempted channel succeeded; a later failure never downgrades an
// earlier success.
func (d *Dispatcher) deliver(ctx context.Context, tenant model.Tenant, nt model.NotificationType, message string, channel model.DeliveryMethod, snapshot *dues.Breakdown) (model.DeliveryStatus, string) {
	if channel == model.DeliveryApp {
		// In-app inbox only, no external delivery to fail.
		return model.DeliverySuccess, ""
	}

	both := channel == model.DeliveryBoth
	var failures []string
	anySuccess := false

	if both || channel == model.DeliverySMS {
		if err := d.sendSMS(ctx, tenant, message); err != nil {
			failures = append(failures, "sms: "+err.Error())
		} else {
			anySuccess = true
		}
	}

	if both || channel == model.DeliveryEmail {
		if err := d.sendEmail(ctx, tenant, nt, message, snapshot); err != nil {
			failures = append(failures, "email: "+err.Error())
		} else {
			anySuccess = true
		}
	}

	if both || channel == model.DeliveryWhatsApp {
		if err := d.sendWhatsApp(ctx, tenant, message); err != nil {
			failures = append(failures, "whatsapp: "+err.Error())
		} else {
			anySuccess = true
		}
	}

	if anySuccess {
		return model.DeliverySuccess, ""
	}
	return model.DeliveryFailed, strings.Join(failures, "; ")
}

func (d *Dispatcher) sendSMS(ctx context.Context, tenant model.Tenant, message string) error {
	if tenant.Phone == "" {
		return errors.New("tenant has no phone number on file")
	}
	if err := d.sms.Send(ctx, tenant.Phone, truncateSMS(message)); err != nil {
		d.log.Warn("SMS delivery failed",
			zap.String("tenant_id", tenant.ID), zap.Error(err))
		return err
	}
	return nil
}

func (d *Dispatcher) sendEmail(ctx context.Context, tenant model.Tenant, nt model.NotificationType, message string, snapshot *dues.Breakdown) error {
	if tenant.Email == "" {
		return errors.New("tenant has no email address on file")
	}
	html, err := renderEmail(tenant, nt, message, d.currency, snapshot)
	if err != nil {
		return err
	}
	if err := d.email.Send(ctx, tenant.Email, emailSubject(nt), html); err != nil {
		d.log.Warn("Email delivery failed",
			zap.String("tenant_id", tenant.ID), zap.Error(err))
		return err
	}
	return nil
}

func (d *Dispatcher) sendWhatsApp(ctx context.Context, tenant model.Tenant, message string) error {
	if tenant.Phone == "" {
		return errors.New("tenant has no phone number on file")
	}
	res, err := d.whatsapp.Send(ctx, tenant.Phone, message)
	if err != nil {
		d.log.Warn("WhatsApp delivery failed",
			zap.String("tenant_id", tenant.ID), zap.Error(err))
		return err
	}
	// The gateway reports failure in-band; absence of a transport error
	// is not delivery.
	if !res.Success {
		if res.ErrorMessage != "" {
			return fmt.Errorf("gateway error %s: %s", res.ErrorCode, res.ErrorMessage)
		}
		return errors.New("gateway reported unsuccessful delivery")
	}
	return nil
}
