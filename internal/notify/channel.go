package notify

import "rental-service/internal/model"

// ResolveChannel reconciles the channel the caller asked for with the
// channel the tenant prefers and returns the one actually used.
//
// Precedence:
//   - "both" at either level wins: it means every external channel the
//     dispatcher supports.
//   - otherwise a stored tenant preference overrides the caller's
//     request, so an owner requesting sms for a tenant who prefers email
//     sends by email.
//   - with no usable preference the caller's request stands.
func ResolveChannel(requested, preference model.DeliveryMethod) model.DeliveryMethod {
	if requested == model.DeliveryBoth || preference == model.DeliveryBoth {
		return model.DeliveryBoth
	}
	if preference.Valid() {
		return preference
	}
	return requested
}
