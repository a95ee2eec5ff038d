package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rental-service/internal/model"
)

func TestResolveChannel(t *testing.T) {
	tests := []struct {
		name       string
		requested  model.DeliveryMethod
		preference model.DeliveryMethod
		want       model.DeliveryMethod
	}{
		{"caller both wins", model.DeliveryBoth, model.DeliveryEmail, model.DeliveryBoth},
		{"tenant both wins", model.DeliverySMS, model.DeliveryBoth, model.DeliveryBoth},
		{"tenant preference overrides request", model.DeliverySMS, model.DeliveryEmail, model.DeliveryEmail},
		{"tenant app preference overrides request", model.DeliverySMS, model.DeliveryApp, model.DeliveryApp},
		{"no preference keeps request", model.DeliveryWhatsApp, "", model.DeliveryWhatsApp},
		{"unknown preference keeps request", model.DeliverySMS, "pigeon", model.DeliverySMS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveChannel(tt.requested, tt.preference))
		})
	}
}
