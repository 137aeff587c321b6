package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/unionhall/ledgerhub/common"
	"github.com/unionhall/ledgerhub/plugins"
)

func (svc *LedgerService) HandleHoursSaved(ctx context.Context, hours plugins.HoursSaved) []plugins.Notification {
	return svc.ExecuteChargePlugins(ctx, plugins.NewHoursSavedTrigger(hours))
}

func (svc *LedgerService) HandleDispatchAvailabilitySynced(ctx context.Context, availability plugins.DispatchAvailabilitySynced) []plugins.Notification {
	return svc.ExecuteChargePlugins(ctx, plugins.NewDispatchAvailabilityTrigger(availability))
}

func (svc *LedgerService) HandleWorkStatusChanged(ctx context.Context, status plugins.WorkStatusChanged) []plugins.Notification {
	return svc.ExecuteChargePlugins(ctx, plugins.NewWorkStatusTrigger(status))
}

// DecodeTrigger builds a trigger from a domain event routing key and JSON body.
func DecodeTrigger(routingKey string, body []byte) (plugins.Trigger, error) {
	triggerType, ok := common.TriggerForEvent[routingKey]
	if !ok {
		return plugins.Trigger{}, fmt.Errorf("unsupported domain event %q", routingKey)
	}
	return NewTrigger(triggerType, body)
}

// NewTrigger decodes and validates the JSON payload of a trigger type.
func NewTrigger(triggerType string, body []byte) (plugins.Trigger, error) {
	payload, err := plugins.NewPayload(triggerType)
	if err != nil {
		return plugins.Trigger{}, newValidationError("trigger", "%s", err.Error())
	}
	if err := json.Unmarshal(body, payload); err != nil {
		return plugins.Trigger{}, &ValidationError{Field: "payload", Message: "malformed " + triggerType + " payload", Err: err}
	}
	if err := validate.Struct(payload); err != nil {
		return plugins.Trigger{}, validationErrorFrom(err)
	}
	return plugins.Trigger{Type: triggerType, Payload: payload}, nil
}

// HandleDomainEvent runs the charge plugins for one domain event. Only decoding
// errors are returned; plugin failures are logged by the executor.
func (svc *LedgerService) HandleDomainEvent(ctx context.Context, routingKey string, body []byte) ([]plugins.Notification, error) {
	trigger, err := DecodeTrigger(routingKey, body)
	if err != nil {
		return nil, err
	}
	svc.Logger.Debugf("Running charge plugins for %s", routingKey)
	return svc.ExecuteChargePlugins(ctx, trigger), nil
}
