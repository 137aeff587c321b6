package plugins

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/unionhall/ledgerhub/common"
)

// Trigger carries one of the payload types below.
type Trigger struct {
	Type    string
	Payload interface{}
}

type HoursSaved struct {
	HoursID            string          `json:"hoursId"`
	WorkerID           string          `json:"workerId" validate:"required"`
	EmployerID         string          `json:"employerId" validate:"required"`
	Year               int             `json:"year" validate:"required,gte=1900,lte=9999"`
	Month              int             `json:"month" validate:"required,gte=1,lte=12"`
	Day                int             `json:"day" validate:"required,gte=1,lte=31"`
	Hours              decimal.Decimal `json:"hours"`
	EmploymentStatusID string          `json:"employmentStatusId"`
}

// Date is the calendar day the hours were worked on.
func (h *HoursSaved) Date() (time.Time, error) {
	t := time.Date(h.Year, time.Month(h.Month), h.Day, 0, 0, 0, 0, time.UTC)
	if t.Day() != h.Day || int(t.Month()) != h.Month {
		return time.Time{}, fmt.Errorf("invalid date %04d-%02d-%02d", h.Year, h.Month, h.Day)
	}
	return t, nil
}

type DispatchAvailabilitySynced struct {
	WorkerID   string    `json:"workerId" validate:"required"`
	EmployerID string    `json:"employerId"`
	Available  bool      `json:"available"`
	Date       time.Time `json:"date" validate:"required"`
}

type WorkStatusChanged struct {
	WorkerID             string    `json:"workerId" validate:"required"`
	WorkStatusID         string    `json:"workStatusId" validate:"required"`
	PreviousWorkStatusID string    `json:"previousWorkStatusId"`
	EffectiveDate        time.Time `json:"effectiveDate" validate:"required"`
}

func NewHoursSavedTrigger(p HoursSaved) Trigger {
	return Trigger{Type: common.TriggerHoursSaved, Payload: &p}
}

func NewDispatchAvailabilityTrigger(p DispatchAvailabilitySynced) Trigger {
	return Trigger{Type: common.TriggerDispatchAvailabilitySynced, Payload: &p}
}

func NewWorkStatusTrigger(p WorkStatusChanged) Trigger {
	return Trigger{Type: common.TriggerWorkStatusChanged, Payload: &p}
}

// EmployerID is the employer the trigger concerns, if any. Configs scoped to
// an employer only run for triggers of that employer.
func (t Trigger) EmployerID() string {
	switch p := t.Payload.(type) {
	case *HoursSaved:
		return p.EmployerID
	case *DispatchAvailabilitySynced:
		return p.EmployerID
	}
	return ""
}

// NewPayload returns an empty payload for a trigger type, for decoding.
func NewPayload(triggerType string) (interface{}, error) {
	switch triggerType {
	case common.TriggerHoursSaved:
		return &HoursSaved{}, nil
	case common.TriggerDispatchAvailabilitySynced:
		return &DispatchAvailabilitySynced{}, nil
	case common.TriggerWorkStatusChanged:
		return &WorkStatusChanged{}, nil
	}
	return nil, fmt.Errorf("unknown trigger type %q", triggerType)
}
