package common

const (
	EntityTypeEmployer      = "employer"
	EntityTypeWorker        = "worker"
	EntityTypeTrustProvider = "trustProvider"

	ReferenceTypePayment       = "payment"
	ReferenceTypeHour          = "hour"
	ReferenceTypeEmployer      = EntityTypeEmployer
	ReferenceTypeWorker        = EntityTypeWorker
	ReferenceTypeTrustProvider = EntityTypeTrustProvider
	ReferenceTypeDispatch      = "dispatch"
	ReferenceTypeWorkStatus    = "workStatus"

	PaymentStatusCleared = "cleared"
	PaymentStatusPending = "pending"
	PaymentStatusVoid    = "void"

	TriggerHoursSaved                 = "hours_saved"
	TriggerDispatchAvailabilitySynced = "dispatch_availability_synced"
	TriggerWorkStatusChanged          = "work_status_changed"

	// routing keys on the domain exchange, one per trigger
	EventHoursSaved                 = "hours.saved"
	EventDispatchAvailabilitySynced = "dispatch.availability.synced"
	EventWorkStatusChanged          = "worker.status.changed"

	EventLedgerEntryChanged = "ledger.entry.changed"

	AccountDataInvoiceHeader = "invoiceHeader"
	AccountDataInvoiceFooter = "invoiceFooter"
)

var EntityTypes = []string{EntityTypeEmployer, EntityTypeWorker, EntityTypeTrustProvider}

var PaymentStatuses = []string{PaymentStatusCleared, PaymentStatusPending, PaymentStatusVoid}

// TriggerForEvent maps a domain event routing key to the charge plugin trigger it fires.
var TriggerForEvent = map[string]string{
	EventHoursSaved:                 TriggerHoursSaved,
	EventDispatchAvailabilitySynced: TriggerDispatchAvailabilitySynced,
	EventWorkStatusChanged:          TriggerWorkStatusChanged,
}

func IsEntityType(entityType string) bool {
	for _, t := range EntityTypes {
		if t == entityType {
			return true
		}
	}
	return false
}
