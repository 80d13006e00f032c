package lib

// Redis keys for process-independent system totals.
const (
	SystemTotalMessagesAdmittedKey  = "system_totals:messages_admitted"
	SystemTotalMessagesDeniedKey    = "system_totals:messages_denied"
	SystemTotalPaymentsCompletedKey = "system_totals:payments_completed"
)
