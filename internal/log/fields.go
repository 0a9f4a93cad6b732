package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldTransactionID = "id"
	FieldDirection     = "direction"
	FieldCategory      = "category"
	FieldAmount        = "amount"
	FieldRawText       = "raw_text"
	FieldBalance       = "balance"
)

// Standard component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentParser  = "parser"
	ComponentStorage = "storage"
	ComponentLedger  = "ledger"
	ComponentCharts  = "charts"
)

// Standard operation names.
const (
	OpParse       = "parse"
	OpValidate    = "validate"
	OpSubmit      = "submit"
	OpList        = "list"
	OpDelete      = "delete"
	OpRecalculate = "recalculate"
	OpRender      = "render"
	OpStartup     = "startup"
	OpShutdown    = "shutdown"
)
