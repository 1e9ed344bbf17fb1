package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldSessionID   = "session_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldEntity      = "entity"
	FieldEntityID    = "entity_id"
	FieldAction      = "action"
	FieldYear        = "year"
	FieldMonth       = "month"
	FieldCount       = "count"
	FieldView        = "view"
	FieldVersion     = "version"
	FieldChartKind   = "chart_kind"
	FieldEventID     = "event_id"
	FieldLedgerRef   = "ledger_ref"
	FieldLedger      = "ledger"
	FieldQuery       = "query"
	FieldHTMX        = "htmx"
	FieldUserAgent   = "user_agent"
	FieldExchange    = "exchange"
	FieldQueue       = "queue"
	FieldTemplate    = "template"
	FieldSize        = "size"
	FieldPort        = "port"
	FieldReason      = "reason"
	FieldSignal      = "signal"
	FieldSpreadsheet = "spreadsheet_id"
	FieldSheet       = "sheet"
	FieldAPIBaseURL  = "api_base_url"
	FieldJournal     = "journal"
	FieldEvents      = "events"
	FieldAppended    = "appended"
	FieldDuplicates  = "duplicates"
	FieldSkipped     = "skipped"
	FieldFailed      = "failed"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentAPI      = "api"
	ComponentView     = "view"
	ComponentSession  = "session"
	ComponentJournal  = "journal"
	ComponentEvents   = "events"
	ComponentLedger   = "ledger"
	ComponentWorker   = "worker"
	ComponentCharts   = "charts"
	ComponentSecurity = "security"
	ComponentTemplate = "template"
)
