package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldUserID      = "user_id"
	FieldWorkspaceID = "workspace_id"
	FieldExpenseID   = "expense_id"
	FieldCategoryID  = "category_id"
	FieldAmount      = "amount"
	FieldMonth       = "month"
	FieldSpentBy     = "spent_by"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentWorkspace = "workspace"
	ComponentLedger    = "ledger"
	ComponentWorker    = "worker"
	ComponentExport    = "export"
)

// Operations defines standard operation names
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpJoin   = "join"
	OpExport = "export"
)
