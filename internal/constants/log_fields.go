package constants

// Structured log field names shared by the HTTP layer and webhook intake
const (
	LogFieldRequestID  = "request_id"
	LogFieldTraceID    = "trace_id"
	LogFieldSpanID     = "span_id"
	LogFieldMethod     = "method"
	LogFieldPath       = "path"
	LogFieldRemoteIP   = "remote_ip"
	LogFieldUserAgent  = "user_agent"
	LogFieldStatusCode = "status_code"
	LogFieldDuration   = "duration_ms"
	LogFieldSize       = "size_bytes"
	LogFieldEventType  = "event_type"
	LogFieldVariant    = "variant"
	LogFieldMessageID  = "message_id"
	LogFieldFrom       = "from"
	LogFieldErrorCode  = "error_code"
)
