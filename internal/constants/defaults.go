package constants

// Default webhook server values
const (
	DefaultWebhookAddr         = ":8088"
	DefaultWebhookPath         = "/webhooks/pinnacle"
	DefaultMaxBodyBytes        = 1 << 20
	DefaultLogLevel            = "info"
	DefaultServiceName         = "pinnacle-webhook"
	DefaultServiceVersion      = "1.0.0"
	DefaultEnvironment         = "production"
	DefaultTracingSampleRate   = 0.1
	DefaultGracefulShutdownSec = 30
)

// Default timeout values
const (
	DefaultServerReadTimeoutSec  = 15
	DefaultServerWriteTimeoutSec = 15
	DefaultServerIdleTimeoutSec  = 60
	DefaultHandlerTimeoutSec     = 10
)

// Limits applied when validating payload values
const (
	MinPhoneNumberDigits = 8
	MaxPhoneNumberDigits = 15
	MaxMessageIDLength   = 256
	MaxURLLength         = 2048
	MaxSmsTextLength     = 1600
	MaxMediaURLs         = 10
	MaxQuickReplies      = 11
	MaxCardsPerCarousel  = 10
	MaxButtonTitleLength = 25
	MaxBodyBytesLimit    = 32 << 20
)

// Privacy settings
const (
	DefaultPhoneMaskLength = 4
	DefaultMessageIDLength = 8
)

// Server internals
const (
	ServerErrorChannelSize = 1
)
