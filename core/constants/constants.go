package constants

// Context keys
const (
	ContextTokenData = "token_data"
)

// Database defaults
const (
	DatabaseSSLMode         = "disable"
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
)

// Generation bounds for recurring series.
//
// MaxGenerationHorizonDays caps how far ahead a single generation batch may
// materialize events; GenerationLeadDays is how long before the next undone
// date the follow-up batch is scheduled.
const (
	MaxGenerationHorizonDays = 90
	GenerationLeadDays       = 7
)

// Task queue
const (
	SchedulerQueue    = "scheduler"
	TaskRetentionDays = 7
)
