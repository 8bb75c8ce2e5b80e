package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	Port          string
	APIAccessKey  string
	PlatformsFile string

	// Dispatcher configuration
	WorkerCount      int
	DispatchInterval int
	DueBatchLimit    int
	PublishTimeout   int

	// Retry configuration
	RetryMaxAttempts int
	RetryBaseDelay   int
	RetryMaxDelay    int

	// Cache configuration
	RedisAddr string
	RedisTTL  int

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
