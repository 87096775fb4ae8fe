package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Application configuration
	Port             string
	APIAccessKey     string
	SourceHost       string
	SourcePathPrefix string
	SweepInterval    int // seconds
	StaleAfter       int // seconds
	ItemDelay        int // milliseconds
	FetchTimeout     int // seconds

	// SMTP configuration
	SmtpServer   string
	SmtpPort     int
	SmtpAddress  string
	SmtpPassword string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
