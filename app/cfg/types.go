package cfg

type Cfg struct {
	// Feed configuration
	FeedURL      string
	FeedConfig   string
	FetchTimeout int
	UserAgent    string

	// Storage configuration
	Storage       string
	DBPath        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// Application configuration
	Port     string
	Locale   string
	Timezone string
	Debug    bool
	Version  string
}
