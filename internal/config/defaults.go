package config

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:            8080,
		DataDir:         ".orgview",
		Locale:          "en",
		PageLimit:       10000,
		AllowAllOrigins: false,
	}
}
