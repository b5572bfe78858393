package config

// Config is the top-level orgview configuration, corresponding to .orgview.yml.
type Config struct {
	Port            int    `yaml:"port" koanf:"port"`
	DataDir         string `yaml:"data_dir" koanf:"data_dir"`
	Locale          string `yaml:"locale" koanf:"locale"`
	PageLimit       int    `yaml:"page_limit" koanf:"page_limit"`
	AllowAllOrigins bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}
