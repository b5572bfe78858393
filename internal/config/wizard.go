package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// localeChoices are the locales offered by the wizard. Any valid BCP 47 tag
// works in the config file; these are just the common picks.
var localeChoices = []string{"en", "ru", "de", "fr", "es"}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .orgview.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to orgview! Let's configure your workspace.")
	fmt.Println()

	defaults := DefaultConfig()

	// 1. Listen port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(defaults.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port selection: %w", err)
	}
	port, _ := strconv.Atoi(portStr)

	// 2. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory (holds the SQLite database)",
		Default: defaults.DataDir,
	}
	dataDir, err := dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 3. Locale for tree group ordering.
	localePrompt := promptui.Select{
		Label: "Sort locale for tree groups",
		Items: localeChoices,
	}
	_, locale, err := localePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("locale selection: %w", err)
	}

	// 4. CORS policy.
	corsPrompt := promptui.Select{
		Label: "Allow browser requests from any origin",
		Items: []string{"no", "yes"},
	}
	corsIdx, _, err := corsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("cors selection: %w", err)
	}

	cfg := &Config{
		Port:            port,
		DataDir:         dataDir,
		Locale:          locale,
		PageLimit:       defaults.PageLimit,
		AllowAllOrigins: corsIdx == 1,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configPath := ".orgview.yml"
	if err := cfg.Save(configPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	return cfg, nil
}
