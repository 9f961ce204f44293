package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

// ErrMissingSetting is returned by Validate when a required value is empty.
var ErrMissingSetting = errors.New("missing required setting")

type Config struct {
	GitHub     GitHub     `yaml:"github"`
	LLM        LLM        `yaml:"llm"`
	Enrichment Enrichment `yaml:"enrichment"`
	Report     Report     `yaml:"report"`
	Output     Output     `yaml:"output"`
	Server     Server     `yaml:"server"`
	Logging    Logging    `yaml:"logging"`
}

type GitHub struct {
	Username     string        `yaml:"username"`
	TokenEnv     string        `yaml:"token_env"`
	APIURL       string        `yaml:"api_url"`
	RequestDelay time.Duration `yaml:"request_delay"`
	MaxRetries   int           `yaml:"max_retries"`

	// Token is resolved from TokenEnv, never read from the file.
	Token string `yaml:"-"`
}

type LLM struct {
	Provider           string  `yaml:"provider"`
	Model              string  `yaml:"model"`
	BaseURL            string  `yaml:"base_url"`
	APIKeyEnv          string  `yaml:"api_key_env"`
	OllamaURL          string  `yaml:"ollama_url"`
	SummaryTemperature float64 `yaml:"summary_temperature"`
	ReportTemperature  float64 `yaml:"report_temperature"`
	MaxTokens          int     `yaml:"max_tokens"`

	APIKey string `yaml:"-"`
}

type Enrichment struct {
	Releases bool `yaml:"releases"`
}

type Bands struct {
	Hot     int `yaml:"hot"`
	Active  int `yaml:"active"`
	Dormant int `yaml:"dormant"`
}

type Report struct {
	Bands Bands `yaml:"bands"`
	TopN  int   `yaml:"top_n"`
}

type Output struct {
	CSVDir    string `yaml:"csv_dir"`
	ReportDir string `yaml:"report_dir"`
	DataDir   string `yaml:"data_dir"`
	Locale    string `yaml:"locale"`
	XLSX      bool   `yaml:"xlsx"`
	HTML      bool   `yaml:"html"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ConfigDir returns the XDG config directory for startracker.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "startracker")
}

// DataDir returns the XDG data directory for startracker.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "startracker")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/startracker/config.yaml > ./config.yaml.
// An empty result with nil error means no file exists and defaults apply.
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", nil
}

// Load reads the config file (if any), loads .env, and applies environment
// overrides. It does not validate; call Validate before a run.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}

	// A missing .env is normal; real environment variables still apply.
	_ = godotenv.Load()

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration without consulting any file
// or the environment.
func Default() *Config {
	cfg, _ := parse(nil)
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		GitHub: GitHub{
			TokenEnv:     "GITHUB_TOKEN",
			RequestDelay: 200 * time.Millisecond,
			MaxRetries:   3,
		},
		LLM: LLM{
			Provider:           "openai",
			Model:              "gpt-3.5-turbo",
			BaseURL:            "https://api.openai.com/v1",
			APIKeyEnv:          "OPENAI_API_KEY",
			OllamaURL:          "http://localhost:11434",
			SummaryTemperature: 0.3,
			ReportTemperature:  0.6,
			MaxTokens:          2048,
		},
		Report: Report{
			Bands: Bands{Hot: 30, Active: 180, Dormant: 365},
			TopN:  5,
		},
		Output: Output{
			CSVDir:    "csv_output",
			ReportDir: "reports",
			Locale:    "en",
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "info", Format: "text"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// applyEnv resolves secrets and environment overrides through lookup.
func (c *Config) applyEnv(lookup func(string) string) error {
	c.GitHub.Token = lookup(c.GitHub.TokenEnv)
	c.LLM.APIKey = lookup(c.LLM.APIKeyEnv)

	if v := lookup("GITHUB_USERNAME"); v != "" {
		c.GitHub.Username = v
	}
	if v := lookup("OPENAI_API_BASE"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := lookup("LLM_MODEL_NAME"); v != "" {
		c.LLM.Model = v
	}
	if v := lookup("REQUEST_DELAY"); v != "" {
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil || secs < 0 {
			return fmt.Errorf("invalid REQUEST_DELAY %q: expected non-negative seconds", v)
		}
		c.GitHub.RequestDelay = time.Duration(secs * float64(time.Second))
	}
	return nil
}

// Validate checks that everything a run needs is present.
func (c *Config) Validate() error {
	var missing []string
	if c.GitHub.Token == "" {
		missing = append(missing, c.GitHub.TokenEnv)
	}
	if c.GitHub.Username == "" {
		missing = append(missing, "GITHUB_USERNAME")
	}
	if strings.EqualFold(c.LLM.Provider, "openai") && c.LLM.APIKey == "" {
		missing = append(missing, c.LLM.APIKeyEnv)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s (set them in the environment or a .env file)", ErrMissingSetting, strings.Join(missing, ", "))
	}

	b := c.Report.Bands
	if !(0 < b.Hot && b.Hot <= b.Active && b.Active <= b.Dormant) {
		return fmt.Errorf("invalid report bands: need 0 < hot <= active <= dormant, got %d/%d/%d", b.Hot, b.Active, b.Dormant)
	}
	if c.Report.TopN <= 0 {
		return fmt.Errorf("report.top_n must be positive, got %d", c.Report.TopN)
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
