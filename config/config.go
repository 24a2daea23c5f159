package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the trip agent service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Eureka    EurekaConfig    `mapstructure:"eureka"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address       string        `mapstructure:"address"`
	StreamEnabled bool          `mapstructure:"stream_enabled"`
	TokenDelay    time.Duration `mapstructure:"token_delay"`
}

// LLMConfig contains LLM provider configurations
type LLMConfig struct {
	Providers map[string]LLMProvider `mapstructure:"providers"`
	Routing   LLMRoutingConfig       `mapstructure:"routing"`
}

// LLMProvider represents a single LLM provider configuration
type LLMProvider struct {
	Type    string        `mapstructure:"type"` // openai, gemini, anthropic
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LLMRoutingConfig selects providers for different pipeline duties
type LLMRoutingConfig struct {
	Extraction string `mapstructure:"extraction"` // candidate extraction calls
	Synthesis  string `mapstructure:"synthesis"`  // narrative answer
	Fallback   string `mapstructure:"fallback"`
}

func (l LLMConfig) Validate() error {
	if len(l.Providers) == 0 {
		return fmt.Errorf("llm.providers: at least one provider required")
	}
	for name, p := range l.Providers {
		switch p.Type {
		case "openai", "gemini", "anthropic":
		default:
			return fmt.Errorf("llm.providers.%s: unsupported type %q", name, p.Type)
		}
	}
	return nil
}

// Routing slot names accepted by Resolve.
const (
	SlotExtraction = "extraction"
	SlotSynthesis  = "synthesis"
)

// Resolve returns the provider configured for a routing slot, falling back to
// the fallback provider and then to any configured provider.
func (l LLMConfig) Resolve(slot string) (LLMProvider, error) {
	var name string
	switch slot {
	case SlotExtraction:
		name = l.Routing.Extraction
	case SlotSynthesis:
		name = l.Routing.Synthesis
	}
	if p, ok := l.Providers[name]; ok {
		return p, nil
	}
	if p, ok := l.Providers[l.Routing.Fallback]; ok {
		return p, nil
	}
	for _, p := range l.Providers {
		return p, nil
	}
	return LLMProvider{}, fmt.Errorf("no llm provider configured")
}

// SourcesConfig contains browse tool and search endpoint settings
type SourcesConfig struct {
	Region string         `mapstructure:"region"` // destination region the query template targets
	Browse BrowseConfig   `mapstructure:"browse"`
	Search []SearchSource `mapstructure:"search"`
}

// BrowseConfig selects and configures the browse tool backend
type BrowseConfig struct {
	Backend  string        `mapstructure:"backend"` // mcp or chromedp
	MCPURL   string        `mapstructure:"mcp_url"`
	MCPTool  string        `mapstructure:"mcp_tool"`
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxChars int           `mapstructure:"max_chars"`
}

// SearchSource is one external search endpoint queried during research
type SearchSource struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

func (s SourcesConfig) Validate() error {
	switch s.Browse.Backend {
	case "", "mcp", "chromedp":
	default:
		return fmt.Errorf("sources.browse.backend: unsupported backend %q", s.Browse.Backend)
	}
	for i, src := range s.Search {
		if strings.TrimSpace(src.Name) == "" || strings.TrimSpace(src.URL) == "" {
			return fmt.Errorf("sources.search[%d]: name and url required", i)
		}
	}
	return nil
}

// Normalize applies defaults for unset source values.
func (s SourcesConfig) Normalize() SourcesConfig {
	if s.Region == "" {
		s.Region = "Vietnam"
	}
	if s.Browse.Backend == "" {
		s.Browse.Backend = "mcp"
	}
	if s.Browse.MCPTool == "" {
		s.Browse.MCPTool = "chrome_navigate"
	}
	if s.Browse.Timeout <= 0 {
		s.Browse.Timeout = 20 * time.Second
	}
	if s.Browse.MaxChars <= 0 {
		s.Browse.MaxChars = 20000
	}
	if len(s.Search) == 0 {
		s.Search = []SearchSource{
			{Name: "duckduckgo", URL: "https://duckduckgo.com/?"},
			{Name: "vietnamtourism", URL: "https://vietnamtourism.gov.vn/search?"},
		}
	}
	return s
}

// EurekaConfig contains service-registry settings; registration is skipped
// when ServerURL is empty.
type EurekaConfig struct {
	ServerURL  string `mapstructure:"server_url"`
	AppName    string `mapstructure:"app_name"`
	InstanceID string `mapstructure:"instance_id"`
	PreferIP   bool   `mapstructure:"prefer_ip"`
}

// Normalize applies defaults for unset eureka values.
func (e EurekaConfig) Normalize() EurekaConfig {
	if e.AppName == "" {
		e.AppName = "TRIPAGENT"
	}
	e.ServerURL = strings.TrimRight(e.ServerURL, "/")
	return e
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig loads config from file
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", "20s")
	viper.SetDefault("server.address", ":10002")
	viper.SetDefault("server.stream_enabled", true)
	viper.SetDefault("server.token_delay", "20ms")
	viper.SetDefault("telemetry.enabled", true)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("TRIPAGENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	config.Sources = config.Sources.Normalize()
	config.Eureka = config.Eureka.Normalize()

	if err := config.LLM.Validate(); err != nil {
		panic(err)
	}
	if err := config.Sources.Validate(); err != nil {
		panic(err)
	}
	return &config
}
