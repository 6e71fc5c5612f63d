package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/hpungsan/sieve/internal/scoring"
)

// DirName is the name of both the global (~/.sieve) and repo (.sieve) config directories.
const DirName = ".sieve"

// Config holds application configuration.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// Thresholds overrides the score tables per mode. A mode left unset keeps
	// the built-in table.
	Thresholds ThresholdsConfig `json:"thresholds"`

	// Assist configures the text-assist service.
	Assist AssistConfig `json:"assist"`

	// HTTP configures `sieve serve`.
	HTTP HTTPConfig `json:"http"`

	// PurgeAfterDays is the default age for `sieve purge`.
	PurgeAfterDays int `json:"purge_after_days,omitempty"`

	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside ~/.sieve/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// When true, any directory is allowed (but symlink and extension checks still apply).
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// ThresholdsConfig holds optional per-mode threshold tables.
type ThresholdsConfig struct {
	Professional *scoring.Table `json:"professional,omitempty"`
	Personal     *scoring.Table `json:"personal,omitempty"`
}

// AssistConfig selects the LLM provider used for text assists.
// An empty provider disables assists; every call then returns its fallback.
type AssistConfig struct {
	Provider       string `json:"provider,omitempty"`
	APIKey         string `json:"api_key,omitempty"`
	BaseURL        string `json:"base_url,omitempty"`
	Model          string `json:"model,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// HTTPConfig is the listen address for the JSON API.
type HTTPConfig struct {
	Bind string `json:"bind,omitempty"`
	Port int    `json:"port,omitempty"`
}

// envOverrides are read from the environment after the files are merged.
type envOverrides struct {
	LogLevel       string `env:"SIEVE_LOG_LEVEL"`
	AssistProvider string `env:"SIEVE_ASSIST_PROVIDER"`
	AssistAPIKey   string `env:"SIEVE_ASSIST_API_KEY"`
	AssistBaseURL  string `env:"SIEVE_ASSIST_BASE_URL"`
	AssistModel    string `env:"SIEVE_ASSIST_MODEL"`
	HTTPBind       string `env:"SIEVE_HTTP_BIND"`
	HTTPPort       int    `env:"SIEVE_HTTP_PORT"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:       "info",
		Assist:         AssistConfig{TimeoutSeconds: 30},
		HTTP:           HTTPConfig{Bind: "127.0.0.1", Port: 8420},
		PurgeAfterDays: 30,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.sieve.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.sieve) and repo (.sieve) directories.
// Repo config is found by walking upward from startDir to find the nearest .sieve/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing. Environment overrides are applied last.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repoConfigPath := FindRepoConfig(startDir)
	repo, err := loadFileRaw(repoConfigPath)
	if err != nil {
		return nil, err
	}

	cfg := Merge(Merge(DefaultConfig(), global), repo)
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindRepoConfig walks upward from startDir to find the nearest .sieve/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, DirName, "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// ApplyEnv overlays SIEVE_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	var env envOverrides
	if err := cleanenv.ReadEnv(&env); err != nil {
		return fmt.Errorf("config: read env: %w", err)
	}
	overlay := &Config{
		LogLevel: env.LogLevel,
		Assist: AssistConfig{
			Provider: env.AssistProvider,
			APIKey:   env.AssistAPIKey,
			BaseURL:  env.AssistBaseURL,
			Model:    env.AssistModel,
		},
		HTTP: HTTPConfig{Bind: env.HTTPBind, Port: env.HTTPPort},
	}
	*cfg = *Merge(cfg, overlay)
	return nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", configPath, err)
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.LogLevel = firstString(overlay.LogLevel, base.LogLevel)
	result.PurgeAfterDays = firstInt(overlay.PurgeAfterDays, base.PurgeAfterDays)
	result.DBMaxOpenConns = firstInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = firstInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	result.Assist = AssistConfig{
		Provider:       firstString(overlay.Assist.Provider, base.Assist.Provider),
		APIKey:         firstString(overlay.Assist.APIKey, base.Assist.APIKey),
		BaseURL:        firstString(overlay.Assist.BaseURL, base.Assist.BaseURL),
		Model:          firstString(overlay.Assist.Model, base.Assist.Model),
		TimeoutSeconds: firstInt(overlay.Assist.TimeoutSeconds, base.Assist.TimeoutSeconds),
	}
	result.HTTP = HTTPConfig{
		Bind: firstString(overlay.HTTP.Bind, base.HTTP.Bind),
		Port: firstInt(overlay.HTTP.Port, base.HTTP.Port),
	}

	// Threshold tables replace whole, per mode
	result.Thresholds = base.Thresholds
	if overlay.Thresholds.Professional != nil {
		result.Thresholds.Professional = overlay.Thresholds.Professional
	}
	if overlay.Thresholds.Personal != nil {
		result.Thresholds.Personal = overlay.Thresholds.Personal
	}

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// ScoringThresholds returns the effective tables, falling back to the
// built-in ones per mode.
func (c *Config) ScoringThresholds() scoring.Thresholds {
	th := scoring.DefaultThresholds()
	if c == nil {
		return th
	}
	if c.Thresholds.Professional != nil {
		th.Professional = *c.Thresholds.Professional
	}
	if c.Thresholds.Personal != nil {
		th.Personal = *c.Thresholds.Personal
	}
	return th
}

// SlogLevel maps LogLevel onto slog; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

// AssistTimeout is the per-call deadline for assist requests.
func (c *Config) AssistTimeout() time.Duration {
	if c.Assist.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Assist.TimeoutSeconds) * time.Second
}

// HTTPAddr is the listen address for the JSON API.
func (c *Config) HTTPAddr() string {
	return net.JoinHostPort(c.HTTP.Bind, strconv.Itoa(c.HTTP.Port))
}

// Validate rejects malformed threshold tables, unknown log levels and
// out-of-range ports.
func (c *Config) Validate() error {
	if _, ok := parseLevel(c.LogLevel); !ok {
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	if err := c.ScoringThresholds().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("config: http.port %d out of range", c.HTTP.Port)
	}
	if c.PurgeAfterDays < 0 {
		return fmt.Errorf("config: purge_after_days must not be negative")
	}
	return nil
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

func firstString(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func firstInt(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
