package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/anhcx0209/ontodia-search/errors"
	"github.com/anhcx0209/ontodia-search/pkg/tlsutil"
	"github.com/anhcx0209/ontodia-search/transport"
)

// EnvPrefix prefixes the environment variables read by Loader.
const EnvPrefix = "ONTODIA"

// Log levels and formats accepted by LogConfig.
var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"json", "text"}
)

// Config is the complete configuration of the data provider binary.
type Config struct {
	Endpoint        string          `json:"endpoint" yaml:"endpoint"`
	Method          string          `json:"method" yaml:"method"`
	Dialect         string          `json:"dialect" yaml:"dialect"`
	DialectFiles    []string        `json:"dialect_files" yaml:"dialect_files"`
	SearchDialect   string          `json:"search_dialect" yaml:"search_dialect"`
	LabelProperty   string          `json:"label_property" yaml:"label_property"`
	ConceptClass    string          `json:"concept_class" yaml:"concept_class"`
	ImageProperties []string        `json:"image_properties" yaml:"image_properties"`
	Timeout         time.Duration   `json:"timeout" yaml:"timeout"`
	RateLimit       RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`
	Server          ServerConfig    `json:"server" yaml:"server"`
	Metrics         MetricsConfig   `json:"metrics" yaml:"metrics"`
	Log             LogConfig       `json:"log" yaml:"log"`
	Retry           RetryConfig     `json:"retry" yaml:"retry"`
	TLS             TLSConfig       `json:"tls" yaml:"tls"`
}

// RateLimitConfig throttles requests to the endpoint. Zero RPS disables it.
type RateLimitConfig struct {
	RPS   float64 `json:"rps" yaml:"rps"`
	Burst int     `json:"burst" yaml:"burst"`
}

// ServerConfig configures the HTTP gateway.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// MetricsConfig configures a standalone metrics listener. An empty Addr
// leaves metrics on the gateway's /metrics route only.
type MetricsConfig struct {
	Addr string `json:"addr" yaml:"addr"`
	Path string `json:"path" yaml:"path"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// RetryConfig controls caller-side retries of transient failures.
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts" yaml:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay" yaml:"initial_delay"`
}

// TLSConfig holds the endpoint client and gateway listener TLS settings.
type TLSConfig struct {
	Client tlsutil.ClientConfig `json:"client" yaml:"client"`
	Server tlsutil.ServerConfig `json:"server" yaml:"server"`
}

// Default returns the configuration used when no file sets a field.
func Default() *Config {
	return &Config{
		Method:  "GET",
		Dialect: "owl-stats",
		Timeout: 60 * time.Second,
		Server:  ServerConfig{Addr: ":8080"},
		Metrics: MetricsConfig{Path: "/metrics"},
		Log:     LogConfig{Level: "info", Format: "json"},
		Retry:   RetryConfig{MaxAttempts: 3, InitialDelay: 200 * time.Millisecond},
	}
}

// Validate checks that c can build a provider.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "endpoint is required")
	}
	if u, err := url.Parse(c.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("endpoint %q is not an absolute URL", c.Endpoint))
	}
	if _, err := transport.ParseMethod(c.Method); err != nil {
		return err
	}
	if c.Dialect == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "dialect is required")
	}
	if c.Timeout < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "timeout cannot be negative")
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "rate_limit cannot be negative")
	}
	if !oneOf(strings.ToLower(c.Log.Level), logLevels) {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("log.level %q is not one of %v", c.Log.Level, logLevels))
	}
	if !oneOf(strings.ToLower(c.Log.Format), logFormats) {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("log.format %q is not one of %v", c.Log.Format, logFormats))
	}
	if c.Retry.MaxAttempts < 1 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "retry.max_attempts must be at least 1")
	}
	if c.Retry.InitialDelay < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "retry.initial_delay cannot be negative")
	}
	if c.TLS.Server.Enabled() && c.TLS.Server.KeyFile == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "tls.server.key_file is required with cert_file")
	}
	return nil
}

// String returns the configuration as indented JSON.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

func oneOf(s string, allowed []string) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}

// Loader builds a Config from defaults, file layers and the environment.
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
	lookupEnv  func(string) (string, bool)
}

// NewLoader creates a loader with no layers and validation disabled.
func NewLoader() *Loader {
	return &Loader{
		envPrefix: EnvPrefix,
		lookupEnv: os.LookupEnv,
	}
}

// AddLayer adds a configuration file. Later layers override earlier ones.
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation runs Config.Validate at the end of Load.
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads configuration from a single file.
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load merges the defaults, every layer and the environment, in that order.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	for _, path := range l.layers {
		raw, err := loadRaw(path)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load", "load "+path)
		}
		cfg, err = mergeFromMap(cfg, raw)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load", "merge "+path)
		}
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// loadRaw decodes a YAML or JSON file, chosen by extension, into a map.
func loadRaw(path string) (map[string]any, error) {
	data, err := safeReadFile(path)
	if err != nil {
		return nil, err
	}

	raw := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := validateJSONDepth(data); err != nil {
			return nil, fmt.Errorf("invalid JSON structure: %w", err)
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	}

	if err := parseDurations(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// parseDurations converts duration strings such as "30s" to nanoseconds
// so the merged map decodes into time.Duration fields.
func parseDurations(raw map[string]any) error {
	if err := parseDurationField(raw, "timeout"); err != nil {
		return err
	}
	if retry, ok := raw["retry"].(map[string]any); ok {
		return parseDurationField(retry, "initial_delay")
	}
	return nil
}

func parseDurationField(m map[string]any, key string) error {
	s, ok := m[key].(string)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	m[key] = d.Nanoseconds()
	return nil
}

// mergeFromMap overrides only the fields present in override.
func mergeFromMap(base *Config, override map[string]any) (*Config, error) {
	baseJSON, err := json.Marshal(base)
	if err != nil {
		return nil, err
	}
	var baseMap map[string]any
	if err := json.Unmarshal(baseJSON, &baseMap); err != nil {
		return nil, err
	}

	mergedJSON, err := json.Marshal(deepMergeMaps(baseMap, override))
	if err != nil {
		return nil, err
	}
	var merged Config
	if err := json.Unmarshal(mergedJSON, &merged); err != nil {
		return nil, err
	}
	return &merged, nil
}

// deepMergeMaps merges override into base. Nested maps merge recursively;
// any other override value replaces the base value.
func deepMergeMaps(base, override map[string]any) map[string]any {
	result := make(map[string]any, len(base))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range override {
		if v == nil {
			continue
		}
		if baseMap, ok := base[k].(map[string]any); ok {
			if overrideMap, ok := v.(map[string]any); ok {
				result[k] = deepMergeMaps(baseMap, overrideMap)
				continue
			}
		}
		result[k] = v
	}
	return result
}

// applyEnvOverrides reads PREFIX_ENDPOINT, PREFIX_METHOD and friends.
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"ENDPOINT":       &cfg.Endpoint,
		"METHOD":         &cfg.Method,
		"DIALECT":        &cfg.Dialect,
		"SEARCH_DIALECT": &cfg.SearchDialect,
		"LABEL_PROPERTY": &cfg.LabelProperty,
		"CONCEPT_CLASS":  &cfg.ConceptClass,
		"SERVER_ADDR":    &cfg.Server.Addr,
		"METRICS_ADDR":   &cfg.Metrics.Addr,
		"LOG_LEVEL":      &cfg.Log.Level,
		"LOG_FORMAT":     &cfg.Log.Format,
		"TLS_CERT_FILE":  &cfg.TLS.Server.CertFile,
		"TLS_KEY_FILE":   &cfg.TLS.Server.KeyFile,
	}
	for suffix, dst := range strs {
		if val, ok := l.env(suffix); ok {
			*dst = val
		}
	}

	lists := map[string]*[]string{
		"DIALECT_FILES":    &cfg.DialectFiles,
		"IMAGE_PROPERTIES": &cfg.ImageProperties,
		"TLS_CA_FILES":     &cfg.TLS.Client.CAFiles,
	}
	for suffix, dst := range lists {
		if val, ok := l.env(suffix); ok {
			*dst = splitList(val)
		}
	}

	if val, ok := l.env("TIMEOUT"); ok {
		d, err := time.ParseDuration(val)
		if err != nil {
			return errors.WrapInvalid(err, "Loader", "applyEnvOverrides", "parse "+l.envPrefix+"_TIMEOUT")
		}
		cfg.Timeout = d
	}
	if val, ok := l.env("RATE_LIMIT"); ok {
		rps, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return errors.WrapInvalid(err, "Loader", "applyEnvOverrides", "parse "+l.envPrefix+"_RATE_LIMIT")
		}
		cfg.RateLimit.RPS = rps
	}
	if val, ok := l.env("RETRY_MAX_ATTEMPTS"); ok {
		n, err := strconv.Atoi(val)
		if err != nil {
			return errors.WrapInvalid(err, "Loader", "applyEnvOverrides", "parse "+l.envPrefix+"_RETRY_MAX_ATTEMPTS")
		}
		cfg.Retry.MaxAttempts = n
	}
	return nil
}

func (l *Loader) env(suffix string) (string, bool) {
	key := l.envPrefix + "_" + suffix
	val, ok := l.lookupEnv(key)
	if !ok || val == "" {
		return "", false
	}
	if err := validateEnvVar(key, val); err != nil {
		return "", false
	}
	return val, true
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
