// Package config loads handler settings from the environment.
//
// Settings come from environment variables. CONFIG_FILE may name a YAML file
// whose values are used for any variable left unset.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/answer"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/apperr"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/ingest"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/results"
)

const (
	BackendBedrock = "bedrock"
	BackendVertex  = "vertex"

	DefaultRegion = "us-east-1"
)

type Config struct {
	KnowledgeBaseID string `yaml:"knowledge_base_id"`
	ModelARN        string `yaml:"model_arn"`
	DataSourceID    string `yaml:"data_source_id"`
	Region          string `yaml:"region"`

	// GenerationBackend selects the answer generator: "bedrock" or "vertex".
	GenerationBackend string `yaml:"generation_backend"`
	VertexProject     string `yaml:"vertex_project"`
	VertexLocation    string `yaml:"vertex_location"`

	MaxRetries     int           `yaml:"max_retries"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	IngestRetries  int           `yaml:"ingest_max_retries"`
	IngestDelay    time.Duration `yaml:"ingest_base_delay"`
	Workers        int           `yaml:"workers"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	OutputPrefix   string        `yaml:"output_prefix"`
	LogLevel       string        `yaml:"log_level"`
}

// Defaults returns the settings used when nothing overrides them.
func Defaults() Config {
	return Config{
		Region:            DefaultRegion,
		GenerationBackend: BackendBedrock,
		MaxRetries:        answer.DefaultMaxRetries,
		RetryDelay:        answer.DefaultRetryDelay,
		IngestRetries:     ingest.DefaultMaxRetries,
		IngestDelay:       ingest.DefaultBaseDelay,
		Workers:           1,
		OutputPrefix:      results.DefaultPrefix,
		LogLevel:          "info",
	}
}

// Load reads the process environment.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads settings through getenv. Malformed values (a non-numeric
// MAX_RETRIES, an unreadable CONFIG_FILE) are configuration errors; missing
// required identifiers are left for ValidateAnswer / ValidateIngest.
func LoadFrom(getenv func(string) string) (Config, error) {
	cfg := Defaults()
	if p := strings.TrimSpace(getenv("CONFIG_FILE")); p != "" {
		if err := mergeFile(&cfg, p); err != nil {
			return Config{}, err
		}
	}

	e := envReader{getenv: getenv}
	e.str("KNOWLEDGE_BASE_ID", &cfg.KnowledgeBaseID)
	e.str("MODEL_ARN", &cfg.ModelARN)
	e.str("DATA_SOURCE_ID", &cfg.DataSourceID)
	e.str("REGION_NAME", &cfg.Region)
	e.str("GENERATION_BACKEND", &cfg.GenerationBackend)
	e.str("VERTEX_PROJECT", &cfg.VertexProject)
	e.str("VERTEX_LOCATION", &cfg.VertexLocation)
	e.str("OUTPUT_PREFIX", &cfg.OutputPrefix)
	e.str("LOG_LEVEL", &cfg.LogLevel)
	e.int("MAX_RETRIES", &cfg.MaxRetries)
	e.duration("RETRY_DELAY", &cfg.RetryDelay)
	e.int("INGEST_MAX_RETRIES", &cfg.IngestRetries)
	e.duration("INGEST_BASE_DELAY", &cfg.IngestDelay)
	e.int("WORKERS", &cfg.Workers)
	e.float("RATE_LIMIT_RPS", &cfg.RateLimitRPS)
	e.duration("REQUEST_TIMEOUT", &cfg.RequestTimeout)
	if e.err != nil {
		return Config{}, e.err
	}

	cfg.GenerationBackend = strings.ToLower(strings.TrimSpace(cfg.GenerationBackend))
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = DefaultRegion
	}
	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return apperr.Configf("read CONFIG_FILE: %v", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return apperr.Configf("parse CONFIG_FILE %s: %v", path, err)
	}
	return nil
}

// ValidateAnswer checks the settings the answer-questions handler needs.
func (c Config) ValidateAnswer() error {
	var missing []string
	if strings.TrimSpace(c.KnowledgeBaseID) == "" {
		missing = append(missing, "KNOWLEDGE_BASE_ID")
	}
	if strings.TrimSpace(c.ModelARN) == "" {
		missing = append(missing, "MODEL_ARN")
	}
	if len(missing) > 0 {
		return apperr.Configf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	switch c.GenerationBackend {
	case BackendBedrock:
	case BackendVertex:
		if strings.TrimSpace(c.VertexProject) == "" || strings.TrimSpace(c.VertexLocation) == "" {
			return apperr.Configf("VERTEX_PROJECT and VERTEX_LOCATION are required when GENERATION_BACKEND=vertex")
		}
	default:
		return apperr.Configf("unknown GENERATION_BACKEND %q", c.GenerationBackend)
	}
	if strings.TrimSpace(c.OutputPrefix) == "" {
		return apperr.Configf("OUTPUT_PREFIX must not be empty")
	}
	return c.validateTuning()
}

// ValidateIngest checks the settings the sync-knowledge-base handler needs.
func (c Config) ValidateIngest() error {
	if err := c.IngestConfig().Validate(); err != nil {
		return err
	}
	return c.validateTuning()
}

func (c Config) validateTuning() error {
	if c.MaxRetries < 1 {
		return apperr.Configf("MAX_RETRIES must be >= 1, got %d", c.MaxRetries)
	}
	if c.IngestRetries < 1 {
		return apperr.Configf("INGEST_MAX_RETRIES must be >= 1, got %d", c.IngestRetries)
	}
	if c.RetryDelay < 0 || c.IngestDelay < 0 || c.RequestTimeout < 0 {
		return apperr.Configf("delays and timeouts must not be negative")
	}
	if c.Workers < 1 {
		return apperr.Configf("WORKERS must be >= 1, got %d", c.Workers)
	}
	if c.RateLimitRPS < 0 {
		return apperr.Configf("RATE_LIMIT_RPS must not be negative")
	}
	return nil
}

// AnswerConfig returns the resolver settings.
func (c Config) AnswerConfig() answer.Config {
	return answer.Config{
		KnowledgeBaseID: strings.TrimSpace(c.KnowledgeBaseID),
		ModelID:         strings.TrimSpace(c.ModelARN),
		MaxRetries:      c.MaxRetries,
		RetryDelay:      c.RetryDelay,
		RequestTimeout:  c.RequestTimeout,
		RateLimitRPS:    c.RateLimitRPS,
	}
}

// IngestConfig returns the ingestion trigger settings.
func (c Config) IngestConfig() ingest.Config {
	return ingest.Config{
		KnowledgeBaseID: strings.TrimSpace(c.KnowledgeBaseID),
		DataSourceID:    strings.TrimSpace(c.DataSourceID),
		MaxRetries:      c.IngestRetries,
		BaseDelay:       c.IngestDelay,
	}
}

type envReader struct {
	getenv func(string) string
	err    error
}

func (e *envReader) lookup(name string) (string, bool) {
	if e.err != nil {
		return "", false
	}
	v := strings.TrimSpace(e.getenv(name))
	return v, v != ""
}

func (e *envReader) fail(name, v string, err error) {
	e.err = apperr.Configf("invalid %s=%q: %v", name, v, err)
}

func (e *envReader) str(name string, dst *string) {
	if v, ok := e.lookup(name); ok {
		*dst = v
	}
}

func (e *envReader) int(name string, dst *int) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	out, err := strconv.Atoi(v)
	if err != nil {
		e.fail(name, v, err)
		return
	}
	*dst = out
}

func (e *envReader) float(name string, dst *float64) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	out, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(name, v, err)
		return
	}
	*dst = out
}

// duration accepts Go durations ("5s", "250ms") or a bare number of seconds.
func (e *envReader) duration(name string, dst *time.Duration) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		*dst = time.Duration(secs * float64(time.Second))
		return
	}
	out, err := time.ParseDuration(v)
	if err != nil {
		e.fail(name, v, fmt.Errorf("want a duration like 5s or a number of seconds"))
		return
	}
	*dst = out
}
