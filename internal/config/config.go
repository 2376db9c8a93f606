package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/weave/internal/logging"
)

// EnvPrefix marks environment variables read by Load.
const EnvPrefix = "WEAVE_"

// Checkpoint backends.
const (
	BackendNone     = "none"
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendS3       = "s3" // reserved, fails with NotImplementedError
)

// Settings is the process configuration of the CLI and the server.
type Settings struct {
	Env        string     `mapstructure:"env"`
	LogLevel   string     `mapstructure:"log_level"`
	MaxSteps   int        `mapstructure:"max_steps"`
	Checkpoint Checkpoint `mapstructure:"checkpoint"`
	HTTP       HTTP       `mapstructure:"http"`
}

// Checkpoint selects and configures the checkpoint store.
type Checkpoint struct {
	Backend       string        `mapstructure:"backend"`
	Dir           string        `mapstructure:"dir"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	Prefix        string        `mapstructure:"prefix"`
	TTL           time.Duration `mapstructure:"ttl"`
	PostgresDSN   string        `mapstructure:"postgres_dsn"`
	// EncryptionKey enables AES-256-GCM at rest (32 bytes, hex or base64).
	EncryptionKey string `mapstructure:"encryption_key"`
	// MaskFields are key patterns whose values are masked before saving.
	MaskFields []string `mapstructure:"mask_fields"`
}

// HTTP configures weave serve.
type HTTP struct {
	Addr string `mapstructure:"addr"`
}

// Default returns the settings used when nothing is configured.
func Default() Settings {
	return Settings{
		Env:      "development",
		LogLevel: "info",
		Checkpoint: Checkpoint{
			Backend: BackendFile,
			Dir:     ".weave/checkpoints",
		},
		HTTP: HTTP{Addr: ":8080"},
	}
}

// Load reads the optional YAML file at path, then applies WEAVE_* variables from environ.
// A missing file is an error only when path was given explicitly.
func Load(path string, environ []string) (Settings, error) {
	s := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return s, fmt.Errorf("failed to read config: %w", err)
		}
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return s, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		if err := decode(raw, &s, true); err != nil {
			return s, fmt.Errorf("invalid config %s: %w", path, err)
		}
	}

	if err := decode(fromEnv(environ), &s, false); err != nil {
		return s, fmt.Errorf("invalid environment: %w", err)
	}
	return s, s.Validate()
}

// Validate checks the settings for contradictions.
func (s Settings) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(s.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if s.MaxSteps < 0 {
		errs = append(errs, fmt.Errorf("max_steps must not be negative, got %d", s.MaxSteps))
	}

	cp := s.Checkpoint
	switch cp.Backend {
	case BackendNone, BackendMemory, BackendS3:
	case BackendFile:
		if cp.Dir == "" {
			errs = append(errs, errors.New("checkpoint.dir is required for the file backend"))
		}
	case BackendRedis:
		if cp.RedisAddr == "" {
			errs = append(errs, errors.New("checkpoint.redis_addr is required for the redis backend"))
		}
	case BackendPostgres:
		if cp.PostgresDSN == "" {
			errs = append(errs, errors.New("checkpoint.postgres_dsn is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown checkpoint backend %q", cp.Backend))
	}
	if cp.TTL < 0 {
		errs = append(errs, fmt.Errorf("checkpoint.ttl must not be negative, got %s", cp.TTL))
	}
	return errors.Join(errs...)
}

func decode(input map[string]any, out *Settings, strict bool) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      strict,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// sections are the nested blocks addressable from the environment,
// e.g. WEAVE_CHECKPOINT_REDIS_ADDR sets checkpoint.redis_addr.
var sections = []string{"checkpoint", "http"}

func fromEnv(environ []string) map[string]any {
	out := make(map[string]any)
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))

		nested := false
		for _, section := range sections {
			if field, found := strings.CutPrefix(key, section+"_"); found {
				block, _ := out[section].(map[string]any)
				if block == nil {
					block = make(map[string]any)
					out[section] = block
				}
				block[field] = value
				nested = true
				break
			}
		}
		if !nested {
			out[key] = value
		}
	}
	return out
}
