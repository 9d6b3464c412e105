package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gymnasier-export/internal/configutil"
	"gymnasier-export/internal/ednia"
	"gymnasier-export/internal/resrobot"
	"gymnasier-export/internal/telemetry"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"gopkg.in/ini.v1"
)

const (
	DefaultPath    = "gymnasier.json5"
	DefaultEnvFile = ".env"
	DefaultOrigin  = "Björkhagen"
	DefaultOutput  = "schools.csv"

	AccessKeyEnv = "RESROBOT_API_KEY"
)

var ErrMissingAccessKey = fmt.Errorf("%s not found in config, %s or environment", AccessKeyEnv, DefaultEnvFile)

type ResRobot struct {
	AccessKey    string  `json:"access_key" yaml:"access_key"`
	BaseUrl      string  `json:"base_url" yaml:"base_url" validate:"omitempty,url"`
	DelaySeconds float64 `json:"delay_seconds" yaml:"delay_seconds" validate:"gte=0"`
}

type Ednia struct {
	BaseUrl      string  `json:"base_url" yaml:"base_url" validate:"omitempty,url"`
	DelaySeconds float64 `json:"delay_seconds" yaml:"delay_seconds" validate:"gte=0"`
	Municipality string  `json:"municipality" yaml:"municipality" validate:"required"`
	Take         int     `json:"take" yaml:"take" validate:"gt=0"`
}

type Telemetry struct {
	Otlp telemetry.OtlpConfig `json:"otlp" yaml:"otlp"`
	// MetricsFile receives the prometheus metrics of the run when set.
	MetricsFile string `json:"metrics_file" yaml:"metrics_file"`
	// DumpHttpDir receives a dump of every upstream request when set.
	DumpHttpDir string `json:"dump_http_dir" yaml:"dump_http_dir"`
}

type Config struct {
	ResRobot    ResRobot  `json:"resrobot" yaml:"resrobot"`
	Ednia       Ednia     `json:"ednia" yaml:"ednia"`
	Origin      string    `json:"origin" yaml:"origin" validate:"required"`
	Output      string    `json:"output" yaml:"output" validate:"required"`
	SchoolLimit int       `json:"school_limit" yaml:"school_limit" validate:"gte=0"`
	Telemetry   Telemetry `json:"telemetry" yaml:"telemetry"`
}

func Defaults() Config {
	return Config{
		ResRobot: ResRobot{
			BaseUrl:      resrobot.DefaultBaseUrl,
			DelaySeconds: resrobot.DefaultInterval.Seconds(),
		},
		Ednia: Ednia{
			BaseUrl:      ednia.DefaultBaseUrl,
			DelaySeconds: ednia.DefaultInterval.Seconds(),
			Municipality: ednia.DefaultMunicipality,
			Take:         ednia.DefaultTake,
		},
		Origin: DefaultOrigin,
		Output: DefaultOutput,
	}
}

// Seconds converts a delay in (fractional) seconds to a duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Load merges Defaults() with the config file at path and its .local
// sibling, both optional. When neither sets the access key it is read from
// envFile and then from the process environment. A missing key is not an
// error here, see Validate.
func Load(path, envFile string) (Config, error) {
	cfg := Defaults()

	file, err := configutil.ReadConfig[Config](path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		err = mergo.Merge(&cfg, file, mergo.WithOverride)
		if err != nil {
			return Config{}, fmt.Errorf("merge config: %w", err)
		}
	}

	if cfg.ResRobot.AccessKey == "" {
		key, err := readEnvFile(envFile, AccessKeyEnv)
		if err != nil {
			return Config{}, err
		}
		cfg.ResRobot.AccessKey = key
	}
	if cfg.ResRobot.AccessKey == "" {
		cfg.ResRobot.AccessKey = os.Getenv(AccessKeyEnv)
	}

	return cfg, nil
}

// readEnvFile returns the value of key in a KEY=value file, empty when the
// file or the key does not exist.
func readEnvFile(path, key string) (string, error) {
	if path == "" {
		return "", nil
	}
	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read env file: %w", err)
	}

	file, err := ini.Load(path)
	if err != nil {
		return "", fmt.Errorf("read env file: %w", err)
	}
	return file.Section(ini.DefaultSection).Key(key).String(), nil
}

var validate = validator.New()

// Validate fails with ErrMissingAccessKey before anything else so the
// process can stop before making any request.
func (c Config) Validate() error {
	if c.ResRobot.AccessKey == "" {
		return ErrMissingAccessKey
	}
	err := validate.Struct(c)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
