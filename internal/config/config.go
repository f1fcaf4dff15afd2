// Package config loads the run configuration from an optional YAML file, a .env file
// and SPARKIFY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	apperrors "github.com/sanchitvj/sparkify-lake/internal/errors"
	"github.com/sanchitvj/sparkify-lake/internal/storage"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

// Module provides Config to the application graph.
var Module = fx.Module("config", fx.Provide(Load))

const (
	envPrefix      = "SPARKIFY"
	configEnv      = "SPARKIFY_CONFIG"
	configName     = "dl"
	DefaultInput   = "s3a://udacity-dend/"
	DefaultOutput  = "s3a://udacity-data-lake-project-mar15/data_lake_project/"
	DefaultStats   = "etl_stats.json"
	DefaultTimeout = 6 * time.Hour
)

// Config holds the settings of one pipeline run.
type Config struct {
	Environment string `mapstructure:"environment" validate:"required"`
	Version     string `mapstructure:"version"`

	InputRoot   string        `mapstructure:"input_root" validate:"required"`
	OutputRoot  string        `mapstructure:"output_root" validate:"required"`
	SongPattern string        `mapstructure:"song_pattern" validate:"required"`
	LogPattern  string        `mapstructure:"log_pattern" validate:"required"`
	StatsPath   string        `mapstructure:"stats_path"`
	ProbeOutput bool          `mapstructure:"probe_output"`
	RunTimeout  time.Duration `mapstructure:"run_timeout" validate:"gte=0"`

	AWS     AWSConfig     `mapstructure:"aws"`
	Parquet ParquetConfig `mapstructure:"parquet"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// AWSConfig carries the S3 client settings. Leaving both keys empty selects the SDK
// default credential chain.
type AWSConfig struct {
	AccessKeyID     string `mapstructure:"access_key_id" validate:"required_with=SecretAccessKey"`
	SecretAccessKey string `mapstructure:"secret_access_key" validate:"required_with=AccessKeyID"`
	Region          string `mapstructure:"region" validate:"required"`
	Endpoint        string `mapstructure:"endpoint" validate:"omitempty,url"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
	VerifyUploads   bool   `mapstructure:"verify_uploads"`
}

type ParquetConfig struct {
	Compression string `mapstructure:"compression" validate:"oneof=snappy gzip zstd none uncompressed"`
	Parallelism int64  `mapstructure:"parallelism" validate:"gte=1,lte=64"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url" validate:"omitempty,url"`
	Job            string `mapstructure:"job" validate:"required"`
}

type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint" validate:"required_if=Enabled true"`
}

// Input parses InputRoot.
func (c Config) Input() (storage.Location, error) {
	return storage.ParseLocation(c.InputRoot)
}

// Output parses OutputRoot.
func (c Config) Output() (storage.Location, error) {
	return storage.ParseLocation(c.OutputRoot)
}

// S3 returns the storage client settings.
func (c Config) S3() storage.S3Config {
	return storage.S3Config{
		Region:          c.AWS.Region,
		AccessKeyID:     c.AWS.AccessKeyID,
		SecretAccessKey: c.AWS.SecretAccessKey,
		Endpoint:        c.AWS.Endpoint,
		ForcePathStyle:  c.AWS.ForcePathStyle,
		VerifyUploads:   c.AWS.VerifyUploads,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("version", "dev")
	v.SetDefault("input_root", DefaultInput)
	v.SetDefault("output_root", DefaultOutput)
	v.SetDefault("song_pattern", "song_data/*/*/*/*.json")
	v.SetDefault("log_pattern", "log_data/*/*/*.json")
	v.SetDefault("stats_path", DefaultStats)
	v.SetDefault("probe_output", true)
	v.SetDefault("run_timeout", DefaultTimeout)

	v.SetDefault("aws.access_key_id", "")
	v.SetDefault("aws.secret_access_key", "")
	v.SetDefault("aws.region", "us-west-2")
	v.SetDefault("aws.endpoint", "")
	v.SetDefault("aws.force_path_style", false)
	v.SetDefault("aws.verify_uploads", true)

	v.SetDefault("parquet.compression", "snappy")
	v.SetDefault("parquet.parallelism", 4)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "sparkify_etl")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4317")
}

// Load reads configuration. The file named by SPARKIFY_CONFIG must exist; otherwise
// dl.yaml is looked up in the working directory and /etc/sparkify and may be absent.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("aws.access_key_id", "SPARKIFY_AWS_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID")
	_ = v.BindEnv("aws.secret_access_key", "SPARKIFY_AWS_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY")
	_ = v.BindEnv("aws.region", "SPARKIFY_AWS_REGION", "AWS_REGION")

	if path := strings.TrimSpace(os.Getenv(configEnv)); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, apperrors.NewConfig(fmt.Sprintf("read config file %s", path), err)
		}
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/sparkify")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, apperrors.NewConfig("read config file", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, apperrors.NewConfig("decode config", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and that both roots parse.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return apperrors.NewConfig("invalid configuration: "+strings.Join(msgs, "; "), err)
		}
		return apperrors.NewConfig("invalid configuration", err)
	}
	if _, err := c.Input(); err != nil {
		return err
	}
	if _, err := c.Output(); err != nil {
		return err
	}
	return nil
}
