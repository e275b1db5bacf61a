package config

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Input  InputConfig  `yaml:"input" mapstructure:"input"`
	Clean  CleanConfig  `yaml:"clean" mapstructure:"clean"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Batch  BatchConfig  `yaml:"batch" mapstructure:"batch"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// InputConfig configures source loading.
type InputConfig struct {
	Delimiter       string  `yaml:"delimiter" mapstructure:"delimiter"`
	Encoding        string  `yaml:"encoding" mapstructure:"encoding"`
	Sheet           string  `yaml:"sheet" mapstructure:"sheet"`
	SheetIndex      int     `yaml:"sheet_index" mapstructure:"sheet_index"`
	ZipMember       string  `yaml:"zip_member" mapstructure:"zip_member"`
	Comment         string  `yaml:"comment" mapstructure:"comment"`
	LazyQuotes      bool    `yaml:"lazy_quotes" mapstructure:"lazy_quotes"`
	TrimSpace       bool    `yaml:"trim_space" mapstructure:"trim_space"`
	TempDir         string  `yaml:"temp_dir" mapstructure:"temp_dir"`
	HTTPTimeoutSecs int     `yaml:"http_timeout_secs" mapstructure:"http_timeout_secs"`
	HTTPMaxRetries  int     `yaml:"http_max_retries" mapstructure:"http_max_retries"`
	HTTPRatePerHost float64 `yaml:"http_rate_per_host" mapstructure:"http_rate_per_host"`
	UserAgent       string  `yaml:"user_agent" mapstructure:"user_agent"`
	FTPTimeoutSecs  int     `yaml:"ftp_timeout_secs" mapstructure:"ftp_timeout_secs"`
}

// HTTPTimeout returns the download timeout as a duration.
func (c InputConfig) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSecs) * time.Second
}

// FTPTimeout returns the FTP dial timeout as a duration.
func (c InputConfig) FTPTimeout() time.Duration {
	return time.Duration(c.FTPTimeoutSecs) * time.Second
}

// DelimiterRune returns the configured delimiter, or 0 for the parser default.
// "\t" and "tab" both select a tab.
func (c InputConfig) DelimiterRune() rune {
	switch c.Delimiter {
	case "":
		return 0
	case `\t`, "tab":
		return '\t'
	}
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

// CommentRune returns the CSV comment character, or 0 when unset.
func (c InputConfig) CommentRune() rune {
	if c.Comment == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(c.Comment)
	return r
}

// CleanConfig configures normalization. Empty lists fall back to the
// built-in date layouts and NA markers.
type CleanConfig struct {
	DateLayouts     []string `yaml:"date_layouts" mapstructure:"date_layouts"`
	NAValues        []string `yaml:"na_values" mapstructure:"na_values"`
	UnknownItem     string   `yaml:"unknown_item" mapstructure:"unknown_item"`
	DiscountDefault string   `yaml:"discount_default" mapstructure:"discount_default"`
	UnknownLabel    string   `yaml:"unknown_label" mapstructure:"unknown_label"`
}

// OutputConfig configures where and how cleaned tables are written.
type OutputConfig struct {
	Format       string `yaml:"format" mapstructure:"format"`
	Dir          string `yaml:"dir" mapstructure:"dir"`
	ReportFormat string `yaml:"report_format" mapstructure:"report_format"`
}

// BatchConfig configures multi-file processing.
type BatchConfig struct {
	MaxConcurrentFiles int `yaml:"max_concurrent_files" mapstructure:"max_concurrent_files"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RETAIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("input.delimiter", ",")
	v.SetDefault("input.encoding", "utf-8")
	v.SetDefault("input.sheet", "")
	v.SetDefault("input.sheet_index", 0)
	v.SetDefault("input.zip_member", "")
	v.SetDefault("input.comment", "")
	v.SetDefault("input.lazy_quotes", false)
	v.SetDefault("input.trim_space", false)
	v.SetDefault("input.temp_dir", "")
	v.SetDefault("input.http_timeout_secs", 60)
	v.SetDefault("input.http_max_retries", 3)
	v.SetDefault("input.http_rate_per_host", 5.0)
	v.SetDefault("input.user_agent", "retail-eda/1.0")
	v.SetDefault("input.ftp_timeout_secs", 30)
	v.SetDefault("clean.unknown_item", "Unknown Item")
	v.SetDefault("clean.discount_default", "False")
	v.SetDefault("clean.unknown_label", "Unknown")
	v.SetDefault("output.format", "csv")
	v.SetDefault("output.dir", "")
	v.SetDefault("output.report_format", "text")
	v.SetDefault("batch.max_concurrent_files", 4)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command depends on. mode is the command
// name: "clean", "inspect" or "report".
func (c *Config) Validate(mode string) error {
	var errs []string

	if utf8.RuneCountInString(c.Input.Delimiter) > 1 && c.Input.DelimiterRune() != '\t' {
		errs = append(errs, "input.delimiter must be a single character")
	}
	if utf8.RuneCountInString(c.Input.Comment) > 1 {
		errs = append(errs, "input.comment must be a single character")
	} else if r := c.Input.CommentRune(); r != 0 && r == c.Input.DelimiterRune() {
		errs = append(errs, "input.comment must differ from input.delimiter")
	}
	if c.Input.HTTPMaxRetries < 1 {
		errs = append(errs, "input.http_max_retries must be >= 1")
	}
	if c.Input.HTTPRatePerHost <= 0 {
		errs = append(errs, "input.http_rate_per_host must be > 0")
	}
	if c.Input.SheetIndex < 0 {
		errs = append(errs, "input.sheet_index must be >= 0")
	}

	switch mode {
	case "clean":
		switch c.Output.Format {
		case "csv", "json", "xlsx":
		default:
			errs = append(errs, "output.format must be one of csv, json, xlsx")
		}
		if c.Batch.MaxConcurrentFiles < 1 || c.Batch.MaxConcurrentFiles > 64 {
			errs = append(errs, "batch.max_concurrent_files must be between 1 and 64")
		}
	case "report":
		switch c.Output.ReportFormat {
		case "text", "json", "yaml":
		default:
			errs = append(errs, "output.report_format must be one of text, json, yaml")
		}
	case "inspect":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
