package libemit

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes the environment variables read by LoadConfig. Underscores after the prefix
// map to dots: LIBEMIT_LISTENERS_MAX sets listeners.max.
const EnvPrefix = "LIBEMIT_"

type (
	Config struct {
		Listeners ListenersConfig `koanf:"listeners"`
		Log       LogConfig       `koanf:"log"`
	}

	ListenersConfig struct {
		// Max is the process-wide per-event capacity. 0 disables leak warnings.
		Max int `koanf:"max" validate:"gte=0"`
	}

	LogConfig struct {
		Level string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	}
)

func DefaultConfig() Config {
	return Config{
		Listeners: ListenersConfig{Max: DefaultMaxListeners},
		Log:       LogConfig{Level: "warn"},
	}
}

func defaultConfigMap() map[string]any {
	def := DefaultConfig()
	return map[string]any{
		"listeners.max": def.Listeners.Max,
		"log.level":     def.Log.Level,
	}
}

// BindFlags registers the flags LoadConfig understands on fs.
func BindFlags(fs *pflag.FlagSet) {
	def := DefaultConfig()
	fs.Int("listeners.max", def.Listeners.Max, "Per-event listener count above which a leak warning is logged (0 disables)")
	fs.String("log.level", def.Log.Level, "Log level (trace, debug, info, warn, error)")
}

// LoadConfig merges, lowest priority first: built-in defaults, the YAML file at path (skipped
// when path is empty or the file does not exist), LIBEMIT_* environment variables and flags.
// flags may be nil.
func LoadConfig(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultConfigMap(), "."), nil); err != nil {
		return Config{}, errors.Wrap(err, "cannot load config defaults")
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, errors.Wrapf(err, "cannot load config file %s", path)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, errors.Wrapf(err, "cannot stat config file %s", path)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(key string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "_", ".")
	}), nil); err != nil {
		return Config{}, errors.Wrap(err, "cannot load config from environment")
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, errors.Wrap(err, "cannot load config from flags")
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, errors.Wrap(err, "cannot decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrapf(ErrOutOfRange, "invalid config: %s", err)
	}
	return nil
}

// Apply installs the listener capacity on d.
func (c Config) Apply(d *Defaults) error {
	return d.SetMaxListeners(c.Listeners.Max)
}

// NewLogger builds a zerolog backed Logger writing to w at the configured level.
func (c Config) NewLogger(w io.Writer) Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level))
	if err != nil {
		level = zerolog.WarnLevel
	}
	return NewZerologLogger(
		zerolog.New(w).Level(level).With().Timestamp().Logger(),
	)
}

// NewConsoleLogger is NewLogger with zerolog's human readable console format.
func (c Config) NewConsoleLogger(w io.Writer) Logger {
	return c.NewLogger(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
}
