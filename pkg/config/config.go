package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalidConfig оборачивает любую ошибку валидации.
var ErrInvalidConfig = errors.New("config: invalid")

// Config — настройки шины, soak-прогона, метрик и логов. Ключи совпадают
// с configs/config.yaml и переменными окружения EBUS_*.
type Config struct {
	Bus struct {
		Name                string `mapstructure:"name"`
		SubscriberQueueSize int    `mapstructure:"subscriber_queue_size"`
		SkipDeadSubscribers bool   `mapstructure:"skip_dead_subscribers"`
	} `mapstructure:"bus"`

	Soak struct {
		Publishers      int           `mapstructure:"publishers"`
		Subscribers     int           `mapstructure:"subscribers"`
		Duration        time.Duration `mapstructure:"duration"`
		PublishInterval time.Duration `mapstructure:"publish_interval"`
		DrainInterval   time.Duration `mapstructure:"drain_interval"`
		GCInterval      time.Duration `mapstructure:"gc_interval"`
		Churn           bool          `mapstructure:"churn"`
		Seed            uint64        `mapstructure:"seed"`
	} `mapstructure:"soak"`

	Metrics struct {
		Enabled    bool   `mapstructure:"enabled"`
		ListenAddr string `mapstructure:"listen_addr"`
	} `mapstructure:"metrics"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// SetDefaults регистрирует в v значения по умолчанию для всех ключей.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("bus.name", "ebus")
	v.SetDefault("bus.subscriber_queue_size", 1024)
	v.SetDefault("bus.skip_dead_subscribers", false)

	v.SetDefault("soak.publishers", 4)
	v.SetDefault("soak.subscribers", 4)
	v.SetDefault("soak.duration", 10*time.Second)
	v.SetDefault("soak.publish_interval", 10*time.Millisecond)
	v.SetDefault("soak.drain_interval", 50*time.Millisecond)
	v.SetDefault("soak.gc_interval", time.Second)
	v.SetDefault("soak.churn", false)
	v.SetDefault("soak.seed", 0)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen_addr", "127.0.0.1:9464")

	v.SetDefault("log.level", "info")
}

// New возвращает viper с умолчаниями и переопределениями из окружения
// (EBUS_BUS_NAME, EBUS_SOAK_PUBLISHERS и т.д.).
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("ebus")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// InitConfig ищет configs/config.{yaml,json,...}. Отсутствие файла не
// ошибка: остаются умолчания и окружение.
func InitConfig(v *viper.Viper) error {
	v.AddConfigPath("configs")
	v.SetConfigName("config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load читает YAML-файл по пути path. При пустом path берутся только
// умолчания и окружение.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return Decode(v)
}

// Decode разбирает и валидирует конфигурацию из v.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет диапазоны значений и возвращает все нарушения разом,
// обёрнутые в ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	if c.Bus.SubscriberQueueSize < 0 {
		errs = append(errs, fmt.Errorf("bus.subscriber_queue_size must be >= 0, got %d", c.Bus.SubscriberQueueSize))
	}
	if c.Soak.Publishers < 0 {
		errs = append(errs, fmt.Errorf("soak.publishers must be >= 0, got %d", c.Soak.Publishers))
	}
	if c.Soak.Subscribers < 0 {
		errs = append(errs, fmt.Errorf("soak.subscribers must be >= 0, got %d", c.Soak.Subscribers))
	}
	if c.Soak.Duration <= 0 {
		errs = append(errs, fmt.Errorf("soak.duration must be positive, got %s", c.Soak.Duration))
	}
	if c.Soak.PublishInterval <= 0 {
		errs = append(errs, fmt.Errorf("soak.publish_interval must be positive, got %s", c.Soak.PublishInterval))
	}
	if c.Soak.DrainInterval <= 0 {
		errs = append(errs, fmt.Errorf("soak.drain_interval must be positive, got %s", c.Soak.DrainInterval))
	}
	if c.Soak.GCInterval < 0 {
		errs = append(errs, fmt.Errorf("soak.gc_interval must be >= 0, got %s", c.Soak.GCInterval))
	}
	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		errs = append(errs, errors.New("metrics.listen_addr is required when metrics are enabled"))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
