package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
)

// Config конфигурация сервиса (config.toml)
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Logs     LogsConfig     `toml:"logs"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Engine   EngineConfig   `toml:"engine"`
	Redis    RedisConfig    `toml:"redis"`
}

// ServerConfig HTTP сервер; таймауты в секундах
type ServerConfig struct {
	HTTPPort        int     `toml:"http_port"`
	ReadTimeout     int     `toml:"read_timeout"`
	WriteTimeout    int     `toml:"write_timeout"`
	IdleTimeout     int     `toml:"idle_timeout"`
	ShutdownTimeout int     `toml:"shutdown_timeout"`
	RateLimitPerSec float64 `toml:"rate_limit_per_sec"` // 0 - без ограничения
	RateLimitBurst  int     `toml:"rate_limit_burst"`
}

// DatabaseConfig подключение к PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
	TxTimeoutMs     int    `toml:"tx_timeout_ms"`
	LockTimeoutMs   int    `toml:"lock_timeout_ms"`
	MaxRetries      int    `toml:"max_retries"`
	RetryBackoffMs  int    `toml:"retry_backoff_ms"`
}

// LogsConfig логирование
type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// MetricsConfig prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// EngineConfig параметры движка резервирования
type EngineConfig struct {
	HoldTTLSeconds       int            `toml:"hold_ttl_seconds"`
	MaxRangeDays         int            `toml:"max_range_days"`
	SweepEnabled         bool           `toml:"sweep_enabled"`
	SweepIntervalSeconds int            `toml:"sweep_interval_seconds"`
	SweepBatchSize       int            `toml:"sweep_batch_size"`
	SummaryCacheSeconds  int            `toml:"summary_cache_seconds"` // 0 - без кэша
	DefaultCapacity      map[string]int `toml:"default_capacity"`
}

// RedisConfig аренда sweep между экземплярами; необязательна
type RedisConfig struct {
	Enabled              bool   `toml:"enabled"`
	Addr                 string `toml:"addr"`
	Password             string `toml:"password"`
	DB                   int    `toml:"db"`
	SweepLeaseKey        string `toml:"sweep_lease_key"`
	SweepLeaseTTLSeconds int    `toml:"sweep_lease_ttl_seconds"`
}

// Load читает конфигурацию из файла и подставляет значения по умолчанию.
// Пароль БД можно переопределить переменной окружения DB_PASSWORD.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}

	if password, ok := os.LookupEnv("DB_PASSWORD"); ok {
		cfg.Database.Password = password
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default конфигурация по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     10,
			WriteTimeout:    10,
			IdleTimeout:     60,
			ShutdownTimeout: 15,
			RateLimitBurst:  50,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
			TxTimeoutMs:     5000,
			LockTimeoutMs:   2000,
			MaxRetries:      3,
			RetryBackoffMs:  20,
		},
		Logs: LogsConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Path:        "/metrics",
			ServiceName: "availability_service",
		},
		Engine: EngineConfig{
			HoldTTLSeconds:       domain.DefaultHoldTTLSeconds,
			MaxRangeDays:         domain.DefaultMaxRangeDays,
			SweepEnabled:         true,
			SweepIntervalSeconds: domain.DefaultSweepIntervalSecond,
			SweepBatchSize:       domain.DefaultSweepBatchSize,
			DefaultCapacity:      map[string]int{},
		},
		Redis: RedisConfig{
			Addr:                 "localhost:6379",
			SweepLeaseKey:        "availability:sweep:lease",
			SweepLeaseTTLSeconds: 10,
		},
	}
}

// Validate проверяет значения, без которых сервис не запустится корректно
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid server.http_port: %d", c.Server.HTTPPort)
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database.dbname is required")
	}
	if c.Engine.HoldTTLSeconds <= 0 {
		return fmt.Errorf("invalid engine.hold_ttl_seconds: %d", c.Engine.HoldTTLSeconds)
	}
	if c.Engine.MaxRangeDays <= 0 {
		return fmt.Errorf("invalid engine.max_range_days: %d", c.Engine.MaxRangeDays)
	}
	for name, capacity := range c.Engine.DefaultCapacity {
		if _, err := domain.ParseResourceType(name); err != nil {
			return fmt.Errorf("engine.default_capacity: %w", err)
		}
		if capacity < 0 {
			return fmt.Errorf("engine.default_capacity.%s must not be negative", name)
		}
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	return nil
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	return u.String()
}

// DefaultCapacities емкость новых слотов по типам ресурсов: значения по умолчанию, перекрытые конфигом
func (e EngineConfig) DefaultCapacities() map[domain.ResourceType]int {
	capacities := make(map[domain.ResourceType]int, len(domain.DefaultCapacities))
	for t, c := range domain.DefaultCapacities {
		capacities[t] = c
	}
	for name, c := range e.DefaultCapacity {
		capacities[domain.ResourceType(name)] = c
	}
	return capacities
}

func (e EngineConfig) HoldTTL() time.Duration {
	return time.Duration(e.HoldTTLSeconds) * time.Second
}

func (e EngineConfig) SweepInterval() time.Duration {
	return time.Duration(e.SweepIntervalSeconds) * time.Second
}

func (d DatabaseConfig) TxTimeout() time.Duration {
	return time.Duration(d.TxTimeoutMs) * time.Millisecond
}

func (d DatabaseConfig) LockTimeout() time.Duration {
	return time.Duration(d.LockTimeoutMs) * time.Millisecond
}

func (d DatabaseConfig) RetryBackoff() time.Duration {
	return time.Duration(d.RetryBackoffMs) * time.Millisecond
}
