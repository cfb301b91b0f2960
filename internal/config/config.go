package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

var (
	ErrReadConfig    = errors.New("config: read config file")
	ErrInvalidConfig = errors.New("config: invalid config")
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config конфигурация сервиса
type Config struct {
	Server            ServerConfig            `toml:"server"`
	Database          DatabaseConfig          `toml:"database"`
	Logs              LogsConfig              `toml:"logs"`
	Metrics           MetricsConfig           `toml:"metrics"`
	ProviderDirectory ProviderDirectoryConfig `toml:"provider_directory"`
	Redis             RedisConfig             `toml:"redis"`
	Kafka             KafkaConfig             `toml:"kafka"`
	Booking           BookingConfig           `toml:"booking"`
	Quota             QuotaConfig             `toml:"quota"`
	Plans             map[string]PlanConfig   `toml:"plans"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string `toml:"driver"`
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
	AutoMigrate     bool   `toml:"auto_migrate"`
	TxMaxRetries    int    `toml:"tx_max_retries"`
}

// DSN строка подключения lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// URL строка подключения для golang-migrate
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

type ProviderDirectoryConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"` // seconds
	// Static providers for local runs without a directory service
	Static []StaticProviderConfig `toml:"static"`
}

type StaticProviderConfig struct {
	ID         int64   `toml:"id"`
	UserID     int64   `toml:"user_id"`
	Name       string  `toml:"name"`
	SessionFee float64 `toml:"session_fee"`
	OpenTime   string  `toml:"open_time"`
	CloseTime  string  `toml:"close_time"`
}

type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	CacheTTL int    `toml:"cache_ttl"` // seconds
}

type KafkaConfig struct {
	Enabled bool     `toml:"enabled"`
	Brokers []string `toml:"brokers"`
	Topic   string   `toml:"topic"`
}

type BookingConfig struct {
	DefaultOpenTime         string `toml:"default_open_time"`
	DefaultCloseTime        string `toml:"default_close_time"`
	DefaultSlotStepMinutes  int    `toml:"default_slot_step_minutes"`
	DefaultMinNoticeMinutes int    `toml:"default_min_notice_minutes"`
	Timezone                string `toml:"timezone"`
}

// Location canonical location of provider days
func (b BookingConfig) Location() (*time.Location, error) {
	if b.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(b.Timezone)
}

// DefaultSchedule grid used when neither an override nor directory hours exist
func (b BookingConfig) DefaultSchedule(providerID int64) *domain.ProviderSchedule {
	s := domain.DefaultSchedule(providerID)
	if b.DefaultOpenTime != "" {
		s.OpenTime = types.TimeString(b.DefaultOpenTime)
	}
	if b.DefaultCloseTime != "" {
		s.CloseTime = types.TimeString(b.DefaultCloseTime)
	}
	if b.DefaultSlotStepMinutes > 0 {
		s.SlotStepMinutes = b.DefaultSlotStepMinutes
	}
	s.MinNoticeMinutes = b.DefaultMinNoticeMinutes
	return s
}

type QuotaConfig struct {
	Period          string `toml:"period"`
	ReleaseOnCancel bool   `toml:"release_on_cancel"`
}

type PlanConfig struct {
	MaxBookingsPerPeriod int `toml:"max_bookings_per_period"`
	MaxAdvanceDays       int `toml:"max_advance_days"`
}

// Catalog converts [plans.*] into a domain catalog
func (c *Config) Catalog() domain.PlanCatalog {
	catalog := make(domain.PlanCatalog, len(c.Plans))
	for name, p := range c.Plans {
		tier := domain.Tier(strings.ToLower(name))
		catalog[tier] = domain.SubscriptionPlan{
			Tier:                 tier,
			MaxBookingsPerPeriod: p.MaxBookingsPerPeriod,
			MaxAdvanceDays:       p.MaxAdvanceDays,
		}
	}
	return catalog
}

// Load читает TOML, затем .env и переменные окружения
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadConfig, path, err)
	}

	// .env необязателен
	_ = godotenv.Load()
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used for keys absent from the file
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     10,
			WriteTimeout:    10,
			IdleTimeout:     60,
			ShutdownTimeout: 10,
		},
		Database: DatabaseConfig{
			Driver:          DriverPostgres,
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			DBName:          "consultations",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
			TxMaxRetries:    3,
		},
		Logs: LogsConfig{Level: "info"},
		Metrics: MetricsConfig{
			Enabled:     true,
			Path:        "/metrics",
			ServiceName: "consultation_service",
		},
		ProviderDirectory: ProviderDirectoryConfig{Timeout: 5},
		Redis:             RedisConfig{Addr: "localhost:6379", CacheTTL: 300},
		Kafka:             KafkaConfig{Topic: "consultation.bookings"},
		Booking: BookingConfig{
			DefaultOpenTime:        string(domain.DefaultOpenTime),
			DefaultCloseTime:       string(domain.DefaultCloseTime),
			DefaultSlotStepMinutes: domain.DefaultSlotStepMinutes,
			Timezone:               "UTC",
		},
		Quota: QuotaConfig{
			Period:          string(domain.QuotaPeriodMonth),
			ReleaseOnCancel: true,
		},
		Plans: map[string]PlanConfig{
			string(domain.TierFree):     {MaxBookingsPerPeriod: 2, MaxAdvanceDays: 7},
			string(domain.TierBasic):    {MaxBookingsPerPeriod: 5, MaxAdvanceDays: 14},
			string(domain.TierPremium):  {MaxBookingsPerPeriod: 10, MaxAdvanceDays: 21},
			string(domain.TierUltimate): {MaxBookingsPerPeriod: domain.Unlimited, MaxAdvanceDays: 21},
		},
	}
}

func applyEnv(cfg *Config) {
	setString(&cfg.Database.Driver, "DB_DRIVER")
	setString(&cfg.Database.Host, "DB_HOST")
	setInt(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.DBName, "DB_NAME")
	setString(&cfg.Database.SSLMode, "DB_SSLMODE")
	setInt(&cfg.Server.HTTPPort, "HTTP_PORT")
	setString(&cfg.Logs.Level, "LOG_LEVEL")
	setString(&cfg.ProviderDirectory.URL, "PROVIDER_DIRECTORY_URL")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Booking.Timezone, "BOOKING_TIMEZONE")

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
		cfg.Kafka.Enabled = true
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("%w: server.http_port %d", ErrInvalidConfig, c.Server.HTTPPort)
	}
	if c.Database.Driver != DriverPostgres && c.Database.Driver != DriverMemory {
		return fmt.Errorf("%w: database.driver must be %q or %q", ErrInvalidConfig, DriverPostgres, DriverMemory)
	}
	if c.Database.TxMaxRetries < 0 {
		return fmt.Errorf("%w: database.tx_max_retries must be >= 0", ErrInvalidConfig)
	}
	if !domain.QuotaPeriod(c.Quota.Period).IsValid() {
		return fmt.Errorf("%w: quota.period %q", ErrInvalidConfig, c.Quota.Period)
	}
	if _, err := c.Booking.Location(); err != nil {
		return fmt.Errorf("%w: booking.timezone: %v", ErrInvalidConfig, err)
	}

	for _, t := range []string{c.Booking.DefaultOpenTime, c.Booking.DefaultCloseTime} {
		if err := types.TimeString(t).Validate(); err != nil {
			return fmt.Errorf("%w: booking default hours %q: %v", ErrInvalidConfig, t, err)
		}
	}
	if !types.TimeString(c.Booking.DefaultOpenTime).IsBefore(types.TimeString(c.Booking.DefaultCloseTime)) {
		return fmt.Errorf("%w: booking.default_open_time must be before default_close_time", ErrInvalidConfig)
	}
	if c.Booking.DefaultSlotStepMinutes < domain.MinSlotStepMinutes || c.Booking.DefaultSlotStepMinutes > domain.MaxSlotStepMinutes {
		return fmt.Errorf("%w: booking.default_slot_step_minutes %d", ErrInvalidConfig, c.Booking.DefaultSlotStepMinutes)
	}

	if _, ok := c.Plans[string(domain.TierFree)]; !ok {
		return fmt.Errorf("%w: plans.free is required", ErrInvalidConfig)
	}
	for name, p := range c.Plans {
		if !domain.Tier(strings.ToLower(name)).IsValid() {
			return fmt.Errorf("%w: unknown plan %q", ErrInvalidConfig, name)
		}
		if p.MaxBookingsPerPeriod < domain.Unlimited {
			return fmt.Errorf("%w: plans.%s.max_bookings_per_period %d", ErrInvalidConfig, name, p.MaxBookingsPerPeriod)
		}
		if p.MaxAdvanceDays < 0 {
			return fmt.Errorf("%w: plans.%s.max_advance_days %d", ErrInvalidConfig, name, p.MaxAdvanceDays)
		}
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("%w: redis.addr is required when redis is enabled", ErrInvalidConfig)
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return fmt.Errorf("%w: kafka.brokers and kafka.topic are required when kafka is enabled", ErrInvalidConfig)
	}
	return nil
}
