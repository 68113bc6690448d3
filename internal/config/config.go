package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig selects the document store backend: postgres, mongo or memory.
type DatabaseConfig struct {
	Driver string
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint    string
	AccessKey   string
	SecretKey   string
	BucketMedia string
	PublicURL   string
	UseSSL      bool
	Region      string
	MaxBytes    int64
}

type SecurityConfig struct {
	JWTAccessSecret     string
	JWTRefreshSecret    string
	JWTActivationSecret string
	JWTAccessTTL        time.Duration
	JWTRefreshTTL       time.Duration
	ActivationTTL       time.Duration
	CookieSecure        bool
	CookieDomain        string
}

type MailConfig struct {
	Driver         string
	From           string
	FromName       string
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPassword   string
	SendgridAPIKey string
}

type NotificationConfig struct {
	Retention     time.Duration
	SweepSchedule string
}

type QueueConfig struct {
	Stream        string
	Group         string
	Consumer      string
	ClaimInterval time.Duration
	// MetricsAddr is where the worker publishes its prometheus registry.
	MetricsAddr string
}

type CacheConfig struct {
	CourseTTL time.Duration
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Database         DatabaseConfig
	Postgres         PostgresConfig
	Mongo            MongoConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	Mail             MailConfig
	Notifications    NotificationConfig
	Queue            QueueConfig
	Cache            CacheConfig
	AllowCORSOrigins []string
}

var ErrMissingSecret = errors.New("jwt secrets must be configured")

var envKeyReplacer = strings.NewReplacer(".", "_")

func Load() (*AppConfig, error) {
	// A missing .env file is the normal case outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	return load(v)
}

func load(v *viper.Viper) (*AppConfig, error) {
	v.SetEnvPrefix("LEARNHUB")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations that would let tokens be minted with empty keys.
func (c *AppConfig) Validate() error {
	s := c.Security
	if s.JWTAccessSecret == "" || s.JWTRefreshSecret == "" || s.JWTActivationSecret == "" {
		return ErrMissingSecret
	}
	switch c.Database.Driver {
	case "postgres", "mongo", "memory":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Mail.Driver {
	case "smtp", "sendgrid", "log":
	default:
		return fmt.Errorf("unsupported mail driver %q", c.Mail.Driver)
	}
	return nil
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8000)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("database.driver", "postgres")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 5)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("mongo.uri", "mongodb://127.0.0.1:27017")
	v.SetDefault("mongo.database", "learnhub")
	v.SetDefault("mongo.timeout", "10s")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.bucketmedia", "learnhub-media")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.maxbytes", 10<<20)

	// Keys without a real default are registered empty so AutomaticEnv can fill them on Unmarshal.
	for _, key := range []string{
		"postgres.dsn", "redis.password",
		"storage.endpoint", "storage.accesskey", "storage.secretkey", "storage.publicurl",
		"security.jwtaccesssecret", "security.jwtrefreshsecret", "security.jwtactivationsecret",
		"security.cookiedomain", "allowcorsorigins",
		"mail.from", "mail.smtphost", "mail.smtpuser", "mail.smtppassword", "mail.sendgridapikey",
	} {
		v.SetDefault(key, "")
	}

	v.SetDefault("security.jwtaccessttl", "5m")
	v.SetDefault("security.jwtrefreshttl", "168h") // 7 days
	v.SetDefault("security.activationttl", "5m")
	v.SetDefault("security.cookiesecure", false)

	v.SetDefault("mail.driver", "log")
	v.SetDefault("mail.fromname", "LearnHub")
	v.SetDefault("mail.smtpport", 587)

	v.SetDefault("notifications.retention", "720h") // 30 days
	v.SetDefault("notifications.sweepschedule", "0 0 0 * * *")

	v.SetDefault("queue.stream", "learnhub:tasks")
	v.SetDefault("queue.group", "learnhub-workers")
	v.SetDefault("queue.consumer", "worker-1")
	v.SetDefault("queue.claiminterval", "1m")
	v.SetDefault("queue.metricsaddr", ":9101")

	v.SetDefault("cache.coursettl", "1h")
}
