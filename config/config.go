package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFileEnvName = "KIKSNIKS_CONFIG_FILE"

const (
	SessionDriverMemory   = "memory"
	SessionDriverPostgres = "postgres"
	SessionDriverBolt     = "bolt"
)

type logConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// SlogLevel parses Level. Unknown names were rejected by Load.
func (l logConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	_ = lvl.UnmarshalText([]byte(l.Level))
	return lvl
}

type httpConfig struct {
	Addr              string        `mapstructure:"addr"`
	HandlerTimeout    time.Duration `mapstructure:"handler_timeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	CloseTimeout      time.Duration `mapstructure:"close_timeout"`
}

type catalogConfig struct {
	PageSize int `mapstructure:"page_size"`
	Featured int `mapstructure:"featured"`
}

type sheetsConfig struct {
	ProductsURL   string        `mapstructure:"products_url"`
	SubmitURL     string        `mapstructure:"submit_url"`
	Format        string        `mapstructure:"format"`
	Strict        bool          `mapstructure:"strict"`
	UseMockData   bool          `mapstructure:"use_mock_data"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
	Backoff       time.Duration `mapstructure:"backoff"`
	SubmitTimeout time.Duration `mapstructure:"submit_timeout"`
	DemoSeed      uint64        `mapstructure:"demo_seed"`
}

type sessionConfig struct {
	Driver    string        `mapstructure:"driver"`
	Secret    string        `mapstructure:"secret"`
	Secure    bool          `mapstructure:"secure"`
	MaxAge    time.Duration `mapstructure:"max_age"`
	FormRate  float64       `mapstructure:"form_rate"`
	FormBurst int           `mapstructure:"form_burst"`
}

type storageConfig struct {
	DSN      string `mapstructure:"dsn"`
	BoltPath string `mapstructure:"bolt_path"`
	PagesLRU int    `mapstructure:"pages_lru"`
}

type topics struct {
	StorefrontEvents string `mapstructure:"storefront_events"`
}

type tlsConfig struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

type broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	Topics             topics    `mapstructure:"topics"`
	TLS                tlsConfig `mapstructure:"tls"`
}

type mailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	FromName string `mapstructure:"from_name"`
}

type refreshConfig struct {
	Schedule      string        `mapstructure:"schedule"`
	PurgeSchedule string        `mapstructure:"purge_schedule"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
}

type Config struct {
	Log     logConfig     `mapstructure:"log"`
	HTTP    httpConfig    `mapstructure:"http"`
	Catalog catalogConfig `mapstructure:"catalog"`
	Sheets  sheetsConfig  `mapstructure:"sheets"`
	Session sessionConfig `mapstructure:"session"`
	Storage storageConfig `mapstructure:"storage"`
	Broker  broker        `mapstructure:"broker"`
	Mail    mailConfig    `mapstructure:"mail"`
	Refresh refreshConfig `mapstructure:"refresh"`
}

// BrokerEnabled reports whether storefront events go to Kafka.
func (c Config) BrokerEnabled() bool {
	return len(c.Broker.SeedBrokers) != 0
}

// MailEnabled reports whether inquiry confirmations are e-mailed.
func (c Config) MailEnabled() bool {
	return c.Mail.Host != ""
}

func Load() Config {
	cfg, err := LoadFile(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

// LoadFile reads the YAML file at path over the defaults.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.handler_timeout", 20*time.Second)
	v.SetDefault("http.read_header_timeout", 5*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.close_timeout", 5*time.Second)

	v.SetDefault("catalog.page_size", 6)
	v.SetDefault("catalog.featured", 8)

	v.SetDefault("sheets.format", "json")
	v.SetDefault("sheets.fetch_timeout", 15*time.Second)
	v.SetDefault("sheets.max_attempts", 3)
	v.SetDefault("sheets.backoff", time.Second)
	v.SetDefault("sheets.submit_timeout", 15*time.Second)

	v.SetDefault("session.driver", SessionDriverMemory)
	v.SetDefault("session.max_age", 30*24*time.Hour)
	v.SetDefault("session.form_rate", 1)
	v.SetDefault("session.form_burst", 5)

	v.SetDefault("storage.bolt_path", "kiksniks.db")
	v.SetDefault("storage.pages_lru", 32)

	v.SetDefault("broker.topics.storefront_events", "storefront-events")

	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.from_name", "KiksNiks")

	v.SetDefault("refresh.schedule", "@every 10m")
	v.SetDefault("refresh.purge_schedule", "@daily")
	v.SetDefault("refresh.session_ttl", 30*24*time.Hour)
}

func (c Config) validate() error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return err
	}
	switch c.Session.Driver {
	case SessionDriverMemory, SessionDriverBolt:
	case SessionDriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("session driver %q requires storage.dsn", c.Session.Driver)
		}
	default:
		return fmt.Errorf("unknown session driver %q", c.Session.Driver)
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("session.secret is required")
	}
	if c.HTTP.HandlerTimeout <= c.Sheets.SubmitTimeout {
		return fmt.Errorf("http.handler_timeout must exceed sheets.submit_timeout")
	}
	return nil
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "/config.yaml", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

// Print dumps the loaded config. Secrets are masked.
func (c Config) Print() {
	template := `
	Log:
	Level=%q
	File=%q

	HTTP:
	Addr=%q
	HandlerTimeout=%s

	Catalog:
	PageSize=%d
	Featured=%d

	Sheets:
	ProductsURL=%q
	SubmitURL=%q
	Format=%q
	Strict=%t
	UseMockData=%t

	Session:
	Driver=%q
	Secret=%q
	Secure=%t

	Storage:
	DSN=%q
	BoltPath=%q

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	Topics:
		StorefrontEvents=%q

	Mail:
	Host=%q
	From=%q

	Refresh:
	Schedule=%q
	PurgeSchedule=%q
	SessionTTL=%s

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(template, "\n"),
		c.Log.Level,
		c.Log.File,
		c.HTTP.Addr,
		c.HTTP.HandlerTimeout,
		c.Catalog.PageSize,
		c.Catalog.Featured,
		c.Sheets.ProductsURL,
		c.Sheets.SubmitURL,
		c.Sheets.Format,
		c.Sheets.Strict,
		c.Sheets.UseMockData,
		c.Session.Driver,
		mask(c.Session.Secret),
		c.Session.Secure,
		mask(c.Storage.DSN),
		c.Storage.BoltPath,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.Topics.StorefrontEvents,
		c.Mail.Host,
		c.Mail.From,
		c.Refresh.Schedule,
		c.Refresh.PurgeSchedule,
		c.Refresh.SessionTTL,
	)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
