package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.)
// - default: Values common across all environments (TTL, timeouts, etc.)
// -----------------------------------------------------------------------------

type Config struct {
	Server      ServerConfig
	DB          DBConfig
	CORS        CORSConfig
	Log         LogConfig
	Kafka       KafkaConfig
	Reservation ReservationConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	TimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
}

// KafkaConfig configures the notification sink. Empty Brokers disables Kafka
// and falls back to log-only notifications.
type KafkaConfig struct {
	Brokers              []string      `envconfig:"KAFKA_BROKERS" default:""`
	StockTopic           string        `envconfig:"KAFKA_STOCK_TOPIC" default:"drop.stock-changed"`
	PurchaseTopic        string        `envconfig:"KAFKA_PURCHASE_TOPIC" default:"drop.purchase-completed"`
	PublishTimeout       time.Duration `envconfig:"KAFKA_PUBLISH_TIMEOUT" default:"5s"`
	AllowAutoTopicCreate bool          `envconfig:"KAFKA_AUTO_TOPIC_CREATE" default:"true"`
}

type ReservationConfig struct {
	// TTL is the hold window: a claimed unit auto-releases this long after claim.
	TTL time.Duration `envconfig:"RESERVATION_TTL" default:"60s"`
	// SweepInterval bounds how late a release can be when the in-process timer
	// was lost (e.g. across a restart).
	SweepInterval time.Duration `envconfig:"RESERVATION_SWEEP_INTERVAL" default:"5s"`
	// PricePolicy decides which price a purchase records:
	//   finalize - the drop's price at finalization time
	//   claim    - the price frozen on the reservation at claim time
	PricePolicy string `envconfig:"RESERVATION_PRICE_POLICY" default:"finalize"`
}

const (
	PricePolicyFinalize = "finalize"
	PricePolicyClaim    = "claim"
)

func (c ReservationConfig) ValidatePricePolicy() error {
	switch c.PricePolicy {
	case PricePolicyFinalize, PricePolicyClaim:
		return nil
	default:
		return fmt.Errorf("invalid RESERVATION_PRICE_POLICY: %q", c.PricePolicy)
	}
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.Reservation.ValidatePricePolicy(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889",
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433",
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
		},
		Log: LogConfig{
			Level:      "error",
			TimeFormat: "2006-01-02 15:04:05.000",
		},
		Reservation: ReservationConfig{
			TTL:           60 * time.Second,
			SweepInterval: 5 * time.Second,
			PricePolicy:   PricePolicyFinalize,
		},
	}
}
