package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/muhammadchandra19/market-simulator/pkg/postgresql"
	"github.com/muhammadchandra19/market-simulator/pkg/redis"
)

// MustLoad loads the configuration from environment variables and an optional .env file.
func MustLoad[T any](cfg T) {
	env.Must(cfg, Load(cfg))
}

// Load loads the configuration from environment variables and an optional .env file.
func Load[T any](cfg T) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return env.Parse(cfg)
}

// Config holds the configuration shared by the simulator commands.
type Config struct {
	App        AppConfig         `envPrefix:"APP_"`
	Market     MarketConfig      `envPrefix:"MARKET_"`
	Settlement SettlementConfig  `envPrefix:"SETTLEMENT_"`
	Kafka      KafkaConfig       `envPrefix:"KAFKA_"`
	Ledger     LedgerConfig      `envPrefix:"LEDGER_"`
	Redis      redis.Config      `envPrefix:"REDIS_"`
	Postgres   postgresql.Config `envPrefix:"POSTGRES_"`
}

// AppConfig holds process level settings.
type AppConfig struct {
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	HealthPort      int           `env:"HEALTH_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// MarketConfig tunes the brokers and their clients.
type MarketConfig struct {
	Brokers           int           `env:"BROKERS" envDefault:"5"`
	ClientsPerBroker  int           `env:"CLIENTS_PER_BROKER" envDefault:"3"`
	MinCapital        float64       `env:"MIN_CAPITAL" envDefault:"10000"`
	MaxCapital        float64       `env:"MAX_CAPITAL" envDefault:"20000"`
	OrderInterval     time.Duration `env:"ORDER_INTERVAL" envDefault:"1s"`
	MaxOrdersPerCycle int           `env:"MAX_ORDERS_PER_CYCLE" envDefault:"3"`
	LimitProbability  float64       `env:"LIMIT_PROBABILITY" envDefault:"0.7"`
	StopBand          float64       `env:"STOP_BAND" envDefault:"0.10"`
	SnapshotInterval  time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"10s"`
	// IDScheme is either "sequential" or "ulid".
	IDScheme string `env:"ID_SCHEME" envDefault:"sequential"`
	IDStart  uint64 `env:"ID_START" envDefault:"1"`
	Seed     uint64 `env:"SEED" envDefault:"0"`
}

// SettlementConfig tunes the settlement stage.
type SettlementConfig struct {
	CycleInterval time.Duration `env:"CYCLE_INTERVAL" envDefault:"1s"`
	CompleteRatio float64       `env:"COMPLETE_RATIO" envDefault:"0.4"`
	RejectRatio   float64       `env:"REJECT_RATIO" envDefault:"0.2"`
	Slippage      float64       `env:"SLIPPAGE" envDefault:"0.02"`
	// MaxDeviation enables the price band check when positive.
	MaxDeviation float64 `env:"MAX_DEVIATION" envDefault:"0"`
	Seed         uint64  `env:"SEED" envDefault:"0"`
	// DecidedWindow is how many decided order ids are remembered for duplicate detection.
	DecidedWindow int `env:"DECIDED_WINDOW" envDefault:"65536"`
}

// KafkaConfig holds the brokers and topics of every stream.
type KafkaConfig struct {
	Brokers        []string `env:"BROKERS" envDefault:"localhost:9092"`
	PriceTopic     string   `env:"PRICE_TOPIC" envDefault:"stock"`
	OrderTopic     string   `env:"ORDER_TOPIC" envDefault:"orders"`
	CompletedTopic string   `env:"COMPLETED_TOPIC" envDefault:"completed_order"`
	RejectedTopic  string   `env:"REJECTED_TOPIC" envDefault:"rejected_order"`
	GroupID        string   `env:"GROUP_ID" envDefault:"market-simulator"`
}

// LedgerConfig selects the ledger and dedupe backends.
type LedgerConfig struct {
	// Backend is one of "memory", "redis" or "postgres".
	Backend string `env:"BACKEND" envDefault:"memory"`
	// Dedupe is either "memory" or "redis".
	Dedupe    string        `env:"DEDUPE" envDefault:"memory"`
	DedupeTTL time.Duration `env:"DEDUPE_TTL" envDefault:"24h"`
}
