package config

import (
	"perfledger/internal/engine"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const envPrefix = "PERFLEDGER"

var (
	ErrUnknownCurrency = errors.New("unknown settlement currency")
	ErrInvalidWorkers  = errors.New("batch.workers must be positive")
	ErrNegativeEpsilon = errors.New("epsilon must not be negative")
)

type Config struct {
	SettlementCurrency       string
	ClosePositions           bool
	PseudoTradeFallback      bool
	Epsilon                  decimal.Decimal
	CommissionToleranceRatio decimal.Decimal
	RiskFreeRate             decimal.Decimal

	Log      LogConfig
	Database DatabaseConfig
	Batch    BatchConfig
}

type LogConfig struct {
	Level       string
	Development bool
}

type DatabaseConfig struct {
	URL string
}

type BatchConfig struct {
	Workers int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("settlement_currency", money.USD)
	v.SetDefault("close_positions", false)
	v.SetDefault("pseudo_trade_fallback", true)
	v.SetDefault("epsilon", "0.000001")
	v.SetDefault("commission_tolerance_ratio", "0.05")
	v.SetDefault("risk_free_rate", "0")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("database.url", "")
	v.SetDefault("batch.workers", 4)
}

// Load reads .env (when present), then the optional YAML file at path, then PERFLEDGER_*
// environment variables. Later sources win.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		SettlementCurrency:  strings.ToUpper(strings.TrimSpace(v.GetString("settlement_currency"))),
		ClosePositions:      v.GetBool("close_positions"),
		PseudoTradeFallback: v.GetBool("pseudo_trade_fallback"),
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
		},
		Database: DatabaseConfig{URL: v.GetString("database.url")},
		Batch:    BatchConfig{Workers: v.GetInt("batch.workers")},
	}

	var err error
	if cfg.Epsilon, err = decimalKey(v, "epsilon"); err != nil {
		return nil, err
	}
	if cfg.CommissionToleranceRatio, err = decimalKey(v, "commission_tolerance_ratio"); err != nil {
		return nil, err
	}
	if cfg.RiskFreeRate, err = decimalKey(v, "risk_free_rate"); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decimalKey(v *viper.Viper, key string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse %s", key)
	}
	return d, nil
}

func (c *Config) Validate() error {
	if money.GetCurrency(c.SettlementCurrency) == nil {
		return errors.Wrapf(ErrUnknownCurrency, "%q", c.SettlementCurrency)
	}
	if c.Epsilon.IsNegative() {
		return ErrNegativeEpsilon
	}
	if c.Batch.Workers <= 0 {
		return ErrInvalidWorkers
	}
	return nil
}

// NewEngine builds an analysis engine from the accounting settings.
func (c *Config) NewEngine(log *zap.Logger) *engine.Engine {
	return engine.NewEngine(
		engine.NewReconcileConfig(c.Epsilon, c.CommissionToleranceRatio),
		engine.NewStatsConfig(c.PseudoTradeFallback),
		engine.NewReportingConfig(c.RiskFreeRate),
		log,
	)
}
