package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vitos/riskbox/internal/domain"
	"github.com/vitos/riskbox/internal/infrastructure/exchange"
	"github.com/vitos/riskbox/internal/infrastructure/logger"
	"github.com/vitos/riskbox/internal/infrastructure/storage"
	"github.com/vitos/riskbox/internal/usecase"
	"github.com/vitos/riskbox/internal/web"
)

type Config struct {
	Instrument struct {
		Symbol    string  `yaml:"symbol"`
		TickSize  float64 `yaml:"tick_size"`
		TickValue float64 `yaml:"tick_value"`
		Currency  string  `yaml:"currency"`
	} `yaml:"instrument"`
	Risk struct {
		Mode            string  `yaml:"mode"`
		Value           float64 `yaml:"value"`
		DefaultSLTicks  int     `yaml:"default_sl_ticks"`
		DefaultTPTicks  int     `yaml:"default_tp_ticks"`
		ConfirmOnSubmit bool    `yaml:"confirm_on_submit"`
	} `yaml:"risk"`
	Chart struct {
		Width float64 `yaml:"width"`
	} `yaml:"chart"`
	Feed struct {
		Enabled    bool   `yaml:"enabled"`
		WSEndpoint string `yaml:"ws_endpoint"`
	} `yaml:"feed"`
	Account struct {
		StartingBalance float64 `yaml:"starting_balance"`
	} `yaml:"account"`
	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
}

func loadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides lets deploy environments tweak config without editing
// the yaml file. Only a handful of keys are worth overriding.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RISKBOX_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("RISKBOX_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RISKBOX_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("RISKBOX_FEED_ENDPOINT"); v != "" {
		cfg.Feed.WSEndpoint = v
	}
}

func main() {
	// .env is optional, yaml holds the defaults
	_ = godotenv.Load()

	// 1. Load Config
	cfg, err := loadConfig("config/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	applyEnvOverrides(cfg)

	// 2. Init Logger
	var log *zap.Logger
	if cfg.Logging.File != "" {
		log, err = logger.NewFileLogger(cfg.Logging.File, cfg.Logging.Level)
	} else {
		log, err = logger.NewLogger(cfg.Logging.Level)
	}
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 3. Init Storage
	storagePath := cfg.Storage.Path
	if storagePath == "" {
		storagePath = "riskbox.db"
	}
	store, err := storage.NewSQLiteStore(storagePath)
	if err != nil {
		log.Fatal("Failed to init sqlite", zap.Error(err))
	}
	defer store.Close()

	// 4. Init Paper Broker
	startingBalance := cfg.Account.StartingBalance
	if startingBalance == 0 {
		startingBalance = 50000
	}
	broker := exchange.NewPaperBroker(startingBalance, cfg.Instrument.Currency, log)

	// 5. Init Tool Service
	toolCfg := usecase.ToolConfig{
		Instrument: domain.Instrument{
			Symbol:    cfg.Instrument.Symbol,
			TickSize:  cfg.Instrument.TickSize,
			TickValue: cfg.Instrument.TickValue,
			Currency:  cfg.Instrument.Currency,
		},
		Risk: usecase.RiskConfig{
			Mode:  usecase.RiskMode(cfg.Risk.Mode),
			Value: cfg.Risk.Value,
		},
		DefaultStopTicks:   cfg.Risk.DefaultSLTicks,
		DefaultTargetTicks: cfg.Risk.DefaultTPTicks,
		ChartWidth:         cfg.Chart.Width,
	}

	// Confirmation prompts ride the websocket channel; orders are declined
	// when no client answers in time.
	var confirm usecase.ConfirmFunc
	var confirmBridge *usecase.ConfirmBridge
	if cfg.Risk.ConfirmOnSubmit {
		confirmBridge = usecase.NewConfirmBridge(30*time.Second, log)
		confirm = confirmBridge.Confirm
	}

	service := usecase.NewToolService(toolCfg, broker, store, store, broker, confirm, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go service.Run(ctx)

	// 6. Connect Price Feed (optional, paper broker ticks otherwise come
	// from the web client)
	fanTick := func(price float64) {
		broker.Tick(price)
		service.ProcessTick(price)
	}
	if cfg.Feed.Enabled {
		feed := exchange.NewPriceFeed(cfg.Feed.WSEndpoint, cfg.Instrument.Symbol, log)
		feed.OnPriceUpdate(func(price float64) {
			fanTick(price)
		})
		if err := feed.Connect(); err != nil {
			log.Error("Failed to connect price feed", zap.Error(err))
		} else {
			defer feed.Close()
		}
	}

	// 7. Init Web Server
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	server := web.NewServer(port, service, store, fanTick, confirmBridge, log)

	// 8. Start Server
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// 9. Wait for Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down...")
	cancel()
	server.Shutdown(context.Background())
}
