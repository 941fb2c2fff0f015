package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wallet_engine/internal/app/service"
	"wallet_engine/internal/config"
	"wallet_engine/internal/domain/entity"
	"wallet_engine/internal/infrastructure/apiclient"
	"wallet_engine/internal/infrastructure/filestore"
	"wallet_engine/internal/infrastructure/restapi"
	"wallet_engine/internal/infrastructure/signer"
	"wallet_engine/internal/pkg/logger"
	"wallet_engine/internal/pkg/metrics"
	"wallet_engine/internal/pkg/utils"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

// logCallbacks surfaces engine change notifications in the process log.
// Embedding applications would replace this with their own listener.
type logCallbacks struct {
	log *zap.Logger
}

func (c *logCallbacks) OnBalanceChanged(assetCode string, balance string) {
	c.log.Info("Balance changed", zap.String("asset", assetCode), zap.String("balance", balance))
}

func (c *logCallbacks) OnTransactionsChanged(txs []*entity.Transaction) {
	c.log.Info("Transactions changed", zap.Int("count", len(txs)))
}

func (c *logCallbacks) OnBlockHeightChanged(height int64) {
	c.log.Info("Block height changed", zap.Int64("height", height))
}

func (c *logCallbacks) OnAddressesChecked(progress float64) {
	c.log.Debug("Address scan progress", zap.Float64("progress", progress))
}

func main() {
	// Bootstrap logging with logrus until the configured zap logger is up.
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)

	cfgPath := utils.GetEnv("CONFIG_PATH", "config/config.yaml")
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.Logging.Level)
	if err != nil {
		logrus.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer zapLogger.Sync()
	logger.SetSlogDefault(zapLogger)

	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	metrics.MustRegisterMetrics()

	fetcher := apiclient.NewClient(
		time.Duration(cfg.API.RequestTimeoutMillis)*time.Millisecond,
		cfg.API.RateLimit,
		cfg.API.BurstLimit,
		zapLogger,
	)

	txSigner, err := signer.NewEIP155Signer(cfg.Wallet.PrivateKey, cfg.Wallet.ChainID)
	if err != nil {
		zapLogger.Fatal("Failed to initialize transaction signer", zap.Error(err))
	}

	engine, err := service.NewEngine(
		cfg,
		fetcher,
		txSigner,
		filestore.New(),
		service.NewDefaultFeePolicy(),
		&logCallbacks{log: zapLogger.Named("Callbacks")},
		zapLogger,
	)
	if err != nil {
		zapLogger.Fatal("Failed to initialize wallet engine", zap.Error(err))
	}

	engine.StartEngine()
	zapLogger.Info("Wallet engine started",
		zap.String("address", engine.GetFreshAddress()),
		zap.Strings("enabledAssets", engine.GetEnabledAssets()))

	router := restapi.SetupRouter(restapi.NewEngineHandler(engine))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info(fmt.Sprintf("Server starting on port %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down...")

	engine.StopEngine()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting")
}
