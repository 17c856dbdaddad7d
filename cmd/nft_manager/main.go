package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nft_manager/internal/app/provider"
	"nft_manager/internal/app/service"
	insightclient "nft_manager/internal/client"
	"nft_manager/internal/infrastructure/configloader"
	clientprovider "nft_manager/internal/infrastructure/network/client"
	networkdefinition "nft_manager/internal/infrastructure/network/definition"
	"nft_manager/internal/infrastructure/restapi"
	"nft_manager/internal/pkg/logger"
	"nft_manager/internal/pkg/metrics"
	"nft_manager/internal/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const defaultConfigPath = "config/config.yml"

func main() {
	configPath := utils.GetEnv("CONFIG_PATH", defaultConfigPath)
	cfg, err := configloader.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", configPath, err)
		os.Exit(1)
	}

	zapLogger, err := logger.NewZap(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()
	logger.InitSlog(zapLogger, cfg.Logging.Level)
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("NFT manager starting", "config", configPath)
	metrics.MustRegisterMetrics()

	appLogger := logger.NewSlogAdapter()

	netDefProvider := networkdefinition.NewNetworkDefinitionProvider(appLogger, cfg.Insight.ChainIDs, cfg.Networks)
	chainProvider := provider.NewChainProvider(netDefProvider, appLogger)

	clientProvider := clientprovider.NewEVMClientProvider(
		netDefProvider,
		clientprovider.NewEVMClient,
		time.Duration(cfg.RpcClient.ConnectTimeoutMs)*time.Millisecond,
		appLogger,
	)

	walletProvider, err := provider.NewWalletProvider(cfg.Wallet, appLogger)
	if err != nil {
		logger.Fatal("Failed to load wallet", "error", err)
	}

	contractCaller := clientprovider.NewContractCaller(
		clientProvider,
		walletProvider,
		cfg.RpcClient.RateLimit,
		cfg.RpcClient.BurstLimit,
		zapLogger,
	)

	insightClient := insightclient.NewInsightClient(
		&fasthttp.Client{
			Name:                "nft_manager",
			MaxIdleConnDuration: 30 * time.Second,
		},
		cfg.Insight.BaseURL,
		cfg.Insight.ClientID,
		time.Duration(cfg.Insight.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
	)

	inventoryService := service.NewInventoryService(insightClient, cfg.Insight.ChainIDs, appLogger)
	session := service.NewOwnerSession(inventoryService, appLogger)
	logger.Info("Aggregating inventories", "chain_ids", inventoryService.ChainIDs())
	if untracked := chainProvider.Untracked(inventoryService.ChainIDs()); len(untracked) > 0 {
		logger.Warn("No RPC network configured, transfers unavailable", "chain_ids", untracked)
	}

	tracker := service.NewTransferTracker(
		time.Duration(cfg.Transfers.StatusTTLMinutes)*time.Minute,
		time.Duration(cfg.Transfers.CleanupIntervalMinutes)*time.Minute,
		appLogger,
	)
	dispatcher := service.NewTransferDispatcher(
		contractCaller,
		time.Duration(cfg.Transfers.ConfirmTimeoutMinutes)*time.Minute,
		appLogger,
		tracker.Listener(),
		service.RefreshOnConfirmed(session, appLogger),
	)

	// The connected wallet is the session owner from the start.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	inv := session.SetOwner(startupCtx, walletProvider.Address().Hex())
	startupCancel()
	logger.Info("Initial inventory loaded",
		"owner", inv.Owner,
		"erc721", len(inv.ERC721),
		"erc1155", len(inv.ERC1155),
		"errors", len(inv.Errors))

	router := restapi.SetupRouter(
		restapi.NewInventoryHandler(inventoryService, session, walletProvider, chainProvider),
		restapi.NewTransferHandler(dispatcher, tracker, session, walletProvider, chainProvider),
		cfg.Swagger,
		zapLogger.Named("http"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", "error", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	<-signalChan

	logger.Info("Shutdown signal received")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		logger.Warn("Transfers still in flight at shutdown", "error", err)
	}
	zapLogger.Info("NFT manager stopped", zap.String("address", srv.Addr))
}
