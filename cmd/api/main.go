package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	applicationllm "github.com/tokenrisk/scanner/internal/application/llm"
	"github.com/tokenrisk/scanner/internal/application/pipeline"
	"github.com/tokenrisk/scanner/internal/application/registry"
	"github.com/tokenrisk/scanner/internal/application/scanservice"
	"github.com/tokenrisk/scanner/internal/application/stream"
	"github.com/tokenrisk/scanner/internal/application/tools"
	"github.com/tokenrisk/scanner/internal/application/worker"
	"github.com/tokenrisk/scanner/internal/config"
	"github.com/tokenrisk/scanner/internal/domain/evidence"
	"github.com/tokenrisk/scanner/internal/domain/plan"
	"github.com/tokenrisk/scanner/internal/infra/db/postgres"
	"github.com/tokenrisk/scanner/internal/infra/httpserver"
	"github.com/tokenrisk/scanner/internal/infra/llm/openai"
	"github.com/tokenrisk/scanner/internal/infra/providers"
	"github.com/tokenrisk/scanner/internal/logging"
	"github.com/tokenrisk/scanner/internal/middleware"
)

const scannerVersion = "1.0.0"
const scoreVersion = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := logging.Init(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	logger := zap.L()
	defer logger.Sync()

	ctx := context.Background()

	pool, err := postgres.Connect(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal("postgres connect failed", zap.Error(err))
	}
	defer pool.Close()

	scans := postgres.NewScanRepository(pool)
	events := postgres.NewEventRepository(pool)
	jobs := postgres.NewJobRepository(pool)

	rpcClient := providers.NewRPCClient(cfg.Chain.RPCURL)
	explorerClient := providers.NewExplorerClient(cfg.Explorer.APIKey, cfg.Explorer.BaseURL)
	dexClient := providers.NewDexClient(cfg.Dex.BaseURL)
	honeypotClient := providers.NewHoneypotClient(cfg.Honeypot.APIKey, cfg.Honeypot.BaseURL)
	holdersClient := providers.NewHoldersClient(cfg.Holders.Token, cfg.Holders.BaseURL)

	availability := plan.Availability{
		ExplorerEnabled: cfg.Explorer.Enabled(),
		HoldersEnabled:  cfg.Holders.Enabled(),
	}

	reg := registry.Build(map[evidence.Tool]registry.Executor{
		evidence.ToolRPCBytecode:        &tools.BytecodeExecutor{RPC: rpcClient},
		evidence.ToolRPCErc20Metadata:   &tools.MetadataExecutor{RPC: rpcClient},
		evidence.ToolDexscreenerPairs:   &tools.DexPairsExecutor{Dex: dexClient, NetworkTag: cfg.Chain.Tag},
		evidence.ToolHoneypotSimulation: &tools.HoneypotExecutor{Honeypot: honeypotClient},
		evidence.ToolLPV2LockStatus:     &tools.LPLockExecutor{RPC: rpcClient},
		evidence.ToolBasescanSourceInfo: &tools.SourceInfoExecutor{Explorer: explorerClient},
		evidence.ToolBasescanCreation:   &tools.CreationExecutor{Explorer: explorerClient},
		evidence.ToolOwnerStatus:        &tools.OwnerStatusExecutor{RPC: rpcClient},
		evidence.ToolCapabilityScan:     &tools.CapabilityScanExecutor{},
		evidence.ToolTopHolders: &tools.TopHoldersExecutor{
			Holders:         holdersClient,
			Mode:            cfg.Holders.Mode,
			Limit:           20,
			MinRows:         cfg.Holders.MinRows,
			ArchiveProbeCap: cfg.Holders.ArchiveProbeCap,
		},
	})

	llmClient := openai.New(cfg.LLM.APIKey, cfg.LLM.BaseURL)
	bridge := &applicationllm.Bridge{
		Client:        llmClient,
		PrimaryModel:  cfg.LLM.Model,
		FallbackModel: cfg.LLM.FallbackModel,
	}

	runner := &pipeline.Runner{
		Scans:          scans,
		Events:         events,
		Registry:       reg,
		Bridge:         bridge,
		Availability:   availability,
		ScannerVersion: scannerVersion,
		ScoreVersion:   scoreVersion,
	}

	bgWorker := worker.New(jobs, runner)

	svc := &scanservice.Service{
		Scans:    scans,
		Jobs:     jobs,
		RPC:      rpcClient,
		Worker:   bgWorker,
		Bridge:   bridge,
		Network:  cfg.Chain.Tag,
		CacheTTL: time.Duration(cfg.Scan.CacheTTLSeconds) * time.Second,
	}

	streamer := &stream.Streamer{Events: events, Scans: scans}

	healthCheckers := map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{Pool: pool},
	}

	mux := httpserver.NewRouter(svc, streamer, healthCheckers)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // the SSE stream endpoint holds connections open
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
