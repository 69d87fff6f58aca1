package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/clock"
	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/metrics"
	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/repository/clickhouse"
	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/repository/csv"
	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/service/extractor"
	"github.com/hashicorp/go-multierror"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	sinkCSV        = "csv"
	sinkClickhouse = "clickhouse"
)

type config struct {
	DataDir             string        `long:"datadir" env:"UTXO_EXTRACT_DATADIR" description:"bitcoind data directory, used for cookie authentication when no rpc user is set"`
	RPCURL              string        `long:"rpc-url" env:"UTXO_EXTRACT_RPC_URL" description:"Bitcoin RPC URL" default:"http://127.0.0.1:8332"`
	RPCUser             string        `long:"rpc-user" env:"UTXO_EXTRACT_RPC_USER" description:"Bitcoin RPC username"`
	RPCPassword         string        `long:"rpc-password" env:"UTXO_EXTRACT_RPC_PASSWORD" description:"Bitcoin RPC password"`
	RPCRPS              int           `long:"rpc-rps" env:"UTXO_EXTRACT_RPC_RPS" description:"RPC calls per second, 0 disables the limit" default:"0"`
	Network             model.Network `long:"network" env:"UTXO_EXTRACT_NETWORK" description:"network name" choice:"mainnet" choice:"testnet" choice:"regtest" choice:"signet" default:"mainnet"`
	OutDir              string        `long:"out-dir" env:"UTXO_EXTRACT_OUT_DIR" description:"directory for input.csv and output.csv"`
	Sink                string        `long:"sink" env:"UTXO_EXTRACT_SINK" description:"row destination" choice:"csv" choice:"clickhouse" default:"csv"`
	Compression         string        `long:"compression" env:"UTXO_EXTRACT_COMPRESSION" description:"CSV compression" choice:"none" choice:"zstd" default:"none"`
	BufferSize          int           `long:"buffer-size" env:"UTXO_EXTRACT_BUFFER_SIZE" description:"CSV write buffer size in bytes" default:"1048576"`
	HeaderWorkers       int           `long:"header-workers" env:"UTXO_EXTRACT_HEADER_WORKERS" description:"concurrent header lookups during the estimate" default:"8"`
	ProgressInterval    time.Duration `long:"progress-interval" env:"UTXO_EXTRACT_PROGRESS_INTERVAL" description:"interval between progress log lines" default:"10s"`
	PrevoutCacheSize    int64         `long:"prevout-cache-size" env:"UTXO_EXTRACT_PREVOUT_CACHE_SIZE" description:"outputs kept in the previous output cache" default:"100000"`
	ClickhouseDSN       string        `long:"clickhouse-dsn" env:"UTXO_EXTRACT_CLICKHOUSE_DSN" description:"ClickHouse DSN, required for the clickhouse sink"`
	ClickhouseBatchSize int           `long:"clickhouse-batch-size" env:"UTXO_EXTRACT_CLICKHOUSE_BATCH_SIZE" description:"rows per ClickHouse insert" default:"100000"`
	MetricsAddr         string        `long:"metrics-addr" env:"UTXO_EXTRACT_METRICS_ADDR" description:"address for metrics server, empty disables it"`
	OpenRetries         int           `long:"open-retries" env:"UTXO_EXTRACT_OPEN_RETRIES" description:"attempts to open the chain store" default:"3"`
	OpenRetryDelay      time.Duration `long:"open-retry-delay" env:"UTXO_EXTRACT_OPEN_RETRY_DELAY" description:"delay between chain store open attempts" default:"5s"`
	MaxHeight           uint64        `long:"max-height" env:"UTXO_EXTRACT_MAX_HEIGHT" description:"exclusive end height, 0 walks to the chain tip" default:"0"`
}

func main() {
	cfg := config{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if _, err := flags.ParseArgs(&cfg, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	var prompt *prompter
	if isTerminal(os.Stdin) {
		prompt = newPrompter(os.Stdin, os.Stderr)
	}

	summary, err := run(ctx, cfg, prompt, logger)
	if err != nil {
		logger.Fatal("utxo extractor failed", zap.Error(err))
	}
	logger.Info("extraction finished",
		zap.Uint64("end", summary.End),
		zap.Uint64("txs", summary.WalkedTxs),
		zap.Uint64("input_rows", summary.InputRows),
		zap.Uint64("output_rows", summary.OutputRows),
	)
}

func run(ctx context.Context, cfg config, prompt *prompter, logger *zap.Logger) (extractor.Summary, error) {
	if cfg.MetricsAddr != "" {
		startMetricsServer(ctx, cfg.MetricsAddr, logger)
	}

	store, err := openChainStore(ctx, &cfg, prompt, logger)
	if err != nil {
		return extractor.Summary{}, err
	}
	defer store.Close()

	inputs, outputs, closeSink, err := openEmitters(ctx, &cfg, prompt)
	if err != nil {
		return extractor.Summary{}, err
	}

	job, err := extractor.NewJob(extractor.Config{
		Source:           store.source,
		Inputs:           inputs,
		Outputs:          outputs,
		Metrics:          metrics.NewExtractor(model.BTC, cfg.Network),
		Logger:           logger.Named("extractor"),
		MaxHeight:        cfg.MaxHeight,
		HeaderWorkers:    cfg.HeaderWorkers,
		ProgressInterval: cfg.ProgressInterval,
	})
	if err != nil {
		return extractor.Summary{}, multierror.Append(err, inputs.Close(), outputs.Close(), closeSink()).ErrorOrNil()
	}

	summary, err := job.Run(ctx)
	if closeErr := closeSink(); closeErr != nil {
		err = multierror.Append(err, closeErr).ErrorOrNil()
	}
	return summary, err
}

// openChainStore connects to the node. Without a data directory or rpc user it asks for
// the data directory until the store opens; otherwise it retries with the configured delay.
func openChainStore(ctx context.Context, cfg *config, prompt *prompter, logger *zap.Logger) (*chainStore, error) {
	var store *chainStore
	open := func(ctx context.Context) error {
		s, err := newChainStore(ctx, *cfg, logger)
		if err != nil {
			return err
		}
		store = s
		return nil
	}

	if cfg.DataDir == "" && cfg.RPCUser == "" && prompt != nil {
		_, err := prompt.askUntil(ctx, "bitcoind data directory", func(answer string) error {
			cfg.DataDir = answer
			return open(ctx)
		})
		return store, err
	}

	err := clock.Retry(ctx, cfg.OpenRetries, cfg.OpenRetryDelay, func(ctx context.Context, attempt int) error {
		err := open(ctx)
		if err != nil {
			logger.Warn("open chain store failed", zap.Int("attempt", attempt), zap.Error(err))
		}
		return err
	})
	return store, err
}

func openEmitters(ctx context.Context, cfg *config, prompt *prompter) (extractor.RowEmitter, extractor.RowEmitter, func() error, error) {
	switch cfg.Sink {
	case sinkClickhouse:
		return openClickhouseEmitters(ctx, *cfg)
	default:
		if err := resolveOutDir(ctx, cfg, prompt); err != nil {
			return nil, nil, nil, err
		}
		inputs, outputs, err := openCSVEmitters(*cfg)
		return inputs, outputs, func() error { return nil }, err
	}
}

func resolveOutDir(ctx context.Context, cfg *config, prompt *prompter) error {
	if cfg.OutDir != "" {
		return ensureDir(cfg.OutDir)
	}
	if prompt == nil {
		return errors.New("out-dir is required")
	}
	dir, err := prompt.askUntil(ctx, "output directory", ensureDir)
	if err != nil {
		return err
	}
	cfg.OutDir = dir
	return nil
}

func openCSVEmitters(cfg config) (extractor.RowEmitter, extractor.RowEmitter, error) {
	compression := csv.Compression(cfg.Compression)
	open := func(stream model.Stream) (*csv.Emitter, error) {
		return csv.Create(filepath.Join(cfg.OutDir, csv.FileName(stream, compression)), csv.Options{
			BufferSize:  cfg.BufferSize,
			Compression: compression,
			Metrics:     metrics.NewEmitter(sinkCSV, stream),
		})
	}

	inputs, err := open(model.Inputs)
	if err != nil {
		return nil, nil, err
	}
	outputs, err := open(model.Outputs)
	if err != nil {
		return nil, nil, multierror.Append(err, inputs.Close()).ErrorOrNil()
	}
	return inputs, outputs, nil
}

func openClickhouseEmitters(ctx context.Context, cfg config) (extractor.RowEmitter, extractor.RowEmitter, func() error, error) {
	repo, err := clickhouse.NewRepository(cfg.ClickhouseDSN, metrics.NewClickhouseRepository())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init repository: %w", err)
	}

	inputs, err := clickhouse.NewEmitter(ctx, repo, model.Inputs, cfg.ClickhouseBatchSize, metrics.NewEmitter(sinkClickhouse, model.Inputs))
	if err != nil {
		return nil, nil, nil, multierror.Append(err, repo.Close()).ErrorOrNil()
	}
	outputs, err := clickhouse.NewEmitter(ctx, repo, model.Outputs, cfg.ClickhouseBatchSize, metrics.NewEmitter(sinkClickhouse, model.Outputs))
	if err != nil {
		return nil, nil, nil, multierror.Append(err, repo.Close()).ErrorOrNil()
	}
	return inputs, outputs, repo.Close, nil
}

func startMetricsServer(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting metrics server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics server", zap.Error(err))
		}
	}()
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
