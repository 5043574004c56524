package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf"
	"github.com/blkchain/ingress"
	"github.com/blkchain/ingress/chain"
	"github.com/blkchain/ingress/consensus"
	"github.com/blkchain/ingress/journal"
	"github.com/blkchain/ingress/metrics"
	"github.com/blkchain/ingress/rlimit"
	"github.com/blkchain/ingress/rpc"
	"github.com/blkchain/ingress/txpool"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const envPrefix = "INGRESS"

type config struct {
	Chain struct {
		StorePath  string `conf:"default:data/chain"`
		OpenFiles  uint64 `conf:"default:1024"`
		ImportPath string `conf:"optional"`
	}
	Pool struct {
		MinFeeRate   uint64 `conf:"default:1000"`
		MaxAncestors int    `conf:"default:25"`
		MaxOrphans   int    `conf:"default:100"`
	}
	Relay struct {
		Interval time.Duration `conf:"default:1s"`
	}
	Consensus struct {
		SighashAllTypeHash string `conf:"optional"`
		MultisigTypeHash   string `conf:"optional"`
		DaoTypeHash        string `conf:"optional"`
	}
	Server struct {
		RpcHost          string `conf:"default:127.0.0.1:8114"`
		MetricsHost      string `conf:"default:0.0.0.0:9999"`
		MetricsNamespace string `conf:"default:ingress"`
	}
	Journal struct {
		ConnectString string `conf:"optional,mask"`
	}
	Log struct {
		Level string `conf:"default:info"`
	}
}

func main() {
	if err := run(); err != nil {
		log.Criticalf("main: exited with error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg config
	if err := conf.Parse(os.Args[1:], envPrefix, &cfg); err != nil {
		switch {
		case errors.Is(err, conf.ErrHelpWanted):
			usage, err := conf.Usage(envPrefix, &cfg)
			if err != nil {
				return errors.Wrap(err, "generating config usage")
			}
			fmt.Println(usage)
			return nil
		case errors.Is(err, conf.ErrVersionWanted):
			version, err := conf.VersionString(envPrefix, &cfg)
			if err != nil {
				return errors.Wrap(err, "generating config version")
			}
			fmt.Println(version)
			return nil
		}
		return errors.Wrap(err, "parsing config")
	}

	if !setLogLevels(cfg.Log.Level) {
		return errors.Errorf("invalid log level %q", cfg.Log.Level)
	}

	out, err := conf.String(&cfg)
	if err != nil {
		return errors.Wrap(err, "generating config for output")
	}
	log.Infof("main: Config :\n%v\n", out)

	params, err := consensusParams(&cfg)
	if err != nil {
		return errors.Wrap(err, "loading consensus params")
	}

	// leveldb opens many files.
	prev, err := rlimit.SetRLimit(cfg.Chain.OpenFiles)
	if err != nil {
		return errors.Wrap(err, "setting open files rlimit")
	}
	if prev < cfg.Chain.OpenFiles {
		log.Infof("Raised open files rlimit from %d to %d", prev, cfg.Chain.OpenFiles)
	}

	store, err := chain.OpenStore(cfg.Chain.StorePath)
	if err != nil {
		return err
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(cfg.Server.MetricsNamespace, reg)

	minFeeRate := ingress.FeeRate(cfg.Pool.MinFeeRate)
	n, err := newNode(store, nodeConfig{
		Pool: txpool.Config{
			MinFeeRate:        minFeeRate,
			MaxAncestorsCount: cfg.Pool.MaxAncestors,
			MaxOrphans:        cfg.Pool.MaxOrphans,
		},
		RelayInterval: cfg.Relay.Interval,
		Metrics:       m,
	})
	if err != nil {
		return err
	}
	n.start()
	defer n.stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Chain.ImportPath != "" {
		if err := importFile(ctx, n, cfg.Chain.ImportPath); err != nil {
			return err
		}
	}

	rpcCfg := rpc.Config{
		Pool:       n.pool,
		TxHashes:   n.txHashes,
		Params:     params,
		MinFeeRate: minFeeRate,
		Metrics:    m,
	}
	if cfg.Journal.ConnectString != "" {
		j, err := journal.NewPGJournal(journal.Config{ConnectString: cfg.Journal.ConnectString})
		if err != nil {
			return errors.Wrap(err, "opening admission journal")
		}
		defer j.Close()
		rpcCfg.Recorder = j
		rpcCfg.History = j
	}

	// A missing system cell stops startup here.
	poolRPC, err := rpc.NewPoolRPC(rpcCfg)
	if err != nil {
		return errors.Wrap(err, "creating pool rpc")
	}

	rpcServer := &http.Server{
		Addr:              cfg.Server.RpcHost,
		Handler:           rpc.NewHandler(poolRPC),
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{
		Addr:              cfg.Server.MetricsHost,
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("main: Starting rpc server on addr [%s].", rpcServer.Addr)
		return serve(rpcServer)
	})
	g.Go(func() error {
		log.Infof("main: Starting metrics server on addr [%s].", metricsServer.Addr)
		return serve(metricsServer)
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("main: Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rpcErr := rpcServer.Shutdown(shutdownCtx)
		metricsErr := metricsServer.Shutdown(shutdownCtx)
		if rpcErr != nil {
			return rpcErr
		}
		return metricsErr
	})

	log.Infof("main: Service started, sync handler serving up to %d blocks "+
		"per request.", n.synchronizer.MaxBlocksInTransit())
	return g.Wait()
}

func importFile(ctx context.Context, n *node, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening block import file")
	}
	defer f.Close()

	start := time.Now()
	count, err := n.importBlocks(ctx, f)
	if err != nil {
		return errors.Wrapf(err, "importing blocks from %s", path)
	}
	log.Infof("main: Imported %d blocks from %s in %v", count, path, time.Since(start))
	return nil
}

func serve(s *http.Server) error {
	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrapf(err, "serving %s", s.Addr)
	}
	return nil
}

// consensusParams returns mainnet params with any configured type hash
// overrides applied.
func consensusParams(cfg *config) (*consensus.Params, error) {
	params := consensus.MainnetParams()
	overrides := []struct {
		cell consensus.SystemCell
		hash string
	}{
		{consensus.SecpSighashAll, cfg.Consensus.SighashAllTypeHash},
		{consensus.SecpMultisig, cfg.Consensus.MultisigTypeHash},
		{consensus.Dao, cfg.Consensus.DaoTypeHash},
	}
	for _, o := range overrides {
		if o.hash == "" {
			continue
		}
		h, err := ingress.Uint256FromString(o.hash)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %v type hash", o.cell)
		}
		params = params.WithTypeHash(o.cell, h)
	}
	return params, nil
}
