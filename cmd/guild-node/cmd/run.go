package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/guildnet/guild-oracle/engine/operator"
	"github.com/guildnet/guild-oracle/model/encoding/cbor"
	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/module"
	"github.com/guildnet/guild-oracle/module/allowlist"
	"github.com/guildnet/guild-oracle/module/balance"
	"github.com/guildnet/guild-oracle/module/metrics"
	"github.com/guildnet/guild-oracle/module/requirements"
	"github.com/guildnet/guild-oracle/module/signature"
	"github.com/guildnet/guild-oracle/module/util"
	"github.com/guildnet/guild-oracle/state/chain"
	"github.com/guildnet/guild-oracle/state/oracle"
)

const shutdownTimeout = 30 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a local ledger together with its oracle operators",
	Long: `Run opens (or bootstraps) the ledger in the data directory, registers and
activates one operator per seed, and produces a block every block-time until
interrupted. Balances are read from the configured JSON-RPC endpoints; without
any endpoint every balance is zero.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadRunConfig()
		if err != nil {
			return err
		}
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return run(ctx, config)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.String("datadir", "./data", "directory of the ledger database")
	flags.String("root", "", "hex account allowed to register operators (random when empty)")
	flags.StringSlice("operator-seeds", nil, "hex seeds of the operators to run")
	flags.String("operator-scheme", schemeEd25519, "signature scheme of the operator keys (ed25519, schnorr, evm)")
	flags.Int("operators", 1, "number of operators with random seeds to run when no seeds are given")
	flags.StringToString("rpc", nil, "JSON-RPC endpoint per chain, e.g. ethereum=https://...")
	flags.StringSlice("allowlists", nil, "allowlist files made available to the operators")
	flags.Uint("metrics-port", 8080, "port of the prometheus endpoint, 0 disables it")
	flags.Bool("profiler", false, "expose pprof on the metrics endpoint")
	flags.Duration("block-time", 6*time.Second, "interval between produced blocks")
	flags.Uint64("validity-window", oracle.DefaultConfig().ValidityWindow, "blocks a request stays answerable")
	flags.Uint("sweep-limit", chain.DefaultConfig().SweepLimit, "requests expired per sweep batch")
	flags.Duration("poll-interval", operator.DefaultConfig().PollInterval, "interval at which operators poll their requests")
	flags.Int("workers", operator.DefaultConfig().Workers, "requests evaluated in parallel per operator")
	flags.Uint("page-size", operator.DefaultConfig().PageSize, "pending requests fetched per call")
	flags.String("policy", requirements.StrictErrors.String(), "how lookup errors affect role checks (strict, unknown-as-unsatisfied)")
	flags.Int("balance-cache-size", 4096, "number of cached balances")
	flags.Duration("balance-cache-ttl", 30*time.Second, "lifetime of a cached balance")
	flags.Uint64("lookup-retries", util.DefaultRetryConfig().MaxRetries, "retries of a failed balance lookup")

	bindFlags(flags)
}

type runConfig struct {
	datadir     string
	root        guild.AccountID
	scheme      string
	seeds       [][]byte
	rpc         map[guild.Chain]string
	allowlists  []string
	metricsPort uint
	profiler    bool
	blockTime   time.Duration
	ledger      chain.Config
	operator    operator.Config
	policy      requirements.Policy
	cacheSize   int
	cacheTTL    time.Duration
	lookup      util.RetryConfig
}

func loadRunConfig() (runConfig, error) {
	config := runConfig{
		datadir:     viper.GetString("datadir"),
		scheme:      viper.GetString("operator-scheme"),
		allowlists:  viper.GetStringSlice("allowlists"),
		metricsPort: viper.GetUint("metrics-port"),
		profiler:    viper.GetBool("profiler"),
		blockTime:   viper.GetDuration("block-time"),
		ledger:      chain.DefaultConfig(),
		operator:    operator.DefaultConfig(),
		cacheSize:   viper.GetInt("balance-cache-size"),
		cacheTTL:    viper.GetDuration("balance-cache-ttl"),
		lookup:      util.DefaultRetryConfig(),
	}
	config.ledger.Oracle.ValidityWindow = viper.GetUint64("validity-window")
	config.ledger.SweepLimit = viper.GetUint("sweep-limit")
	config.operator.PollInterval = viper.GetDuration("poll-interval")
	config.operator.BlockTime = config.blockTime
	config.operator.Workers = viper.GetInt("workers")
	config.operator.PageSize = viper.GetUint("page-size")
	config.lookup.MaxRetries = viper.GetUint64("lookup-retries")

	if config.blockTime <= 0 {
		return config, fmt.Errorf("block-time must be positive")
	}

	var err error
	config.policy, err = requirements.ParsePolicy(viper.GetString("policy"))
	if err != nil {
		return config, err
	}

	config.root, err = rootAccount(viper.GetString("root"))
	if err != nil {
		return config, err
	}

	config.seeds, err = operatorSeeds(viper.GetStringSlice("operator-seeds"), viper.GetInt("operators"))
	if err != nil {
		return config, err
	}

	config.rpc = make(map[guild.Chain]string)
	for name, url := range viper.GetStringMapString("rpc") {
		c, err := guild.ParseChain(name)
		if err != nil {
			return config, fmt.Errorf("invalid rpc endpoint: %w", err)
		}
		config.rpc[c] = url
	}

	return config, nil
}

func rootAccount(s string) (guild.AccountID, error) {
	if s != "" {
		root, err := guild.HexToAccountID(s)
		if err != nil {
			return guild.AccountID{}, fmt.Errorf("invalid root account: %w", err)
		}
		return root, nil
	}
	var root guild.AccountID
	_, err := rand.Read(root[:])
	if err != nil {
		return guild.AccountID{}, fmt.Errorf("could not generate root account: %w", err)
	}
	log.Warn().Str("root", root.String()).Msg("no root account configured, using a random one")
	return root, nil
}

func operatorSeeds(encoded []string, count int) ([][]byte, error) {
	seeds := make([][]byte, 0, len(encoded))
	for i, s := range encoded {
		seed, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid operator seed %d: %w", i, err)
		}
		seeds = append(seeds, seed)
	}
	if len(seeds) > 0 {
		return seeds, nil
	}
	for i := 0; i < count; i++ {
		seed, err := randomSeed()
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, seed)
	}
	return seeds, nil
}

func run(ctx context.Context, config runConfig) error {
	db, err := badger.Open(badger.DefaultOptions(config.datadir).WithLogger(nil))
	if err != nil {
		return fmt.Errorf("could not open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("could not close database")
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	oracleMetrics := metrics.NewOracleCollector(registry)
	operatorMetrics := metrics.NewOperatorCollector(registry)
	cacheMetrics := metrics.NewCacheCollector(registry)

	ledger, err := chain.New(log, oracleMetrics, cacheMetrics, db, config.root, config.ledger)
	if err != nil {
		return fmt.Errorf("could not open ledger: %w", err)
	}

	balances, err := balanceQuerier(ctx, config, operatorMetrics, cacheMetrics)
	if err != nil {
		return err
	}
	lists, err := loadAllowlists(config.allowlists)
	if err != nil {
		return err
	}
	checker := requirements.NewChecker(balances, lists, config.policy)

	components := make([]module.ReadyDoneAware, 0, len(config.seeds)+1)
	for _, seed := range config.seeds {
		signer, err := newSigner(config.scheme, seed)
		if err != nil {
			return fmt.Errorf("invalid operator seed: %w", err)
		}
		err = ensureActive(ledger, signer)
		if err != nil {
			return err
		}
		eng := operator.New(log, operatorMetrics, ledger, signer, checker, cbor.NewEncoder(), config.operator)
		err = eng.WaitActive(ctx)
		if err != nil {
			return fmt.Errorf("operator %s did not become active: %w", signer.Account(), err)
		}
		components = append(components, eng)
	}
	if config.metricsPort > 0 {
		components = append(components, metrics.NewServer(log, config.metricsPort, registry, config.profiler))
	}

	<-util.AllReady(components...)
	log.Info().
		Str("root", config.root.String()).
		Int("operators", len(config.seeds)).
		Dur("block_time", config.blockTime).
		Msg("node started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return produceBlocks(gctx, ledger, config.blockTime)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := util.WaitClosed(shutdown, util.AllDone(components...))
		if err != nil {
			return fmt.Errorf("components did not stop in time: %w", err)
		}
		log.Info().Msg("node stopped")
		return nil
	})
	return g.Wait()
}

// produceBlocks advances the ledger by one block per tick until ctx ends.
func produceBlocks(ctx context.Context, ledger *chain.Ledger, blockTime time.Duration) error {
	ticker := time.NewTicker(blockTime)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_, err := ledger.AdvanceBlocks(1)
			if err != nil {
				return fmt.Errorf("could not produce block: %w", err)
			}
		}
	}
}

// ensureActive registers and activates the operator unless a previous run
// already did.
func ensureActive(ledger *chain.Ledger, signer signature.Signer) error {
	account := signer.Account()
	op, err := ledger.Operator(account)
	if errors.Is(err, oracle.ErrOperatorNotFound) {
		err = ledger.RegisterOperator(ledger.Root(), account)
		if err != nil {
			return fmt.Errorf("could not register operator %s: %w", account, err)
		}
		op = &guild.Operator{Account: account, Status: guild.OperatorRegistered}
	} else if err != nil {
		return fmt.Errorf("could not load operator %s: %w", account, err)
	}
	if op.Status == guild.OperatorActive {
		return nil
	}
	err = ledger.ActivateOperator(account)
	if err != nil {
		return fmt.Errorf("could not activate operator %s: %w", account, err)
	}
	return nil
}

// balanceQuerier dials every configured endpoint. Lookups are cached and
// retried; without endpoints every balance reads as zero.
func balanceQuerier(ctx context.Context, config runConfig, collector module.OperatorMetrics, cacheMetrics module.CacheMetrics) (balance.Querier, error) {
	if len(config.rpc) == 0 {
		log.Warn().Msg("no rpc endpoints configured, balances read as zero")
		return balance.NewStatic(), nil
	}

	readers := make(map[guild.Chain]balance.ChainReader, len(config.rpc))
	for c, url := range config.rpc {
		client, err := ethclient.DialContext(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("could not dial %s endpoint: %w", c, err)
		}
		readers[c] = client
		log.Info().Str("chain", c.String()).Msg("rpc endpoint configured")
	}

	cached := balance.NewCached(balance.NewEVM(readers), cacheMetrics, config.cacheSize, config.cacheTTL)
	return balance.NewRetrying(log, cached, collector, config.lookup), nil
}

func loadAllowlists(paths []string) (*allowlist.Registry, error) {
	registry := allowlist.NewRegistry()
	for _, path := range paths {
		list, err := readAllowlist(path)
		if err != nil {
			return nil, err
		}
		root := registry.Add(list)
		log.Info().
			Str("file", path).
			Str("root", root.String()).
			Uint64("entries", list.LeafCount()).
			Msg("allowlist loaded")
	}
	return registry, nil
}
