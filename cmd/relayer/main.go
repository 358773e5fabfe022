package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"solana-bridge/pkg/chain"
	"solana-bridge/pkg/metrics"
	"solana-bridge/pkg/pda"
	"solana-bridge/pkg/record"
	"solana-bridge/pkg/relayer"
	"solana-bridge/pkg/transactor"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

var (
	optionConfig = &cli.StringFlag{
		Name:     "config",
		Usage:    "path to relayer config file",
		Required: false, // Can also set config via env var
		EnvVars:  []string{"SOLANA_BRIDGE_RELAYER_CONFIG"},
	}
)

func main() {
	app := &cli.App{
		Name:  "solana-bridge-relayer",
		Usage: "Entry point for relayer of the L1 to L2 solana bridge",
		Commands: []*cli.Command{
			{
				Name:  "start",
				Usage: "Start solana bridge relayer",
				Flags: []cli.Flag{
					optionConfig,
				},
				Action: func(c *cli.Context) error {
					return start(c)
				},
			},
		}}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(app.Writer, "exited with error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(logLevel string) {
	lvl, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse log level")
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func start(c *cli.Context) error {
	cfg, err := loadConfigFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config from env")
	}

	configFilePath := c.String(optionConfig.Name)
	if configFilePath == "" {
		log.Info().Msg("env var config will be used")
	} else {
		log.Info().Msg("overriding env var config with file: " + configFilePath)
		if err := loadConfigFromFile(&cfg, configFilePath); err != nil {
			log.Fatal().Err(err).Msg("failed to load config provided as file")
		}
	}

	if err := checkConfig(&cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	setupLogging(cfg.LogLevel)

	keypairFilePath, err := expandHome(cfg.KeypairFilePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve keypair path")
	}
	signer, err := solana.PrivateKeyFromSolanaKeygenFile(keypairFilePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load keypair")
	}
	log.Info().Msg("Relayer signing address: " + signer.PublicKey().String())

	// checkConfig validated every key and enum below
	watched := solana.MustPublicKeyFromBase58(cfg.WatchedAccount)
	layout, _ := record.ParseLayout(cfg.CounterLayout)
	commitment, _ := chain.ParseCommitment(cfg.Commitment)

	prom := metrics.NewPrometheus()
	recorders := metrics.Multi{prom}
	if apiKey := os.Getenv("DD_API_KEY"); apiKey != "" {
		log.Info().Msg("Datadog reporting enabled")
		recorders = append(recorders, metrics.NewDatadog(apiKey, os.Getenv("DD_APP_KEY"), cfg.DatadogTags))
	}

	r := relayer.NewRelayer(&relayer.Options{
		Source: chain.NewSource(rpc.New(cfg.L1RPCUrl), commitment),
		Destination: chain.NewDestination(
			rpc.New(cfg.L2RPCUrl),
			commitment,
			chain.WithConfirmPolling(cfg.ConfirmPollInterval, cfg.ConfirmMaxAttempts),
		),
		Builder: transactor.NewBuilder(
			solana.MustPublicKeyFromBase58(cfg.L2ProgramID),
			solana.MustPublicKeyFromBase58(cfg.FixedAccount),
			solana.MustPublicKeyFromBase58(cfg.NonceAccount),
		),
		Deriver:        pda.NewDeriver(solana.MustPublicKeyFromBase58(cfg.L1ProgramID), watched),
		Signer:         signer,
		WatchedAccount: watched,
		Layout:         layout,
		PollInterval:   cfg.PollInterval,
		Metrics:        recorders,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsClosed := prom.Serve(ctx, cfg.MetricsAddr)

	relayerErr := make(chan error, 1)
	go func() {
		relayerErr <- r.Start(ctx)
	}()

	interruptSigChan := make(chan os.Signal, 1)
	signal.Notify(interruptSigChan, os.Interrupt, syscall.SIGTERM)

	// Block until interrupt signal, relayer failure, OR context's Done channel is closed.
	select {
	case <-interruptSigChan:
	case <-c.Done():
	case err := <-relayerErr:
		cancel()
		<-metricsClosed
		log.Error().Msgf("relayer stopped at cursor %s, restart resumes from index 0", r.Cursor())
		return fmt.Errorf("relayer failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "shutting down...\n")

	cancel()
	closedAllSuccessfully := make(chan struct{})
	go func() {
		defer close(closedAllSuccessfully)
		<-relayerErr
		<-metricsClosed
	}()
	select {
	case <-closedAllSuccessfully:
	case <-time.After(5 * time.Second):
		log.Error().Msg("failed to close all in time")
	}

	return nil
}
