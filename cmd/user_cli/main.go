package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"solana-bridge/pkg/chain"
	"solana-bridge/pkg/pda"
	"solana-bridge/pkg/record"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v2"
)

var (
	optionConfig = &cli.StringFlag{
		Name:     "config",
		Usage:    "path to CLI config file",
		Required: true,
		EnvVars:  []string{"SOLANA_BRIDGE_CLI_CONFIG"},
	}
	optionIndex = &cli.Uint64Flag{
		Name:     "index",
		Usage:    "Event index on the L1 program",
		Required: true,
	}
)

func main() {
	app := &cli.App{
		Name:  "bridge-cli",
		Usage: "CLI for inspecting the L1 side of the solana bridge",
		Commands: []*cli.Command{
			{
				Name:  "derive-address",
				Usage: "Print the record address and bump seed of an event index",
				Flags: []cli.Flag{optionIndex, optionConfig},
				Action: func(c *cli.Context) error {
					return deriveAddress(c)
				},
			},
			{
				Name:  "read-counter",
				Usage: "Print the event counter stored in the watched account",
				Flags: []cli.Flag{optionConfig},
				Action: func(c *cli.Context) error {
					return readCounter(c)
				},
			},
			{
				Name:  "inspect-record",
				Usage: "Fetch and decode the transfer record of an event index",
				Flags: []cli.Flag{optionIndex, optionConfig},
				Action: func(c *cli.Context) error {
					return inspectRecord(c)
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(app.Writer, "Exited with error: %v\n", err)
		os.Exit(1)
	}
}

func deriveAddress(c *cli.Context) error {
	env := preInspect(c)
	addr, err := env.deriver.Derive(c.Uint64(optionIndex.Name))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "address: %s\nbump: %d\n", addr.Key, addr.Bump)
	return nil
}

func readCounter(c *cli.Context) error {
	env := preInspect(c)
	data, err := env.source.ReadAccount(c.Context, env.watched)
	if err != nil {
		return err
	}
	counter, err := env.layout.DecodeCounter(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "counter: %d\n", counter.Value)
	return nil
}

func inspectRecord(c *cli.Context) error {
	env := preInspect(c)
	rec, addr, err := fetchRecord(c.Context, env, c.Uint64(optionIndex.Name))
	if err != nil {
		return err
	}
	printRecord(c.App.Writer, addr, rec)
	return nil
}

func fetchRecord(ctx context.Context, env inspectEnv, index uint64) (record.TransferRecord, pda.Address, error) {
	addr, err := env.deriver.Derive(index)
	if err != nil {
		return record.TransferRecord{}, pda.Address{}, err
	}
	data, err := env.source.ReadAccount(ctx, addr.Key)
	if err != nil {
		return record.TransferRecord{}, addr, err
	}
	rec, err := env.layout.DecodeTransferRecord(data)
	return rec, addr, err
}

func printRecord(w io.Writer, addr pda.Address, rec record.TransferRecord) {
	fmt.Fprintf(w, "address:     %s\n", addr)
	fmt.Fprintf(w, "event index: %d\n", rec.EventIndex)
	fmt.Fprintf(w, "amount:      %d\n", rec.Amount)
	fmt.Fprintf(w, "destination: %s\n", rec.Destination)
	fmt.Fprintf(w, "sender:      %s\n", rec.Sender)
	fmt.Fprintf(w, "asset kind:  %s\n", rec.AssetKind)
}

type inspectEnv struct {
	source  *chain.Source
	deriver *pda.Deriver
	watched solana.PublicKey
	layout  record.Layout
}

func preInspect(c *cli.Context) inspectEnv {
	configFilePath := c.String(optionConfig.Name)

	var cfg config
	buf, err := os.ReadFile(configFilePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read config file at: " + configFilePath)
	}

	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to unmarshal config file at: " + configFilePath)
	}

	if err := checkConfig(&cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse log level")
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	return newInspectEnv(cfg)
}

func newInspectEnv(cfg config) inspectEnv {
	watched := solana.MustPublicKeyFromBase58(cfg.WatchedAccount)
	layout, _ := record.ParseLayout(cfg.CounterLayout)
	commitment, _ := chain.ParseCommitment(cfg.Commitment)
	return inspectEnv{
		source:  chain.NewSource(rpc.New(cfg.L1RPCUrl), commitment),
		deriver: pda.NewDeriver(solana.MustPublicKeyFromBase58(cfg.L1ProgramID), watched),
		watched: watched,
		layout:  layout,
	}
}

type config struct {
	LogLevel       string `yaml:"log_level" json:"log_level"`
	L1RPCUrl       string `yaml:"l1_rpc_url"`
	WatchedAccount string `yaml:"watched_account"`
	L1ProgramID    string `yaml:"l1_program_id"`
	CounterLayout  string `yaml:"counter_layout"`
	Commitment     string `yaml:"commitment"`
}

func checkConfig(cfg *config) error {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.L1RPCUrl == "" {
		return fmt.Errorf("l1_rpc_url is required")
	}
	if _, err := solana.PublicKeyFromBase58(cfg.WatchedAccount); err != nil {
		return fmt.Errorf("watched_account must be a valid base58 public key: %w", err)
	}
	if _, err := solana.PublicKeyFromBase58(cfg.L1ProgramID); err != nil {
		return fmt.Errorf("l1_program_id must be a valid base58 public key: %w", err)
	}
	if cfg.CounterLayout == "" {
		cfg.CounterLayout = record.LayoutRaw.Name
	}
	if _, err := record.ParseLayout(cfg.CounterLayout); err != nil {
		return err
	}
	if cfg.Commitment == "" {
		cfg.Commitment = string(rpc.CommitmentConfirmed)
	}
	if _, err := chain.ParseCommitment(cfg.Commitment); err != nil {
		return err
	}
	return nil
}
