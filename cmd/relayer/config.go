package main

import (
	"fmt"
	"os"
	"path/filepath"
	"solana-bridge/pkg/chain"
	"solana-bridge/pkg/record"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v2"
)

type config struct {
	KeypairFilePath     string        `yaml:"keypair_file_path" json:"keypair_file_path"`
	LogLevel            string        `yaml:"log_level" json:"log_level"`
	L1RPCUrl            string        `yaml:"l1_rpc_url" json:"l1_rpc_url"`
	L2RPCUrl            string        `yaml:"l2_rpc_url" json:"l2_rpc_url"`
	WatchedAccount      string        `yaml:"watched_account" json:"watched_account"`
	L1ProgramID         string        `yaml:"l1_program_id" json:"l1_program_id"`
	L2ProgramID         string        `yaml:"l2_program_id" json:"l2_program_id"`
	FixedAccount        string        `yaml:"fixed_account" json:"fixed_account"`
	NonceAccount        string        `yaml:"nonce_account" json:"nonce_account"`
	CounterLayout       string        `yaml:"counter_layout" json:"counter_layout"`
	Commitment          string        `yaml:"commitment" json:"commitment"`
	PollInterval        time.Duration `yaml:"poll_interval" json:"poll_interval"`
	ConfirmPollInterval time.Duration `yaml:"confirm_poll_interval" json:"confirm_poll_interval"`
	ConfirmMaxAttempts  int           `yaml:"confirm_max_attempts" json:"confirm_max_attempts"`
	MetricsAddr         string        `yaml:"metrics_addr" json:"metrics_addr"`
	DatadogTags         []string      `yaml:"datadog_tags" json:"datadog_tags"`
}

const (
	defaultLogLevel            = "info"
	defaultCounterLayout       = "raw"
	defaultCommitment          = "confirmed"
	defaultPollInterval        = 1 * time.Second
	defaultConfirmPollInterval = 2 * time.Second
	defaultConfirmMaxAttempts  = 30
	defaultMetricsAddr         = ":8080"
)

func loadConfigFromEnv() (config, error) {
	cfg := config{
		KeypairFilePath: os.Getenv("KEYPAIR_FILE_PATH"),
		LogLevel:        os.Getenv("LOG_LEVEL"),
		L1RPCUrl:        os.Getenv("L1_RPC_URL"),
		L2RPCUrl:        os.Getenv("L2_RPC_URL"),
		WatchedAccount:  os.Getenv("WATCHED_ACCOUNT"),
		L1ProgramID:     os.Getenv("L1_PROGRAM_ID"),
		L2ProgramID:     os.Getenv("L2_PROGRAM_ID"),
		FixedAccount:    os.Getenv("FIXED_ACCOUNT"),
		NonceAccount:    os.Getenv("NONCE_ACCOUNT"),
		CounterLayout:   os.Getenv("COUNTER_LAYOUT"),
		Commitment:      os.Getenv("COMMITMENT"),
		MetricsAddr:     os.Getenv("METRICS_ADDR"),
	}
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("POLL_INTERVAL must be a duration such as 1s, got %q: %w", v, err)
		}
		cfg.PollInterval = d
	}
	return cfg, nil
}

func loadConfigFromFile(cfg *config, filePath string) error {
	buf, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file at: %s, %w", filePath, err)
	}
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config file at: %s, %w", filePath, err)
	}
	return nil
}

func checkConfig(cfg *config) error {
	if cfg.KeypairFilePath == "" {
		return fmt.Errorf("keypair_file_path is required")
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}

	if cfg.L1RPCUrl == "" {
		return fmt.Errorf("l1_rpc_url is required")
	}

	if cfg.L2RPCUrl == "" {
		return fmt.Errorf("l2_rpc_url is required")
	}

	for name, v := range map[string]string{
		"watched_account": cfg.WatchedAccount,
		"l1_program_id":   cfg.L1ProgramID,
		"l2_program_id":   cfg.L2ProgramID,
		"fixed_account":   cfg.FixedAccount,
		"nonce_account":   cfg.NonceAccount,
	} {
		if v == "" {
			return fmt.Errorf("%s is required", name)
		}
		if _, err := solana.PublicKeyFromBase58(v); err != nil {
			return fmt.Errorf("%s is not a valid public key: %w", name, err)
		}
	}

	if cfg.CounterLayout == "" {
		cfg.CounterLayout = defaultCounterLayout
	}
	if _, err := record.ParseLayout(cfg.CounterLayout); err != nil {
		return err
	}

	if cfg.Commitment == "" {
		cfg.Commitment = defaultCommitment
	}
	if _, err := chain.ParseCommitment(cfg.Commitment); err != nil {
		return err
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.ConfirmPollInterval <= 0 {
		cfg.ConfirmPollInterval = defaultConfirmPollInterval
	}
	if cfg.ConfirmMaxAttempts <= 0 {
		cfg.ConfirmMaxAttempts = defaultConfirmMaxAttempts
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = defaultMetricsAddr
	}

	return nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home dir: %w", err)
	}
	return filepath.Join(homeDir, path[2:]), nil
}
