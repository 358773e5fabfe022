package relayer

import (
	"context"
	"fmt"
	"solana-bridge/pkg/metrics"
	"solana-bridge/pkg/pda"
	"solana-bridge/pkg/record"
	"solana-bridge/pkg/transactor"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"
)

const DefaultPollInterval = 1 * time.Second

type SourceReader interface {
	ReadAccount(ctx context.Context, address solana.PublicKey) ([]byte, error)
}

type DestinationWriter interface {
	transactor.BlockhashFetcher
	SubmitAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

type Options struct {
	Source         SourceReader
	Destination    DestinationWriter
	Builder        *transactor.Builder
	Deriver        *pda.Deriver
	Signer         solana.PrivateKey
	WatchedAccount solana.PublicKey
	Layout         record.Layout
	PollInterval   time.Duration
	Metrics        metrics.Recorder
}

// Relayer watches the L1 counter and relays every new event to L2, one at a time.
// It is not safe for concurrent use; a single goroutine drives Start.
type Relayer struct {
	source       SourceReader
	destination  DestinationWriter
	builder      *transactor.Builder
	deriver      *pda.Deriver
	signer       solana.PrivateKey
	watched      solana.PublicKey
	layout       record.Layout
	pollInterval time.Duration
	metrics      metrics.Recorder
	cursor       Cursor
}

func NewRelayer(opts *Options) *Relayer {
	r := &Relayer{
		source:       opts.Source,
		destination:  opts.Destination,
		builder:      opts.Builder,
		deriver:      opts.Deriver,
		signer:       opts.Signer,
		watched:      opts.WatchedAccount,
		layout:       opts.Layout,
		pollInterval: opts.PollInterval,
		metrics:      opts.Metrics,
	}
	if r.pollInterval <= 0 {
		r.pollInterval = DefaultPollInterval
	}
	if r.metrics == nil {
		r.metrics = metrics.Noop{}
	}
	return r
}

func (r *Relayer) Cursor() Cursor {
	return r.cursor
}

// Start polls until ctx is done or a poll fails. A failed poll is fatal to the
// run: the caller is expected to exit and an operator to restart the relayer.
func (r *Relayer) Start(ctx context.Context) error {
	log.Info().Msgf("Starting relayer for watched account %s, layout: %s, poll interval: %s",
		r.watched, r.layout.Name, r.pollInterval)

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		if err := r.Poll(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			log.Info().Msgf("Relayer shutting down, cursor: %s", r.cursor)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll reads the watched counter once and drains every event not yet relayed.
func (r *Relayer) Poll(ctx context.Context) error {
	data, err := r.source.ReadAccount(ctx, r.watched)
	if err != nil {
		return fmt.Errorf("failed to read watched account %s: %w", r.watched, err)
	}
	counter, err := r.layout.DecodeCounter(data)
	if err != nil {
		return fmt.Errorf("failed to decode counter of %s: %w", r.watched, err)
	}
	r.metrics.ObserveCounter(counter.Value)

	next := r.cursor.Next()
	switch {
	case counter.Value == next:
		return nil
	case counter.Value < next:
		log.Warn().Msgf("Source counter %d is behind next index %d, waiting for it to catch up",
			counter.Value, next)
		return nil
	}

	log.Info().Msgf("New events detected on source chain, indices %d to %d", next, counter.Value-1)
	return r.drain(ctx, next, counter.Value)
}

// drain relays [from, to) in order and stops at the first failure.
func (r *Relayer) drain(ctx context.Context, from, to uint64) error {
	for index := from; index < to; index++ {
		if err := r.relay(ctx, index); err != nil {
			r.metrics.RelayFailed(ctx, index)
			return fmt.Errorf("failed to relay event %d: %w", index, err)
		}
	}
	return nil
}
