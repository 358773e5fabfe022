package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"
)

const (
	DefaultConfirmPollInterval = 2 * time.Second
	DefaultConfirmMaxAttempts  = 30
)

// Destination submits relay transactions to the L2 chain and waits for them to land.
type Destination struct {
	client       RPCClient
	commitment   rpc.CommitmentType
	pollInterval time.Duration
	maxAttempts  int
}

type DestinationOption func(*Destination)

func WithConfirmPolling(interval time.Duration, maxAttempts int) DestinationOption {
	return func(d *Destination) {
		d.pollInterval = interval
		d.maxAttempts = maxAttempts
	}
}

func NewDestination(client RPCClient, commitment rpc.CommitmentType, opts ...DestinationOption) *Destination {
	d := &Destination{
		client:       client,
		commitment:   commitment,
		pollInterval: DefaultConfirmPollInterval,
		maxAttempts:  DefaultConfirmMaxAttempts,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// LatestBlockhash returns the freshness token a relay transaction must carry.
func (d *Destination) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	out, err := d.client.GetLatestBlockhash(ctx, d.commitment)
	if err != nil {
		return solana.Hash{}, &TransportError{Op: "getLatestBlockhash", Err: err}
	}
	if out == nil || out.Value == nil {
		return solana.Hash{}, &TransportError{Op: "getLatestBlockhash", Err: fmt.Errorf("empty response")}
	}
	return out.Value.Blockhash, nil
}

// SubmitAndConfirm sends tx and polls its signature status until it reaches the
// configured commitment, fails on chain, or the attempts run out.
func (d *Destination) SubmitAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := d.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: d.commitment,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: %w", ErrSubmission, &TransportError{Op: "sendTransaction", Err: err})
	}
	log.Debug().Msgf("Relay tx sent, signature: %s, waiting for confirmation", sig)

	for attempt := 0; attempt < d.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return sig, fmt.Errorf("%w: %w", ErrSubmission, ctx.Err())
			case <-time.After(d.pollInterval):
			}
		}

		out, err := d.client.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			return sig, fmt.Errorf("%w: %w", ErrSubmission, &TransportError{Op: "getSignatureStatuses", Err: err})
		}
		if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
			continue
		}
		status := out.Value[0]
		if status.Err != nil {
			return sig, fmt.Errorf("%w: tx %s failed on chain: %v", ErrSubmission, sig, status.Err)
		}
		if d.reached(status.ConfirmationStatus) {
			log.Debug().Msgf("Relay tx %s reached %s in slot %d", sig, status.ConfirmationStatus, status.Slot)
			return sig, nil
		}
	}
	return sig, fmt.Errorf("%w: tx %s not confirmed after %d attempts", ErrSubmission, sig, d.maxAttempts)
}

func (d *Destination) reached(status rpc.ConfirmationStatusType) bool {
	switch d.commitment {
	case rpc.CommitmentFinalized:
		return status == rpc.ConfirmationStatusFinalized
	case rpc.CommitmentProcessed:
		return status != ""
	default:
		return status == rpc.ConfirmationStatusConfirmed || status == rpc.ConfirmationStatusFinalized
	}
}
