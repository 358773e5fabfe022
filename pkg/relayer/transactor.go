package relayer

import (
	"context"

	"github.com/rs/zerolog/log"
)

// relay moves the event at index to the destination chain. The cursor only
// advances once the destination confirms the transaction.
func (r *Relayer) relay(ctx context.Context, index uint64) error {
	addr, err := r.deriver.Derive(index)
	if err != nil {
		return err
	}

	data, err := r.source.ReadAccount(ctx, addr.Key)
	if err != nil {
		return err
	}
	rec, err := r.layout.DecodeTransferRecord(data)
	if err != nil {
		return err
	}
	if rec.EventIndex != index {
		log.Warn().Msgf("Record at %s carries event index %d, derived for index %d",
			addr.Key, rec.EventIndex, index)
	}

	log.Debug().Msgf("Transfer record fetched, index: %d, pda: %s, amount: %d, destination: %s, sender: %s, asset kind: %s",
		index, addr.Key, rec.Amount, rec.Destination, rec.Sender, rec.AssetKind)

	tx, err := r.builder.Build(ctx, rec.Amount, rec.Destination, r.signer, r.destination)
	if err != nil {
		return err
	}
	sig, err := r.destination.SubmitAndConfirm(ctx, tx)
	if err != nil {
		return err
	}

	if err := r.cursor.Advance(index); err != nil {
		return err
	}
	r.metrics.RelayConfirmed(ctx, index, rec.Amount)

	log.Info().Msgf("Transfer relayed to destination chain, index: %d, amount: %d, destination: %s, signature: %s",
		index, rec.Amount, rec.Destination, sig)
	return nil
}
