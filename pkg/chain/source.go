package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Source reads raw account data from the L1 chain. Nothing is cached.
type Source struct {
	client     RPCClient
	commitment rpc.CommitmentType
}

func NewSource(client RPCClient, commitment rpc.CommitmentType) *Source {
	return &Source{client: client, commitment: commitment}
}

func (s *Source) Commitment() rpc.CommitmentType {
	return s.commitment
}

func (s *Source) ReadAccount(ctx context.Context, address solana.PublicKey) ([]byte, error) {
	out, err := s.client.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: s.commitment,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	if err != nil {
		return nil, &TransportError{Op: "getAccountInfo", Err: err}
	}
	if out == nil || out.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	return out.Value.Data.GetBinary(), nil
}
