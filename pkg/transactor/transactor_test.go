package transactor

import (
	"context"
	"errors"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticBlockhash struct {
	hash solana.Hash
	err  error
}

func (s staticBlockhash) LatestBlockhash(context.Context) (solana.Hash, error) {
	return s.hash, s.err
}

func newTestBuilder() *Builder {
	return NewBuilder(
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
	)
}

func TestBuildRoundTrip(t *testing.T) {
	b := newTestBuilder()
	signer := solana.NewWallet().PrivateKey
	dest := solana.NewWallet().PublicKey()
	hash := solana.HashFromBytes([]byte("fresh blockhash for relay test!!"))

	tx, err := b.Build(context.Background(), 1000, dest, signer, staticBlockhash{hash: hash})
	require.NoError(t, err)

	amount, gotDest, err := DecodeTransfer(tx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), amount)
	assert.Equal(t, dest, gotDest)

	assert.Equal(t, hash, tx.Message.RecentBlockhash)
	require.Len(t, tx.Signatures, 1)
	assert.Equal(t, signer.PublicKey(), tx.Message.AccountKeys[0])
	require.NoError(t, tx.VerifySignatures())

	program, err := tx.Message.ResolveProgramIDIndex(tx.Message.Instructions[0].ProgramIDIndex)
	require.NoError(t, err)
	assert.Equal(t, b.programID, program)
}

func TestBuildSurvivesWireEncoding(t *testing.T) {
	b := newTestBuilder()
	signer := solana.NewWallet().PrivateKey
	dest := solana.NewWallet().PublicKey()

	tx, err := b.Build(context.Background(), 1<<63, dest, signer, staticBlockhash{})
	require.NoError(t, err)

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	decoded, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	require.NoError(t, err)

	amount, gotDest, err := DecodeTransfer(decoded)
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<63), amount)
	assert.Equal(t, dest, gotDest)
}

func TestBuildFailsWithoutBlockhash(t *testing.T) {
	b := newTestBuilder()
	rpcErr := errors.New("connection refused")

	_, err := b.Build(context.Background(), 1, solana.NewWallet().PublicKey(),
		solana.NewWallet().PrivateKey, staticBlockhash{err: rpcErr})
	require.ErrorIs(t, err, ErrBuild)
	require.ErrorIs(t, err, rpcErr)
}

func TestDecodeTransferRejectsForeignInstruction(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	ix := solana.NewInstruction(
		solana.SystemProgramID,
		solana.AccountMetaSlice{solana.NewAccountMeta(payer, true, true)},
		[]byte{2, 0, 0, 0},
	)
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{}, solana.TransactionPayer(payer))
	require.NoError(t, err)

	_, _, err = DecodeTransfer(tx)
	require.Error(t, err)
}
