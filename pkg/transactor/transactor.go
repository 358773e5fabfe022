package transactor

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"
)

// ErrBuild is returned when a relay transaction cannot be assembled.
var ErrBuild = errors.New("failed to build relay transaction")

// Account positions inside the relay_transfer instruction.
const (
	accountSigner = iota
	accountFixed
	accountNonce
	accountDestination
	accountSystemProgram
	numAccounts
)

const instructionDataLen = 8 + 8

// relayTransferDiscriminator is the anchor sighash of the L2 program's relay_transfer handler.
var relayTransferDiscriminator = func() []byte {
	sum := sha256.Sum256([]byte("global:relay_transfer"))
	return sum[:8]
}()

type BlockhashFetcher interface {
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
}

// Builder assembles relay_transfer transactions against the L2 program accounts.
type Builder struct {
	programID    solana.PublicKey
	fixedAccount solana.PublicKey
	nonceAccount solana.PublicKey
}

func NewBuilder(programID, fixedAccount, nonceAccount solana.PublicKey) *Builder {
	return &Builder{
		programID:    programID,
		fixedAccount: fixedAccount,
		nonceAccount: nonceAccount,
	}
}

// Build fetches a fresh blockhash and returns a relay_transfer transaction signed by signer.
func (b *Builder) Build(
	ctx context.Context,
	amount uint64,
	destination solana.PublicKey,
	signer solana.PrivateKey,
	fetcher BlockhashFetcher,
) (*solana.Transaction, error) {
	blockhash, err := fetcher.LatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get latest blockhash: %w", ErrBuild, err)
	}

	data, err := encodeInstructionData(amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuild, err)
	}

	payer := signer.PublicKey()
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(payer, true, true),
		solana.NewAccountMeta(b.fixedAccount, true, false),
		solana.NewAccountMeta(b.nonceAccount, true, false),
		solana.NewAccountMeta(destination, true, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}
	instruction := solana.NewInstruction(b.programID, accounts, data)

	tx, err := solana.NewTransaction(
		[]solana.Instruction{instruction},
		blockhash,
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuild, err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer) {
			return &signer
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to sign: %w", ErrBuild, err)
	}

	log.Debug().Msgf("Built relay transfer tx, amount: %d, destination: %s, blockhash: %s",
		amount, destination, blockhash)
	return tx, nil
}

func encodeInstructionData(amount uint64) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	if err := enc.WriteBytes(relayTransferDiscriminator, false); err != nil {
		return nil, err
	}
	if err := enc.WriteUint64(amount, binary.LittleEndian); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeTransfer extracts the amount and destination of the relay_transfer
// instruction carried by tx.
func DecodeTransfer(tx *solana.Transaction) (uint64, solana.PublicKey, error) {
	if len(tx.Message.Instructions) != 1 {
		return 0, solana.PublicKey{}, fmt.Errorf("expected 1 instruction, got %d", len(tx.Message.Instructions))
	}
	ix := tx.Message.Instructions[0]
	keys := tx.Message.AccountKeys

	if len(ix.Accounts) != numAccounts {
		return 0, solana.PublicKey{}, fmt.Errorf("expected %d accounts, got %d", numAccounts, len(ix.Accounts))
	}
	for _, a := range ix.Accounts {
		if int(a) >= len(keys) {
			return 0, solana.PublicKey{}, fmt.Errorf("account index %d out of range", a)
		}
	}

	data := []byte(ix.Data)
	if len(data) != instructionDataLen || !bytes.Equal(data[:8], relayTransferDiscriminator) {
		return 0, solana.PublicKey{}, fmt.Errorf("not a relay_transfer instruction")
	}
	amount, err := bin.NewBinDecoder(data[8:]).ReadUint64(binary.LittleEndian)
	if err != nil {
		return 0, solana.PublicKey{}, err
	}
	return amount, keys[ix.Accounts[accountDestination]], nil
}
