package pda

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// MessageSeed prefixes the seeds of every per-event record account.
var MessageSeed = []byte("message")

type Address struct {
	Key  solana.PublicKey
	Bump uint8
}

func (a Address) String() string {
	return fmt.Sprintf("%s (bump %d)", a.Key, a.Bump)
}

// Seeds returns the program address seeds for the record of event index under base.
func Seeds(base solana.PublicKey, index uint64) [][]byte {
	idx := make([]byte, 8)
	binary.LittleEndian.PutUint64(idx, index)
	return [][]byte{MessageSeed, base.Bytes(), idx}
}

// Derive finds the record address of event index. The full 8 byte index is a seed,
// so two indices never share an address for the same program and base.
func Derive(programID, base solana.PublicKey, index uint64) (Address, error) {
	key, bump, err := solana.FindProgramAddress(Seeds(base, index), programID)
	if err != nil {
		return Address{}, fmt.Errorf("failed to derive record address for index %d: %w", index, err)
	}
	return Address{Key: key, Bump: bump}, nil
}

// Deriver binds the program and watched account so the relay loop only supplies the index.
type Deriver struct {
	programID solana.PublicKey
	base      solana.PublicKey
}

func NewDeriver(programID, base solana.PublicKey) *Deriver {
	return &Deriver{programID: programID, base: base}
}

func (d *Deriver) Derive(index uint64) (Address, error) {
	return Derive(d.programID, d.base, index)
}
