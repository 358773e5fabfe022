package pda

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	programID = solana.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")
	watched   = solana.MustPublicKeyFromBase58("SysvarC1ock11111111111111111111111111111111")
)

func TestDeriveDeterministic(t *testing.T) {
	d := NewDeriver(programID, watched)
	for _, idx := range []uint64{0, 1, 255, 256, 1 << 40, ^uint64(0)} {
		a, err := d.Derive(idx)
		require.NoError(t, err)
		b, err := Derive(programID, watched, idx)
		require.NoError(t, err)
		assert.Equal(t, a, b)

		// the derived key is a valid program address for the recorded bump
		seeds := append(Seeds(watched, idx), []byte{a.Bump})
		key, err := solana.CreateProgramAddress(seeds, programID)
		require.NoError(t, err)
		assert.Equal(t, a.Key, key)
	}
}

func TestDeriveDistinctIndices(t *testing.T) {
	d := NewDeriver(programID, watched)
	seen := make(map[solana.PublicKey]uint64)
	for idx := uint64(0); idx < 512; idx++ {
		a, err := d.Derive(idx)
		require.NoError(t, err)
		prev, dup := seen[a.Key]
		require.False(t, dup, "index %d collides with index %d", idx, prev)
		seen[a.Key] = idx
	}
}

func TestDeriveDependsOnBase(t *testing.T) {
	other := solana.MustPublicKeyFromBase58("SysvarRent111111111111111111111111111111111")
	a, err := Derive(programID, watched, 3)
	require.NoError(t, err)
	b, err := Derive(programID, other, 3)
	require.NoError(t, err)
	assert.NotEqual(t, a.Key, b.Key)
}

func TestSeeds(t *testing.T) {
	s := Seeds(watched, 0x0102)
	require.Len(t, s, 3)
	assert.Equal(t, []byte("message"), s[0])
	assert.Equal(t, watched.Bytes(), s[1])
	assert.Equal(t, []byte{0x02, 0x01, 0, 0, 0, 0, 0, 0}, s[2])
}
