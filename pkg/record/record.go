package record

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

type AssetKind uint8

const (
	AssetNative AssetKind = iota
	AssetToken
	AssetNFT
)

func (k AssetKind) String() string {
	switch k {
	case AssetNative:
		return "Native"
	case AssetToken:
		return "Token"
	case AssetNFT:
		return "NFT"
	default:
		return "unknown"
	}
}

// ErrShortBuffer is returned when account data is too short for the layout being decoded.
var ErrShortBuffer = errors.New("account data too short")

// InvalidTagError reports an asset kind byte outside the known set.
type InvalidTagError struct {
	Tag byte
}

func (e *InvalidTagError) Error() string {
	return fmt.Sprintf("invalid asset kind tag: %d", e.Tag)
}

// ParseAssetKind is the only way an AssetKind is produced from on-chain bytes.
func ParseAssetKind(tag byte) (AssetKind, error) {
	switch AssetKind(tag) {
	case AssetNative, AssetToken, AssetNFT:
		return AssetKind(tag), nil
	default:
		return 0, &InvalidTagError{Tag: tag}
	}
}

// CounterState is the number of events emitted so far by the watched account.
type CounterState struct {
	Value uint64
}

// TransferRecord is the payload the L1 program stores at the derived address of one event.
type TransferRecord struct {
	Amount      uint64
	Destination solana.PublicKey
	Sender      solana.PublicKey
	EventIndex  uint64
	AssetKind   AssetKind
}
