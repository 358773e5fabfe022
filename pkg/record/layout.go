package record

import (
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

const (
	counterSize = 8
	// amount | destination | sender | event index | asset kind
	transferRecordSize = 8 + 32 + 32 + 8 + 1
)

// Layout describes where the L1 program places its fields inside account data.
// Two deployments of the L1 program exist: one writes raw structs, the other
// prefixes every account with an 8 byte anchor discriminator.
type Layout struct {
	Name   string
	Header int
}

var (
	LayoutRaw    = Layout{Name: "raw", Header: 0}
	LayoutAnchor = Layout{Name: "anchor", Header: 8}
)

func ParseLayout(name string) (Layout, error) {
	switch name {
	case LayoutRaw.Name:
		return LayoutRaw, nil
	case LayoutAnchor.Name:
		return LayoutAnchor, nil
	default:
		return Layout{}, fmt.Errorf("unknown counter layout %q, expected %q or %q",
			name, LayoutRaw.Name, LayoutAnchor.Name)
	}
}

func (l Layout) CounterMinLen() int {
	return l.Header + counterSize
}

func (l Layout) RecordMinLen() int {
	return l.Header + transferRecordSize
}

// DecodeCounter reads the little-endian u64 counter that follows the header.
func (l Layout) DecodeCounter(data []byte) (CounterState, error) {
	if len(data) < l.CounterMinLen() {
		return CounterState{}, fmt.Errorf("%w: counter needs %d bytes, got %d",
			ErrShortBuffer, l.CounterMinLen(), len(data))
	}
	dec := bin.NewBinDecoder(data[l.Header:])
	value, err := dec.ReadUint64(binary.LittleEndian)
	if err != nil {
		return CounterState{}, fmt.Errorf("%w: %v", ErrShortBuffer, err)
	}
	return CounterState{Value: value}, nil
}

func (l Layout) DecodeTransferRecord(data []byte) (TransferRecord, error) {
	if len(data) < l.RecordMinLen() {
		return TransferRecord{}, fmt.Errorf("%w: transfer record needs %d bytes, got %d",
			ErrShortBuffer, l.RecordMinLen(), len(data))
	}
	dec := bin.NewBinDecoder(data[l.Header:])

	var rec TransferRecord
	var err error
	if rec.Amount, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return TransferRecord{}, fmt.Errorf("%w: amount: %v", ErrShortBuffer, err)
	}
	dst, err := dec.ReadNBytes(32)
	if err != nil {
		return TransferRecord{}, fmt.Errorf("%w: destination: %v", ErrShortBuffer, err)
	}
	copy(rec.Destination[:], dst)
	sender, err := dec.ReadNBytes(32)
	if err != nil {
		return TransferRecord{}, fmt.Errorf("%w: sender: %v", ErrShortBuffer, err)
	}
	copy(rec.Sender[:], sender)
	if rec.EventIndex, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return TransferRecord{}, fmt.Errorf("%w: event index: %v", ErrShortBuffer, err)
	}
	tag, err := dec.ReadUint8()
	if err != nil {
		return TransferRecord{}, fmt.Errorf("%w: asset kind: %v", ErrShortBuffer, err)
	}
	if rec.AssetKind, err = ParseAssetKind(tag); err != nil {
		return TransferRecord{}, err
	}
	return rec, nil
}
