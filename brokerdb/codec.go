package brokerdb

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/swaparoo/swaparoo/asset"
)

// itob returns an 8-byte big endian representation of v.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	byteOrder.PutUint64(b, v)
	return b
}

// btoi returns the uint64 represented by the 8-byte big endian slice b.
func btoi(b []byte) uint64 {
	return byteOrder.Uint64(b)
}

func writeUint64(w io.Writer, v uint64) error {
	_, err := w.Write(itob(v))
	return err
}

func readUint64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return btoi(b[:]), nil
}

func writeString(w io.Writer, s string) error {
	if len(s) > math.MaxUint32 {
		return fmt.Errorf("string too long: %d bytes", len(s))
	}
	var lenBytes [4]byte
	byteOrder.PutUint32(lenBytes[:], uint32(len(s)))
	if _, err := w.Write(lenBytes[:]); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var lenBytes [4]byte
	if _, err := io.ReadFull(r, lenBytes[:]); err != nil {
		return "", err
	}
	b := make([]byte, byteOrder.Uint32(lenBytes[:]))
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

// writeAmount serializes an amount as kind, class and either the unit count
// or the bag entries in stable order.
func writeAmount(w io.Writer, amt asset.Amount) error {
	if err := writeString(w, string(amt.Kind())); err != nil {
		return err
	}
	if _, err := w.Write([]byte{byte(amt.Class())}); err != nil {
		return err
	}

	if amt.Class() == asset.ClassFungible {
		return writeUint64(w, amt.Units())
	}

	bag := amt.Bag()
	names := make([]string, 0, len(bag))
	for name := range bag {
		names = append(names, name)
	}
	sort.Strings(names)

	if err := writeUint64(w, uint64(len(names))); err != nil {
		return err
	}
	for _, name := range names {
		if err := writeString(w, name); err != nil {
			return err
		}
		if err := writeUint64(w, bag[name]); err != nil {
			return err
		}
	}
	return nil
}

func readAmount(r io.Reader) (asset.Amount, error) {
	kind, err := readString(r)
	if err != nil {
		return asset.Amount{}, err
	}

	var classByte [1]byte
	if _, err := io.ReadFull(r, classByte[:]); err != nil {
		return asset.Amount{}, err
	}

	switch asset.Class(classByte[0]) {
	case asset.ClassFungible:
		units, err := readUint64(r)
		if err != nil {
			return asset.Amount{}, err
		}
		return asset.NewAmount(asset.Kind(kind), units), nil

	case asset.ClassBag:
		count, err := readUint64(r)
		if err != nil {
			return asset.Amount{}, err
		}
		bag := make(asset.Bag, count)
		for i := uint64(0); i < count; i++ {
			name, err := readString(r)
			if err != nil {
				return asset.Amount{}, err
			}
			itemCount, err := readUint64(r)
			if err != nil {
				return asset.Amount{}, err
			}
			bag[name] = itemCount
		}
		return asset.NewBagAmount(asset.Kind(kind), bag), nil

	default:
		return asset.Amount{}, fmt.Errorf("unknown amount class %d",
			classByte[0])
	}
}

// writeAllocation serializes an allocation with keywords in stable order.
func writeAllocation(w io.Writer, alloc asset.Allocation) error {
	keywords := make([]string, 0, len(alloc))
	for kw := range alloc {
		keywords = append(keywords, string(kw))
	}
	sort.Strings(keywords)

	if err := writeUint64(w, uint64(len(keywords))); err != nil {
		return err
	}
	for _, kw := range keywords {
		if err := writeString(w, kw); err != nil {
			return err
		}
		if err := writeAmount(w, alloc[asset.Keyword(kw)]); err != nil {
			return err
		}
	}
	return nil
}

func readAllocation(r io.Reader) (asset.Allocation, error) {
	count, err := readUint64(r)
	if err != nil {
		return nil, err
	}

	alloc := make(asset.Allocation, count)
	for i := uint64(0); i < count; i++ {
		kw, err := readString(r)
		if err != nil {
			return nil, err
		}
		amt, err := readAmount(r)
		if err != nil {
			return nil, err
		}
		alloc[asset.Keyword(kw)] = amt
	}
	return alloc, nil
}

// serializeContract encodes a swap contract for storage.
func serializeContract(contract *SwapContract) ([]byte, error) {
	var b bytes.Buffer

	if err := writeUint64(
		&b, uint64(contract.InitiationTime.UnixNano()),
	); err != nil {
		return nil, err
	}
	if err := writeAmount(&b, contract.FeeAmount); err != nil {
		return nil, err
	}
	if err := writeAllocation(&b, contract.Give); err != nil {
		return nil, err
	}
	if err := writeAllocation(&b, contract.Want); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// deserializeContract decodes a swap contract from storage.
func deserializeContract(value []byte) (*SwapContract, error) {
	r := bytes.NewReader(value)

	unixNano, err := readUint64(r)
	if err != nil {
		return nil, err
	}
	feeAmount, err := readAmount(r)
	if err != nil {
		return nil, err
	}
	give, err := readAllocation(r)
	if err != nil {
		return nil, err
	}
	want, err := readAllocation(r)
	if err != nil {
		return nil, err
	}

	return &SwapContract{
		InitiationTime: time.Unix(0, int64(unixNano)).UTC(),
		FeeAmount:      feeAmount,
		Give:           give,
		Want:           want,
	}, nil
}

// serializeUpdate encodes a single state update log entry.
func serializeUpdate(updateTime time.Time, state SwapState) ([]byte, error) {
	var b bytes.Buffer

	if err := writeUint64(&b, uint64(updateTime.UnixNano())); err != nil {
		return nil, err
	}
	if _, err := b.Write([]byte{byte(state)}); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// deserializeUpdate decodes a single state update log entry.
func deserializeUpdate(value []byte) (SwapUpdate, error) {
	r := bytes.NewReader(value)

	unixNano, err := readUint64(r)
	if err != nil {
		return SwapUpdate{}, err
	}

	var stateByte [1]byte
	if _, err := io.ReadFull(r, stateByte[:]); err != nil {
		return SwapUpdate{}, err
	}

	return SwapUpdate{
		Time:  time.Unix(0, int64(unixNano)).UTC(),
		State: SwapState(stateByte[0]),
	}, nil
}
