package sigverify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// AddressType is the script type encoded in an address.
type AddressType uint8

const (
	AddressP2PKH AddressType = 0
	AddressP2SH  AddressType = 1
)

// Address is the canonical form every accepted encoding is reduced to.
type Address struct {
	Type AddressType
	Hash [20]byte
}

// Known CashAddr prefixes. SLP addresses share the payload of their
// bitcoincash counterpart and differ only in prefix and checksum.
const (
	PrefixBitcoinCash = "bitcoincash"
	PrefixSLP         = "simpleledger"
	PrefixBCHTest     = "bchtest"
	PrefixSLPTest     = "slptest"
)

var knownPrefixes = []string{PrefixBitcoinCash, PrefixSLP, PrefixBCHTest, PrefixSLPTest}

const cashCharset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

var cashCharsetRev = func() [128]int8 {
	var rev [128]int8
	for i := range rev {
		rev[i] = -1
	}
	for i, c := range cashCharset {
		rev[c] = int8(i)
	}
	return rev
}()

// legacy base58check version bytes (mainnet and testnet).
var legacyVersions = map[byte]AddressType{
	0x00: AddressP2PKH,
	0x05: AddressP2SH,
	0x6f: AddressP2PKH,
	0xc4: AddressP2SH,
}

var (
	errChecksum = errors.New("invalid checksum")
	errCharset  = errors.New("invalid character")
	errMixCase  = errors.New("mixed case")
)

// ParseAddress converts a CashAddr (with or without prefix, SLP or BCH) or a
// legacy base58check address to its canonical form.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Address{}, errors.New("empty address")
	}
	if strings.Contains(s, ":") {
		return decodeCashAddress(s)
	}
	if addr, err := decodeCashAddress(PrefixBitcoinCash + ":" + s); err == nil {
		return addr, nil
	}
	if addr, err := decodeCashAddress(PrefixSLP + ":" + s); err == nil {
		return addr, nil
	}
	return decodeLegacy(s)
}

func decodeLegacy(s string) (Address, error) {
	payload, version, err := base58.CheckDecode(s)
	if err != nil {
		return Address{}, fmt.Errorf("legacy address: %w", err)
	}
	typ, ok := legacyVersions[version]
	if !ok {
		return Address{}, fmt.Errorf("legacy address: unknown version 0x%02x", version)
	}
	if len(payload) != 20 {
		return Address{}, fmt.Errorf("legacy address: payload is %d bytes", len(payload))
	}
	var addr Address
	addr.Type = typ
	copy(addr.Hash[:], payload)
	return addr, nil
}

func decodeCashAddress(s string) (Address, error) {
	if strings.ToLower(s) != s && strings.ToUpper(s) != s {
		return Address{}, fmt.Errorf("cashaddr: %w", errMixCase)
	}
	s = strings.ToLower(s)

	prefix, body, _ := strings.Cut(s, ":")
	if !isKnownPrefix(prefix) {
		return Address{}, fmt.Errorf("cashaddr: unknown prefix %q", prefix)
	}
	if len(body) < 8+1 {
		return Address{}, fmt.Errorf("cashaddr: payload too short")
	}

	data := make([]byte, len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c >= 128 || cashCharsetRev[c] < 0 {
			return Address{}, fmt.Errorf("cashaddr: %w %q", errCharset, c)
		}
		data[i] = byte(cashCharsetRev[c])
	}

	if polymod(append(prefixData(prefix), data...)) != 0 {
		return Address{}, fmt.Errorf("cashaddr: %w", errChecksum)
	}

	payload, err := convertBits(data[:len(data)-8], 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("cashaddr: %w", err)
	}
	if len(payload) != 21 {
		return Address{}, fmt.Errorf("cashaddr: unsupported payload length %d", len(payload))
	}

	version := payload[0]
	if version&0x80 != 0 {
		return Address{}, fmt.Errorf("cashaddr: reserved version bit set")
	}
	if version&0x07 != 0 {
		return Address{}, fmt.Errorf("cashaddr: unsupported hash size")
	}

	var addr Address
	switch (version >> 3) & 0x0f {
	case 0:
		addr.Type = AddressP2PKH
	case 1:
		addr.Type = AddressP2SH
	default:
		return Address{}, fmt.Errorf("cashaddr: unknown type %d", (version>>3)&0x0f)
	}
	copy(addr.Hash[:], payload[1:])
	return addr, nil
}

// EncodeCashAddress renders addr with the given prefix.
func EncodeCashAddress(prefix string, addr Address) (string, error) {
	if !isKnownPrefix(prefix) {
		return "", fmt.Errorf("cashaddr: unknown prefix %q", prefix)
	}
	payload := make([]byte, 0, 21)
	payload = append(payload, byte(addr.Type)<<3)
	payload = append(payload, addr.Hash[:]...)

	data, err := convertBits(payload, 8, 5, true)
	if err != nil {
		return "", err
	}

	checkInput := append(prefixData(prefix), data...)
	checkInput = append(checkInput, make([]byte, 8)...)
	mod := polymod(checkInput)
	for i := 0; i < 8; i++ {
		data = append(data, byte((mod>>uint(5*(7-i)))&0x1f))
	}

	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteByte(':')
	for _, d := range data {
		sb.WriteByte(cashCharset[d])
	}
	return sb.String(), nil
}

func isKnownPrefix(p string) bool {
	for _, k := range knownPrefixes {
		if p == k {
			return true
		}
	}
	return false
}

// prefixData is the lower five bits of each prefix character followed by
// the zero separator.
func prefixData(prefix string) []byte {
	out := make([]byte, 0, len(prefix)+1)
	for i := 0; i < len(prefix); i++ {
		out = append(out, prefix[i]&0x1f)
	}
	return append(out, 0)
}

func polymod(values []byte) uint64 {
	c := uint64(1)
	for _, d := range values {
		c0 := byte(c >> 35)
		c = ((c & 0x07ffffffff) << 5) ^ uint64(d)
		if c0&0x01 != 0 {
			c ^= 0x98f2bc8e61
		}
		if c0&0x02 != 0 {
			c ^= 0x79b76d99e2
		}
		if c0&0x04 != 0 {
			c ^= 0xf33e5fb3c4
		}
		if c0&0x08 != 0 {
			c ^= 0xae2eabe2a8
		}
		if c0&0x10 != 0 {
			c ^= 0x1e4f43e470
		}
	}
	return c ^ 1
}

func convertBits(data []byte, from, to uint, pad bool) ([]byte, error) {
	var acc uint32
	var bits uint
	maxv := uint32(1)<<to - 1
	out := make([]byte, 0, len(data)*int(from)/int(to)+1)
	for _, v := range data {
		if uint32(v)>>from != 0 {
			return nil, fmt.Errorf("invalid %d-bit value %d", from, v)
		}
		acc = acc<<from | uint32(v)
		bits += from
		for bits >= to {
			bits -= to
			out = append(out, byte(acc>>bits&maxv))
		}
	}
	if pad {
		if bits > 0 {
			out = append(out, byte(acc<<(to-bits)&maxv))
		}
	} else if bits >= from || acc<<(to-bits)&maxv != 0 {
		return nil, errors.New("non-zero padding")
	}
	return out, nil
}
