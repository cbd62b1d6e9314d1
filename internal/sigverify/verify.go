// Package sigverify checks that a listing was signed by the owner of a
// Bitcoin Cash (or SLP) address, using the Bitcoin signed-message scheme.
package sigverify

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const messageMagic = "Bitcoin Signed Message:\n"

const compactSigLen = 65

// Stage tells which input a VerificationError is about.
type Stage string

const (
	StageAddress   Stage = "address"
	StageSignature Stage = "signature"
)

// VerificationError is returned when an input cannot be parsed or the
// recovery primitive fails. It is distinct from a clean "does not match".
type VerificationError struct {
	Stage Stage
	Err   error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("sigverify: %s: %v", e.Stage, e.Err)
}

func (e *VerificationError) Unwrap() error { return e.Err }

// Verifier verifies BCH signed messages. The zero value is ready to use.
type Verifier struct{}

// New returns a Verifier.
func New() *Verifier { return &Verifier{} }

// Verify reports whether signature (base64, compact recoverable) was made
// over payload by the key behind ownerAddress.
func (Verifier) Verify(ownerAddress, signature, payload string) (bool, error) {
	addr, err := ParseAddress(ownerAddress)
	if err != nil {
		return false, &VerificationError{Stage: StageAddress, Err: err}
	}

	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false, &VerificationError{Stage: StageSignature, Err: err}
	}
	if len(sig) != compactSigLen {
		return false, &VerificationError{
			Stage: StageSignature,
			Err:   fmt.Errorf("signature is %d bytes, want %d", len(sig), compactSigLen),
		}
	}

	pub, compressed, err := ecdsa.RecoverCompact(sig, MessageHash(payload))
	if err != nil {
		return false, &VerificationError{Stage: StageSignature, Err: err}
	}

	var serialized []byte
	if compressed {
		serialized = pub.SerializeCompressed()
	} else {
		serialized = pub.SerializeUncompressed()
	}
	return bytes.Equal(btcutil.Hash160(serialized), addr.Hash[:]), nil
}

// MessageHash is the double-SHA256 digest signed by wallets for payload.
func MessageHash(payload string) []byte {
	var buf bytes.Buffer
	writeVarString(&buf, messageMagic)
	writeVarString(&buf, payload)
	return chainhash.DoubleHashB(buf.Bytes())
}

// SignMessage produces the base64 compact signature a wallet would emit for
// payload.
func SignMessage(priv *btcec.PrivateKey, compressed bool, payload string) (string, error) {
	sig, err := ecdsa.SignCompact(priv, MessageHash(payload), compressed)
	if err != nil {
		return "", fmt.Errorf("sigverify: sign: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// AddressOf returns the P2PKH address controlled by priv.
func AddressOf(priv *btcec.PrivateKey, compressed bool) Address {
	var serialized []byte
	if compressed {
		serialized = priv.PubKey().SerializeCompressed()
	} else {
		serialized = priv.PubKey().SerializeUncompressed()
	}
	var addr Address
	addr.Type = AddressP2PKH
	copy(addr.Hash[:], btcutil.Hash160(serialized))
	return addr
}

// writeVarString writes s prefixed by its Bitcoin CompactSize length.
func writeVarString(buf *bytes.Buffer, s string) {
	n := uint64(len(s))
	switch {
	case n < 0xfd:
		buf.WriteByte(byte(n))
	case n <= 0xffff:
		buf.WriteByte(0xfd)
		_ = binary.Write(buf, binary.LittleEndian, uint16(n))
	case n <= 0xffffffff:
		buf.WriteByte(0xfe)
		_ = binary.Write(buf, binary.LittleEndian, uint32(n))
	default:
		buf.WriteByte(0xff)
		_ = binary.Write(buf, binary.LittleEndian, n)
	}
	buf.WriteString(s)
}
