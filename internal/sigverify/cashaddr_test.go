package sigverify

import (
	"strings"
	"testing"
)

func TestParseAddress_SLPAndCashShareHash(t *testing.T) {
	slp, err := ParseAddress(sampleAddress)
	if err != nil {
		t.Fatalf("ParseAddress(slp): %v", err)
	}
	if slp.Type != AddressP2PKH {
		t.Errorf("type = %d, want P2PKH", slp.Type)
	}

	cash, err := EncodeCashAddress(PrefixBitcoinCash, slp)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(cash, "bitcoincash:q") {
		t.Errorf("unexpected cash address %q", cash)
	}
	back, err := ParseAddress(cash)
	if err != nil {
		t.Fatalf("ParseAddress(cash): %v", err)
	}
	if back != slp {
		t.Error("slp and cash forms decode to different hashes")
	}
}

func TestEncodeCashAddress_RoundTripsSample(t *testing.T) {
	addr, err := ParseAddress(sampleAddress)
	if err != nil {
		t.Fatal(err)
	}
	got, err := EncodeCashAddress(PrefixSLP, addr)
	if err != nil {
		t.Fatal(err)
	}
	if got != sampleAddress {
		t.Errorf("re-encoded = %q, want %q", got, sampleAddress)
	}
}

func TestParseAddress_NoPrefix(t *testing.T) {
	body := strings.TrimPrefix(sampleAddress, "simpleledger:")
	addr, err := ParseAddress(body)
	if err != nil {
		t.Fatalf("ParseAddress(no prefix): %v", err)
	}
	want, _ := ParseAddress(sampleAddress)
	if addr != want {
		t.Error("prefix-less address decoded to a different hash")
	}
}

func TestParseAddress_UpperCase(t *testing.T) {
	if _, err := ParseAddress(strings.ToUpper(sampleAddress)); err != nil {
		t.Errorf("upper-case address rejected: %v", err)
	}
}

func TestParseAddress_Rejects(t *testing.T) {
	bad := []string{
		"",
		"simpleledger:qp49th03gvjn58d6fxzaga6u09w4z56smyuk43lzke", // checksum
		"SimpleLedger:qp49th03gvjn58d6fxzaga6u09w4z56smyuk43lzkd", // mixed case
		"dogecoin:qp49th03gvjn58d6fxzaga6u09w4z56smyuk43lzkd",     // prefix
		"simpleledger:qp49th03gvjn58d6fxzaga6u09w4z56smyuk43lzkb", // charset ('b')
		"1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNb",                      // base58 checksum
	}
	for _, s := range bad {
		if _, err := ParseAddress(s); err == nil {
			t.Errorf("ParseAddress(%q) should fail", s)
		}
	}
}

func TestParseAddress_Legacy(t *testing.T) {
	// Satoshi's genesis address.
	addr, err := ParseAddress("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa")
	if err != nil {
		t.Fatalf("legacy: %v", err)
	}
	if addr.Type != AddressP2PKH {
		t.Errorf("type = %d", addr.Type)
	}
}
