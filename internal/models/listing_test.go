package models

import "testing"

func TestCategoryValid(t *testing.T) {
	for _, c := range Categories {
		if !c.Valid() {
			t.Errorf("%q should be valid", c)
		}
	}
	for _, c := range []Category{"", "pets", "BCH", " info "} {
		if c.Valid() {
			t.Errorf("%q should be invalid", c)
		}
	}
}

func TestListingRecordRoundTrip(t *testing.T) {
	l := Listing{Identifier: "id", Entry: "e", OwnerAddress: "a", Description: "d", Signature: "s", Category: CategoryIPFS}
	if got := ListingFromRecord(l.Record()); got != l {
		t.Errorf("round trip = %+v", got)
	}
}
