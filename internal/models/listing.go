// Package models defines the domain types for torlist.
package models

import "time"

// Category is the fixed set a listing can be filed under.
type Category string

const (
	CategoryBCH       Category = "bch"
	CategoryECommerce Category = "ecommerce"
	CategoryInfo      Category = "info"
	CategoryETH       Category = "eth"
	CategoryIPFS      Category = "ipfs"
)

// Categories lists every accepted category in display order.
var Categories = []Category{CategoryBCH, CategoryECommerce, CategoryInfo, CategoryETH, CategoryIPFS}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Record keys used on the append-only log.
const (
	FieldID          = "_id"
	FieldEntry       = "entry"
	FieldSLPAddress  = "slpAddress"
	FieldDescription = "description"
	FieldSignature   = "signature"
	FieldCategory    = "category"
)

// Listing is one directory entry as stored on the log.
type Listing struct {
	Identifier   string   `json:"_id"`
	Entry        string   `json:"entry"`
	OwnerAddress string   `json:"slpAddress"`
	Description  string   `json:"description"`
	Signature    string   `json:"signature"`
	Category     Category `json:"category"`
}

// Record flattens l into the string map written to the log.
func (l Listing) Record() map[string]string {
	return map[string]string{
		FieldID:          l.Identifier,
		FieldEntry:       l.Entry,
		FieldSLPAddress:  l.OwnerAddress,
		FieldDescription: l.Description,
		FieldSignature:   l.Signature,
		FieldCategory:    string(l.Category),
	}
}

// ListingFromRecord is the inverse of Listing.Record. Missing keys become
// empty fields; records are not validated on read.
func ListingFromRecord(r map[string]string) Listing {
	return Listing{
		Identifier:   r[FieldID],
		Entry:        r[FieldEntry],
		OwnerAddress: r[FieldSLPAddress],
		Description:  r[FieldDescription],
		Signature:    r[FieldSignature],
		Category:     Category(r[FieldCategory]),
	}
}

// DenylistEntry suppresses the listing whose Identifier equals Hash.
type DenylistEntry struct {
	ID        string    `json:"_id"`
	Hash      string    `json:"hash"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
