// Package liveaction encodes the claim button id that routes a live
// broadcast tap back to one (seller, product) ledger key. Segments are
// base64url so arbitrary seller ids round-trip unambiguously.
package liveaction

import (
	"encoding/base64"
	"strings"
)

const prefix = "claim."

var enc = base64.RawURLEncoding

// Encode builds the opaque claim action id for a ledger key.
func Encode(sellerID, productCode string) string {
	return prefix + enc.EncodeToString([]byte(sellerID)) + "." + enc.EncodeToString([]byte(productCode))
}

// Decode recovers the ledger key from an action id. ok is false for
// anything that is not a well-formed claim id.
func Decode(actionID string) (sellerID, productCode string, ok bool) {
	rest, found := strings.CutPrefix(actionID, prefix)
	if !found {
		return "", "", false
	}
	parts := strings.Split(rest, ".")
	if len(parts) != 2 {
		return "", "", false
	}
	seller, err := enc.DecodeString(parts[0])
	if err != nil {
		return "", "", false
	}
	code, err := enc.DecodeString(parts[1])
	if err != nil {
		return "", "", false
	}
	if len(seller) == 0 || len(code) == 0 {
		return "", "", false
	}
	return string(seller), string(code), true
}

// IsClaim reports whether an action id looks like a claim without decoding it.
func IsClaim(actionID string) bool {
	return strings.HasPrefix(actionID, prefix)
}
