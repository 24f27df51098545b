package utils

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
)

// MsatToSat converts a millisatoshi amount to whole satoshis, truncating
func MsatToSat(msat int64) int64 {
	return msat / 1000
}

// FormatMsat formats a millisatoshi amount in a human-readable way, scaling
// the unit with the magnitude
func FormatMsat(msat int64) string {
	sats := MsatToSat(msat)
	if sats >= 100000000 {
		// Show in BTC for amounts >= 1 BTC
		return btcutil.Amount(sats).Format(btcutil.AmountBTC)
	} else if sats >= 1000000 {
		return fmt.Sprintf("%.2fM sats", float64(sats)/1000000)
	} else if sats >= 1000 {
		return fmt.Sprintf("%.1fK sats", float64(sats)/1000)
	}
	return fmt.Sprintf("%d sats", sats)
}

// ValidateNodeID checks that a node id is a valid compressed secp256k1
// public key, the form lightning node ids take on the wire
func ValidateNodeID(nodeID string) bool {
	raw, err := hex.DecodeString(nodeID)
	if err != nil {
		return false
	}
	if len(raw) != 33 {
		return false
	}
	_, err = btcec.ParsePubKey(raw)
	return err == nil
}

// TruncateNodeID shortens a node id for display when no alias is known
func TruncateNodeID(nodeID string) string {
	if len(nodeID) > 12 {
		return nodeID[:12] + "..."
	}
	return nodeID
}
