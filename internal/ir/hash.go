package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// DomainCall prefixes call identity hashes. The version suffix allows a
// later change of encoding.
const DomainCall = "bookledger/call/v1"

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CallKey is the content identity of a call: equal contract, function and
// arguments give equal keys. Argument boundaries are preserved, so
// ["a b"] and ["a", "b"] differ.
func CallKey(call Call) string {
	parts := make([]string, 0, len(call.Args)+2)
	parts = append(parts, call.Contract, call.Function)
	parts = append(parts, call.Args...)
	// A []string always marshals.
	data, _ := json.Marshal(parts)
	return hashWithDomain(DomainCall, data)
}
