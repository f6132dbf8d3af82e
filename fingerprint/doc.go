// Package fingerprint derives deterministic cache keys from the semantic
// context of a generation request.
//
// The context is a closed, typed structure. Before hashing it is normalized:
// recent interaction ids are bounded, de-duplicated and sorted, map keys are
// ordered, and volatile fields (timestamps, session ids, nonces) are dropped
// at every nesting level. Two contexts that differ only in volatile fields
// produce the same key.
package fingerprint
