// Package assets resolves a decoded track descriptor to its on-disk song
// files and fetches them concurrently ahead of archival.
package assets

import "github.com/rpcpool/karaoke-archivist/dbf"

// Bundle holds the raw bytes of one song's assets. Exactly one of the EMK
// or NCN shapes is populated, matching the track's SubType.
type Bundle struct {
	SubType dbf.SubType

	EMK []byte // SubType == EMK

	Midi []byte // SubType == NCN
	Lyr  []byte // SubType == NCN
	Cur  []byte // SubType == NCN
}

// Resolvable reports whether the bundle carries everything required by its
// SubType: the single EMK file, or all three of midi/lyr/cur for NCN.
func (b *Bundle) Resolvable() bool {
	if b == nil {
		return false
	}
	switch b.SubType {
	case dbf.SubTypeEMK:
		return len(b.EMK) > 0
	case dbf.SubTypeNCN:
		return len(b.Midi) > 0 && len(b.Lyr) > 0 && len(b.Cur) > 0
	default:
		return false
	}
}
