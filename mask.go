package silo

import "github.com/TheBitDrifter/mask"

// ArchetypeMask is the bitset identity of an archetype: bit i is set
// iff the archetype carries the component whose CTID is i (spec §2).
// CTIDs double as mask.Mask256 bit positions exactly like the
// teacher's Mask-per-archetype technique in storage.go/query.go,
// widened from mask.Mask (64 bits) to mask.Mask256 so the default
// Config.MaxComponents of 256 fits without a config bump.
type ArchetypeMask = mask.Mask256

// maskFromCTIDs builds an ArchetypeMask from a CTID set. Transitions
// (add/remove component) are computed on ordinary sorted []CTID slices
// rather than on the opaque mask type, then rebuilt into a mask once
// the new CTID set is known.
func maskFromCTIDs(ctids []CTID) ArchetypeMask {
	var m ArchetypeMask
	for _, id := range ctids {
		m.Mark(int(id))
	}
	return m
}

// ctidsWithAdded returns a new sorted CTID slice with id inserted,
// or the original slice if id is already present.
func ctidsWithAdded(ctids []CTID, id CTID) []CTID {
	for _, existing := range ctids {
		if existing == id {
			return ctids
		}
	}
	out := make([]CTID, len(ctids)+1)
	copy(out, ctids)
	out[len(ctids)] = id
	return sortCTIDs(out)
}

// ctidsWithRemoved returns a new sorted CTID slice with id removed.
func ctidsWithRemoved(ctids []CTID, id CTID) []CTID {
	out := make([]CTID, 0, len(ctids))
	for _, existing := range ctids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

func sortCTIDs(ctids []CTID) []CTID {
	for i := 1; i < len(ctids); i++ {
		for j := i; j > 0 && ctids[j-1] > ctids[j]; j-- {
			ctids[j-1], ctids[j] = ctids[j], ctids[j-1]
		}
	}
	return ctids
}
