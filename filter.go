package nostr

// Filter is a NIP-01 subscription filter. A zero field means "match
// anything"; multiple values within a field are ORed, and fields are ANDed.
//
// The relay transport carries filters verbatim; Matches lets clients re-check
// delivered events against the filter they subscribed with.
type Filter struct {
	IDs     []string `json:"ids,omitempty"`
	Authors []string `json:"authors,omitempty"`
	Kinds   []int    `json:"kinds,omitempty"`
	ETags   []string `json:"#e,omitempty"`
	PTags   []string `json:"#p,omitempty"`
	TTags   []string `json:"#t,omitempty"`
	DTags   []string `json:"#d,omitempty"`
	Since   int64    `json:"since,omitempty"`
	Until   int64    `json:"until,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}

// Matches reports whether the event satisfies every constraint of the filter.
// Limit is a relay-side bound and is ignored here.
func (f *Filter) Matches(e *Event) bool {
	if len(f.IDs) > 0 && !contains(f.IDs, e.ID) {
		return false
	}

	if len(f.Authors) > 0 && !contains(f.Authors, e.PubKey) {
		return false
	}

	if len(f.Kinds) > 0 && !containsInt(f.Kinds, e.Kind) {
		return false
	}

	if len(f.ETags) > 0 && !matchesTag(e, "e", f.ETags) {
		return false
	}

	if len(f.PTags) > 0 && !matchesTag(e, "p", f.PTags) {
		return false
	}

	if len(f.TTags) > 0 && !matchesTag(e, "t", f.TTags) {
		return false
	}

	if len(f.DTags) > 0 && !matchesTag(e, "d", f.DTags) {
		return false
	}

	if f.Since != 0 && e.CreatedAt < f.Since {
		return false
	}

	if f.Until != 0 && e.CreatedAt > f.Until {
		return false
	}

	return true
}

func matchesTag(e *Event, name string, values []string) bool {
	for _, v := range e.TagValues(name) {
		if contains(values, v) {
			return true
		}
	}

	return false
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}

	return false
}

func containsInt(haystack []int, needle int) bool {
	for _, n := range haystack {
		if n == needle {
			return true
		}
	}

	return false
}
