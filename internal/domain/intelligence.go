package domain

// Intelligence maps a fixed set of category keys to ordered lists of unique
// string findings extracted from conversation text.
type Intelligence map[string][]string

// IntelligenceCategories is the canonical category order. Merges, activity
// events and summaries all iterate in this order so that two stores merging
// the same input always agree.
var IntelligenceCategories = []string{
	"bankAccounts",
	"upiIds",
	"phishingLinks",
	"phoneNumbers",
	"suspiciousKeywords",
}

// NewIntelligence returns an Intelligence with every category present and empty.
func NewIntelligence() Intelligence {
	intel := make(Intelligence, len(IntelligenceCategories))
	for _, key := range IntelligenceCategories {
		intel[key] = []string{}
	}
	return intel
}

// Normalize ensures every known category exists with a non-nil list and drops
// unknown keys. The receiver is not modified.
func (i Intelligence) Normalize() Intelligence {
	out := NewIntelligence()
	for _, key := range IntelligenceCategories {
		if values, ok := i[key]; ok && values != nil {
			out[key] = append(out[key], values...)
		}
	}
	return out
}

// Clone returns a deep copy with all categories present.
func (i Intelligence) Clone() Intelligence {
	return i.Normalize()
}

// HasFindings reports whether any category contains at least one item.
func (i Intelligence) HasFindings() bool {
	for _, values := range i {
		if len(values) > 0 {
			return true
		}
	}
	return false
}

// Total returns the number of items across all categories.
func (i Intelligence) Total() int {
	n := 0
	for _, values := range i {
		n += len(values)
	}
	return n
}

// MergeIntelligence folds incoming findings into dst and returns the number of
// genuinely new items per category (only categories that gained items appear
// in the result). Existing order is preserved; new items are appended in input
// order; duplicates are never added. Unknown incoming keys are ignored.
//
// This is the single merge used by both the session store and the audit store,
// so the two views can never disagree on ordering or counts.
func MergeIntelligence(dst, incoming Intelligence) map[string]int {
	newCounts := make(map[string]int)
	for _, key := range IntelligenceCategories {
		values := incoming[key]
		if len(values) == 0 {
			continue
		}
		existing := make(map[string]struct{}, len(dst[key]))
		for _, v := range dst[key] {
			existing[v] = struct{}{}
		}
		added := 0
		for _, v := range values {
			if _, seen := existing[v]; seen {
				continue
			}
			dst[key] = append(dst[key], v)
			existing[v] = struct{}{}
			added++
		}
		if added > 0 {
			newCounts[key] = added
		}
	}
	return newCounts
}
