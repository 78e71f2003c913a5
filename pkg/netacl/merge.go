package netacl

// Pillar/override merge rules. Caller-supplied values always have higher
// priority than the pillar. Entries (terms, filters) present in both keep
// the pillar's position; entries only the caller supplies go in front when
// prepend is set, otherwise at the end. List-shaped field values from both
// sides concatenate, caller entries first under prepend.

// MergeTermFields merges pillar defaults under caller overrides.
// On a key conflict the caller wins, except when both sides are
// list-shaped: then the lists concatenate per prepend.
func MergeTermFields(caller, pillar TermFields, prepend bool) TermFields {
	if len(pillar) == 0 {
		return caller.Clone()
	}
	merged := make(TermFields, len(caller)+len(pillar))
	for k, v := range pillar {
		merged[k] = v
	}
	for k, cv := range caller {
		pv, ok := merged[k]
		if ok && listShaped(cv) && listShaped(pv) {
			if prepend {
				merged[k] = cv.Concat(pv)
			} else {
				merged[k] = pv.Concat(cv)
			}
			continue
		}
		merged[k] = cv
	}
	return merged
}

func listShaped(v FieldValue) bool {
	return v.Kind() == FieldList || v.Kind() == FieldRanges
}

// MergeTerms merges caller terms with pillar terms. Term order becomes the
// device's evaluation order, so positions are never re-sorted: pillar terms
// keep their order, and caller-only terms keep their relative order at the
// front (prepend) or the back.
func MergeTerms(caller, pillar []Term, prepend bool) []Term {
	merged := make([]Term, 0, len(caller)+len(pillar))
	var fresh []Term

	for _, c := range caller {
		if indexOfTerm(pillar, c.Name) < 0 {
			fresh = append(fresh, c)
		}
	}
	if prepend {
		merged = append(merged, fresh...)
	}
	for _, p := range pillar {
		if i := indexOfTerm(caller, p.Name); i >= 0 {
			merged = append(merged, Term{
				Name:   p.Name,
				Fields: MergeTermFields(caller[i].Fields, p.Fields, prepend),
			})
		} else {
			merged = append(merged, p)
		}
	}
	if !prepend {
		merged = append(merged, fresh...)
	}
	return merged
}

// MergeFilter merges one caller filter with its pillar counterpart.
// With onlyLowerMerge set, only the terms participate in the pillar merge;
// the filter's own options come from the caller alone.
func MergeFilter(caller, pillar Filter, prepend, onlyLowerMerge bool) Filter {
	merged := Filter{Name: caller.Name}

	if onlyLowerMerge {
		merged.Options = caller.Options
	} else {
		merged.Options = mergeOptions(caller.Options, pillar.Options, prepend)
	}
	merged.Terms = MergeTerms(caller.Terms, pillar.Terms, prepend)
	return merged
}

// MergeFilters merges caller filters with pillar filters using the same
// positional rules as MergeTerms.
func MergeFilters(caller, pillar []Filter, prepend, onlyLowerMerge bool) []Filter {
	merged := make([]Filter, 0, len(caller)+len(pillar))
	var fresh []Filter

	for _, c := range caller {
		if indexOfFilter(pillar, c.Name) < 0 {
			fresh = append(fresh, c)
		}
	}
	if prepend {
		merged = append(merged, fresh...)
	}
	for _, p := range pillar {
		if i := indexOfFilter(caller, p.Name); i >= 0 {
			merged = append(merged, MergeFilter(caller[i], p, prepend, onlyLowerMerge))
		} else {
			merged = append(merged, p)
		}
	}
	if !prepend {
		merged = append(merged, fresh...)
	}
	return merged
}

func mergeOptions(caller, pillar []string, prepend bool) []string {
	if len(pillar) == 0 {
		return caller
	}
	if len(caller) == 0 {
		return pillar
	}
	merged := make([]string, 0, len(caller)+len(pillar))
	if prepend {
		merged = append(merged, caller...)
		merged = append(merged, pillar...)
	} else {
		merged = append(merged, pillar...)
		merged = append(merged, caller...)
	}
	return merged
}

func indexOfTerm(terms []Term, name string) int {
	for i, t := range terms {
		if t.Name == name {
			return i
		}
	}
	return -1
}

func indexOfFilter(filters []Filter, name string) int {
	for i, f := range filters {
		if f.Name == name {
			return i
		}
	}
	return -1
}
