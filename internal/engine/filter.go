package engine

import (
	"eurotrends/internal/models"
)

// Subset is an ordered list of row indexes into a Dataset. It never copies
// row data.
type Subset struct {
	ds  *Dataset
	idx []int32
}

// Len returns the number of rows in the subset.
func (s Subset) Len() int { return len(s.idx) }

// Observations materialises the rows of the subset.
func (s Subset) Observations() []models.Observation {
	out := make([]models.Observation, len(s.idx))
	for i, j := range s.idx {
		out[i] = s.ds.rows[j]
	}
	return out
}

// Page returns rows [offset, offset+limit) of the subset.
func (s Subset) Page(offset, limit int) []models.Observation {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(s.idx) || limit <= 0 {
		return []models.Observation{}
	}
	end := offset + limit
	if end > len(s.idx) {
		end = len(s.idx)
	}
	return Subset{ds: s.ds, idx: s.idx[offset:end]}.Observations()
}

// Apply returns the rows matching sel on ds.
func (ds *Dataset) Apply(sel models.FilterSelection) Subset {
	return ds.All().Filter(sel)
}

// Filter narrows the subset. A row passes when, for every dimension with a
// non-empty set, its value is in the set. Relative order is kept.
func (s Subset) Filter(sel models.FilterSelection) Subset {
	if sel.IsEmpty() || s.ds == nil {
		return s
	}

	// Resolve each restricted dimension to a mask indexed by dictionary id.
	// Values the dataset has never seen cannot match.
	type check struct {
		ids  []int32
		mask []bool
	}
	checks := make([]check, 0, len(models.Dimensions))
	for _, dim := range models.Dimensions {
		values := sel.Values(dim)
		if len(values) == 0 {
			continue
		}
		ids, dict, _ := s.ds.cols.ids(dim)
		mask := make([]bool, len(dict))
		lookup := s.ds.lookup(dim)
		for _, v := range values {
			if id, ok := lookup[v]; ok {
				mask[id] = true
			}
		}
		checks = append(checks, check{ids: ids, mask: mask})
	}

	// Single pass over the rows
	out := make([]int32, 0, len(s.idx))
	for _, row := range s.idx {
		pass := true
		for _, c := range checks {
			if !c.mask[c.ids[row]] {
				pass = false
				break
			}
		}
		if pass {
			out = append(out, row)
		}
	}
	return Subset{ds: s.ds, idx: out}
}

// Where keeps rows matching an exact country and/or role. Empty arguments do
// not restrict.
func (s Subset) Where(country, role string) Subset {
	var sel models.FilterSelection
	if country != "" {
		sel.Countries = []string{country}
	}
	if role != "" {
		sel.Roles = []string{role}
	}
	return s.Filter(sel)
}
