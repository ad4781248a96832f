package engine

import (
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"eurotrends/internal/models"
)

// chunkRows is fixed so partial sums merge in the same order on every machine.
const chunkRows = 1 << 15

// reduceChunks folds idx in fixed-size chunks, in parallel when there is more
// than one chunk, and returns the partials in chunk order.
func reduceChunks[T any](idx []int32, newPart func() T, fold func(part T, rows []int32)) []T {
	numChunks := (len(idx) + chunkRows - 1) / chunkRows
	if numChunks <= 1 {
		p := newPart()
		fold(p, idx)
		return []T{p}
	}

	parts := make([]T, numChunks)
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for c := 0; c < numChunks; c++ {
		c := c
		start := c * chunkRows
		end := min(start+chunkRows, len(idx))
		g.Go(func() error {
			p := newPart()
			fold(p, idx[start:end])
			parts[c] = p
			return nil
		})
	}
	_ = g.Wait()
	return parts
}

// ByDimension groups the subset by dim and summarises salary_avg per group.
// Groups are sorted by avg descending, ties by key ascending.
func ByDimension(sub Subset, dim models.Dimension) ([]models.GroupSummary, error) {
	if sub.ds == nil {
		if _, ok := models.ParseDimension(string(dim)); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownDimension, dim)
		}
		return []models.GroupSummary{}, nil
	}
	ids, dict, err := sub.ds.cols.ids(dim)
	if err != nil {
		return nil, err
	}
	avgs := sub.ds.cols.SalaryAvgs

	// 1. Parallel fold into per-id accumulators (array indexing, no hashing)
	parts := reduceChunks(sub.idx,
		func() []groupAcc { return make([]groupAcc, len(dict)) },
		func(acc []groupAcc, rows []int32) {
			for _, r := range rows {
				acc[ids[r]].add(avgs[r])
			}
		})

	// 2. Merge partials in chunk order
	final := make([]groupAcc, len(dict))
	for _, p := range parts {
		for id := range final {
			final[id].merge(p[id])
		}
	}

	// 3. Build + sort
	groups := make([]models.GroupSummary, 0, len(dict))
	for id, a := range final {
		if a.count == 0 {
			continue
		}
		groups = append(groups, models.GroupSummary{
			Key:   dict[id],
			Count: a.count,
			Avg:   a.mean(),
			Min:   a.min,
			Max:   a.max,
		})
	}
	SortGroups(groups)
	return groups, nil
}

// SortGroups orders by avg descending, then key ascending.
func SortGroups(groups []models.GroupSummary) {
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Avg != groups[j].Avg {
			return groups[i].Avg > groups[j].Avg
		}
		return groups[i].Key < groups[j].Key
	})
}

// TopK truncates already sorted groups to the first k. k <= 0 keeps all.
func TopK(groups []models.GroupSummary, k int) []models.GroupSummary {
	if k > 0 && len(groups) > k {
		return groups[:k]
	}
	return groups
}

// Overall summarises the whole subset. Min is taken over salary_min and Max
// over salary_max; avg, median and std use salary_avg. An empty subset yields
// all zeros.
func Overall(sub Subset) models.Stats {
	if sub.Len() == 0 {
		return models.Stats{}
	}
	cols := &sub.ds.cols

	values := make([]float64, len(sub.idx))
	lo, hi := cols.SalaryMins[sub.idx[0]], cols.SalaryMaxs[sub.idx[0]]
	var sum float64
	for i, r := range sub.idx {
		v := cols.SalaryAvgs[r]
		values[i] = v
		sum += v
		if m := cols.SalaryMins[r]; m < lo {
			lo = m
		}
		if m := cols.SalaryMaxs[r]; m > hi {
			hi = m
		}
	}

	mean := sum / float64(len(values))
	return models.Stats{
		Count:  len(values),
		Avg:    mean,
		Min:    lo,
		Max:    hi,
		Std:    populationStd(values, mean),
		Median: median(values),
	}
}

// Matrix summarises every country x role pair present in the subset, sorted by
// avg descending, then country and role ascending.
func Matrix(sub Subset) []models.MatrixCell {
	if sub.Len() == 0 {
		return []models.MatrixCell{}
	}
	cols := &sub.ds.cols
	numRoles := len(cols.RoleDict)
	matrixSize := len(cols.CountryDict) * numRoles

	// THE MATRIX: Flattened [Country][Role] -> [Country * NumRoles + Role]
	parts := reduceChunks(sub.idx,
		func() []groupAcc { return make([]groupAcc, matrixSize) },
		func(acc []groupAcc, rows []int32) {
			for _, r := range rows {
				acc[int(cols.CountryIDs[r])*numRoles+int(cols.RoleIDs[r])].add(cols.SalaryAvgs[r])
			}
		})

	final := make([]groupAcc, matrixSize)
	for _, p := range parts {
		for i := range final {
			final[i].merge(p[i])
		}
	}

	cells := make([]models.MatrixCell, 0)
	for i, a := range final {
		if a.count == 0 {
			continue
		}
		cells = append(cells, models.MatrixCell{
			Country: cols.CountryDict[i/numRoles],
			Role:    cols.RoleDict[i%numRoles],
			Count:   a.count,
			Avg:     a.mean(),
		})
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Avg != cells[j].Avg {
			return cells[i].Avg > cells[j].Avg
		}
		if cells[i].Country != cells[j].Country {
			return cells[i].Country < cells[j].Country
		}
		return cells[i].Role < cells[j].Role
	})
	return cells
}

// YearlyAverages returns the mean salary_avg per observation year, ascending.
// Rows without a year are skipped.
func YearlyAverages(sub Subset) []models.YearlyAverage {
	if sub.Len() == 0 {
		return []models.YearlyAverage{}
	}
	cols := &sub.ds.cols

	byYear := make(map[int32]*groupAcc)
	for _, r := range sub.idx {
		y := cols.Years[r]
		if y == 0 {
			continue
		}
		a, ok := byYear[y]
		if !ok {
			a = &groupAcc{}
			byYear[y] = a
		}
		a.add(cols.SalaryAvgs[r])
	}

	out := make([]models.YearlyAverage, 0, len(byYear))
	for y, a := range byYear {
		out = append(out, models.YearlyAverage{Year: int(y), Count: a.count, Avg: a.mean()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
