package engine

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"

	"eurotrends/internal/models"
)

// ColumnStore holds data in Struct-of-Arrays format for speed
type ColumnStore struct {
	// Data Columns (Flat Arrays)
	SalaryMins []float64
	SalaryMaxs []float64
	SalaryAvgs []float64
	Years      []int32

	// Dictionary Encoded IDs (0..N)
	CountryIDs []int32
	RoleIDs    []int32
	TeamIDs    []int32

	// Dictionaries (ID -> String), in first-seen order
	CountryDict []string
	RoleDict    []string
	TeamDict    []string
}

// Len returns the number of rows.
func (cs *ColumnStore) Len() int { return len(cs.SalaryAvgs) }

// ids returns the encoded column for a dimension.
func (cs *ColumnStore) ids(dim models.Dimension) ([]int32, []string, error) {
	switch dim {
	case models.DimCountry:
		return cs.CountryIDs, cs.CountryDict, nil
	case models.DimRole:
		return cs.RoleIDs, cs.RoleDict, nil
	case models.DimTeamSetup:
		return cs.TeamIDs, cs.TeamDict, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownDimension, dim)
}

type dictionary struct {
	index map[string]int32
	list  []string
}

func newDictionary() *dictionary {
	return &dictionary{index: make(map[string]int32)}
}

func (d *dictionary) encode(s string) int32 {
	if id, ok := d.index[s]; ok {
		return id
	}
	id := int32(len(d.list))
	d.list = append(d.list, s)
	d.index[s] = id
	return id
}

// Dataset is one immutable load. Nothing mutates it after NewDataset returns.
type Dataset struct {
	cols ColumnStore
	rows []models.Observation

	countryIdx map[string]int32
	roleIdx    map[string]int32
	teamIdx    map[string]int32

	summary models.DatasetSummary
}

// NewDataset validates the rows and builds the column store. The input slice is
// copied.
func NewDataset(source string, obs []models.Observation) (*Dataset, error) {
	if err := ValidateObservations(obs); err != nil {
		return nil, err
	}

	n := len(obs)
	ds := &Dataset{
		rows: append([]models.Observation(nil), obs...),
		cols: ColumnStore{
			SalaryMins: make([]float64, n),
			SalaryMaxs: make([]float64, n),
			SalaryAvgs: make([]float64, n),
			Years:      make([]int32, n),
			CountryIDs: make([]int32, n),
			RoleIDs:    make([]int32, n),
			TeamIDs:    make([]int32, n),
		},
	}

	countries, roles, teams := newDictionary(), newDictionary(), newDictionary()
	for i := range ds.rows {
		// Filters and hints are matched trimmed, so stored keys are too.
		o := &ds.rows[i]
		o.Country = strings.TrimSpace(o.Country)
		o.Role = strings.TrimSpace(o.Role)
		o.TeamSetup = strings.TrimSpace(o.TeamSetup)

		ds.cols.SalaryMins[i] = o.SalaryMin
		ds.cols.SalaryMaxs[i] = o.SalaryMax
		ds.cols.SalaryAvgs[i] = o.SalaryAvg
		ds.cols.Years[i] = int32(o.Year)
		ds.cols.CountryIDs[i] = countries.encode(o.Country)
		ds.cols.RoleIDs[i] = roles.encode(o.Role)
		ds.cols.TeamIDs[i] = teams.encode(o.TeamSetup)
	}
	ds.cols.CountryDict, ds.countryIdx = countries.list, countries.index
	ds.cols.RoleDict, ds.roleIdx = roles.list, roles.index
	ds.cols.TeamDict, ds.teamIdx = teams.list, teams.index

	all := ds.All()
	ds.summary = models.DatasetSummary{
		DatasetID:    uuid.NewString(),
		Fingerprint:  fingerprint(ds.rows),
		Source:       source,
		LoadedAt:     time.Now().UTC(),
		TotalRecords: n,
		Countries:    append([]string(nil), ds.cols.CountryDict...),
		Roles:        append([]string(nil), ds.cols.RoleDict...),
		TeamSetups:   append([]string(nil), ds.cols.TeamDict...),
		SalaryStats:  Overall(all),
	}
	return ds, nil
}

// Summary returns the global statistics computed at load time.
func (ds *Dataset) Summary() models.DatasetSummary {
	s := ds.summary
	s.Countries = append([]string(nil), s.Countries...)
	s.Roles = append([]string(nil), s.Roles...)
	s.TeamSetups = append([]string(nil), s.TeamSetups...)
	return s
}

// Len returns the number of observations.
func (ds *Dataset) Len() int { return ds.cols.Len() }

// Columns exposes the encoded columns for read-only use.
func (ds *Dataset) Columns() *ColumnStore { return &ds.cols }

// All returns a subset covering every row in load order.
func (ds *Dataset) All() Subset {
	idx := make([]int32, ds.Len())
	for i := range idx {
		idx[i] = int32(i)
	}
	return Subset{ds: ds, idx: idx}
}

func (ds *Dataset) lookup(dim models.Dimension) map[string]int32 {
	switch dim {
	case models.DimCountry:
		return ds.countryIdx
	case models.DimRole:
		return ds.roleIdx
	case models.DimTeamSetup:
		return ds.teamIdx
	}
	return nil
}

// fingerprint hashes every field of every row so identical loads compare equal.
func fingerprint(rows []models.Observation) string {
	h := xxh3.New()
	var buf [8]byte
	writeFloat := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		_, _ = h.Write(buf[:])
	}
	writeString := func(s string) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
		_, _ = h.Write(buf[:])
		_, _ = h.WriteString(s)
	}
	for _, o := range rows {
		writeString(o.Role)
		writeString(o.Country)
		writeString(o.TeamSetup)
		writeFloat(o.SalaryMin)
		writeFloat(o.SalaryMax)
		writeFloat(o.SalaryAvg)
		writeString(o.Skills)
		writeString(o.ExperienceLevel)
		writeFloat(o.YearsExperience)
		writeFloat(float64(o.Year))
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// Store owns the current dataset. Reads take a snapshot; Load swaps the whole
// dataset in one step so readers see either the old or the new one.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[Dataset]
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Load validates and installs a new dataset. On error the previous dataset stays.
func (s *Store) Load(source string, obs []models.Observation) (models.DatasetSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, err := NewDataset(source, obs)
	if err != nil {
		return models.DatasetSummary{}, err
	}
	s.current.Store(ds)
	return ds.Summary(), nil
}

// Current returns the loaded dataset snapshot.
func (s *Store) Current() (*Dataset, error) {
	ds := s.current.Load()
	if ds == nil {
		return nil, ErrNotLoaded
	}
	return ds, nil
}

// Summary describes the currently loaded dataset.
func (s *Store) Summary() (models.DatasetSummary, error) {
	ds, err := s.Current()
	if err != nil {
		return models.DatasetSummary{}, err
	}
	return ds.Summary(), nil
}

// Loaded reports whether a dataset is installed.
func (s *Store) Loaded() bool {
	return s.current.Load() != nil
}
