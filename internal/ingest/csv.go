package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	arrowcsv "github.com/apache/arrow/go/v18/arrow/csv"
	"github.com/apache/arrow/go/v18/arrow/memory"

	"eurotrends/internal/models"
)

// ErrMissingColumn is returned when a required column cannot be found.
var ErrMissingColumn = errors.New("missing required column")

const chunkSize = 4096

type field int

const (
	fieldRole field = iota
	fieldCountry
	fieldTeamSetup
	fieldSalaryMin
	fieldSalaryMax
	fieldSalaryAvg
	fieldSkills
	fieldExperienceLevel
	fieldYearsExperience
	fieldYear
)

// aliases maps normalised header names to fields. Normalising lowercases and
// drops spaces, underscores and dashes.
var aliases = map[string]field{
	"role":                 fieldRole,
	"rolename":             fieldRole,
	"jobrole":              fieldRole,
	"country":              fieldCountry,
	"teamsetup":            fieldTeamSetup,
	"salarymin":            fieldSalaryMin,
	"salaryminusd":         fieldSalaryMin,
	"salarymineur":         fieldSalaryMin,
	"salarymax":            fieldSalaryMax,
	"salarymaxusd":         fieldSalaryMax,
	"salarymaxeur":         fieldSalaryMax,
	"salaryavg":            fieldSalaryAvg,
	"salaryavgusd":         fieldSalaryAvg,
	"salaryavgeur":         fieldSalaryAvg,
	"salary":               fieldSalaryAvg,
	"salaryeur":            fieldSalaryAvg,
	"salaryadjustedtoeuro": fieldSalaryAvg,
	"skills":               fieldSkills,
	"experiencelevel":      fieldExperienceLevel,
	"levelofexperience":    fieldExperienceLevel,
	"yearsexperience":      fieldYearsExperience,
	"yearsofexperience":    fieldYearsExperience,
	"year":                 fieldYear,
}

var nullValues = []string{"", "NA", "N/A", "null", "NULL", "NaN"}

func normalise(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
}

func fieldType(f field) arrow.DataType {
	switch f {
	case fieldSalaryMin, fieldSalaryMax, fieldSalaryAvg, fieldYearsExperience:
		return arrow.PrimitiveTypes.Float64
	case fieldYear:
		return arrow.PrimitiveTypes.Int64
	}
	return arrow.BinaryTypes.String
}

// ReadCSVFile reads observations from a CSV file on disk.
func ReadCSVFile(path string) ([]models.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV maps a CSV with a header row onto observations. Recognised headers
// are typed (salaries as float64, year as int64); unrecognised ones are read
// as strings and ignored.
func ReadCSV(r io.Reader) ([]models.Observation, error) {
	// 1. Peek the header to build the schema
	br := bufio.NewReader(r)
	headerLine, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read header: %w", err)
	}
	headerLine = strings.TrimPrefix(headerLine, "\uFEFF")
	header, err := csv.NewReader(strings.NewReader(headerLine)).Read()
	if err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	cols := make(map[field]int)
	fields := make([]arrow.Field, len(header))
	for i, h := range header {
		f, known := aliases[normalise(h)]
		typ := arrow.DataType(arrow.BinaryTypes.String)
		if known {
			if _, dup := cols[f]; !dup {
				cols[f] = i
				typ = fieldType(f)
			}
		}
		fields[i] = arrow.Field{Name: h, Type: typ, Nullable: true}
	}
	for _, req := range []field{fieldRole, fieldCountry} {
		if _, ok := cols[req]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, fieldName(req))
		}
	}
	_, hasMin := cols[fieldSalaryMin]
	_, hasMax := cols[fieldSalaryMax]
	_, hasAvg := cols[fieldSalaryAvg]
	if !hasAvg && !(hasMin && hasMax) {
		return nil, fmt.Errorf("%w: salary_avg (or salary_min and salary_max)", ErrMissingColumn)
	}

	// 2. Typed columnar read
	schema := arrow.NewSchema(fields, nil)
	rdr := arrowcsv.NewReader(
		io.MultiReader(strings.NewReader(headerLine), br),
		schema,
		arrowcsv.WithHeader(true),
		arrowcsv.WithChunk(chunkSize),
		arrowcsv.WithNullReader(true, nullValues...),
		arrowcsv.WithAllocator(memory.NewGoAllocator()),
	)
	defer rdr.Release()

	out := make([]models.Observation, 0)
	for rdr.Next() {
		rec := rdr.Record()
		batch := columns{rec: rec, cols: cols}
		for j := 0; j < int(rec.NumRows()); j++ {
			out = append(out, batch.observation(j))
		}
	}
	if err := rdr.Err(); err != nil {
		return nil, fmt.Errorf("read csv row %d: %w", len(out)+2, err)
	}
	return out, nil
}

// columns reads typed values out of one record batch.
type columns struct {
	rec  arrow.Record
	cols map[field]int
}

func (c columns) str(f field, row int) string {
	i, ok := c.cols[f]
	if !ok {
		return ""
	}
	arr, ok := c.rec.Column(i).(*array.String)
	if !ok || arr.IsNull(row) {
		return ""
	}
	return strings.TrimSpace(arr.Value(row))
}

func (c columns) float(f field, row int) (float64, bool) {
	i, ok := c.cols[f]
	if !ok {
		return 0, false
	}
	arr, ok := c.rec.Column(i).(*array.Float64)
	if !ok || arr.IsNull(row) {
		return 0, false
	}
	return arr.Value(row), true
}

func (c columns) int(f field, row int) int {
	i, ok := c.cols[f]
	if !ok {
		return 0
	}
	arr, ok := c.rec.Column(i).(*array.Int64)
	if !ok || arr.IsNull(row) {
		return 0
	}
	return int(arr.Value(row))
}

func (c columns) observation(row int) models.Observation {
	o := models.Observation{
		Role:            c.str(fieldRole, row),
		Country:         c.str(fieldCountry, row),
		TeamSetup:       c.str(fieldTeamSetup, row),
		Skills:          c.str(fieldSkills, row),
		ExperienceLevel: c.str(fieldExperienceLevel, row),
		Year:            c.int(fieldYear, row),
	}
	o.YearsExperience, _ = c.float(fieldYearsExperience, row)

	lo, hasMin := c.float(fieldSalaryMin, row)
	hi, hasMax := c.float(fieldSalaryMax, row)
	avg, hasAvg := c.float(fieldSalaryAvg, row)
	switch {
	case !hasAvg && hasMin && hasMax:
		avg = (lo + hi) / 2
	case hasAvg && !hasMin && !hasMax:
		lo, hi = avg, avg
	case hasAvg && !hasMin:
		lo = avg
	case hasAvg && !hasMax:
		hi = avg
	}
	o.SalaryMin, o.SalaryMax, o.SalaryAvg = lo, hi, avg

	if o.TeamSetup == "" {
		o.TeamSetup = TeamSetupForRole(o.Role)
	}
	return o
}

// TeamSetupForRole guesses a team setup from seniority words in a role name,
// for sources that carry no team setup column.
func TeamSetupForRole(role string) string {
	r := strings.ToLower(role)
	switch {
	case strings.Contains(r, "senior"), strings.Contains(r, "lead"):
		return "On-site"
	case strings.Contains(r, "junior"):
		return "Hybrid"
	}
	return "Remote"
}

func fieldName(f field) string {
	switch f {
	case fieldRole:
		return "role"
	case fieldCountry:
		return "country"
	}
	return "salary"
}
