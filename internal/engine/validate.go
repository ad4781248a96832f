package engine

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"eurotrends/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json names so row errors match what the client sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// fieldNames maps struct field params of cross-field tags to their json names.
var fieldNames = map[string]string{
	"SalaryMin": "salary_min",
	"SalaryMax": "salary_max",
	"SalaryAvg": "salary_avg",
}

// ValidateObservations checks every row and collects all failures.
func ValidateObservations(obs []models.Observation) error {
	if len(obs) == 0 {
		return &ValidationError{Rows: []RowError{{Row: -1, Field: "observations", Reason: "must contain at least one row"}}}
	}

	var rows []RowError
	for i := range obs {
		err := validate.Struct(&obs[i])
		if err == nil {
			continue
		}
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			rows = append(rows, RowError{Row: i, Field: "row", Reason: err.Error()})
			continue
		}
		for _, fe := range fieldErrs {
			rows = append(rows, RowError{Row: i, Field: fe.Field(), Reason: describe(fe)})
		}
	}
	if len(rows) > 0 {
		return &ValidationError{Rows: rows}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "nonblank":
		return "is required"
	case "finite":
		return "must be a finite number"
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "gtefield":
		other := fieldNames[fe.Param()]
		if other == "" {
			other = fe.Param()
		}
		return "must be >= " + other
	}
	return "failed " + fe.Tag()
}
