// Package validation checks request payloads and reports field violations
// as short codes that the i18n package can translate.
package validation

import (
	"errors"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Violations maps a field path to a violation code ("required", "gt", ...).
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Fields returns the violated fields in stable order.
func (v Violations) Fields() []string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Err returns nil when there is nothing to report.
func (v Violations) Err() error {
	if v.Empty() {
		return nil
	}
	return &Error{Violations: v}
}

// Error carries violations through error returns.
type Error struct {
	Violations Violations
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, f := range e.Violations.Fields() {
		parts = append(parts, f+": "+e.Violations[f])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// AsViolations extracts violations from err, if any.
func AsViolations(err error) (Violations, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Violations, true
	}
	return nil, false
}

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Field paths use the json names.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		// Decimals compare as numbers so gt=0 / gte=0 work on them.
		validate.RegisterCustomTypeFunc(func(v reflect.Value) any {
			d, ok := v.Interface().(decimal.Decimal)
			if !ok {
				return nil
			}
			f, _ := d.Float64()
			return f
		}, decimal.Decimal{})
		_ = validate.RegisterValidation("decimals", decimalPlaces)
	})
	return validate
}

// MaxDecimalPlaces is the scale of every stored amount and quantity.
const MaxDecimalPlaces = 4

// FitsScale reports whether d has at most places digits after the point.
func FitsScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// decimalPlaces backs the decimals=<n> tag. The custom type func has already
// turned the field into a float64, so the decimal is read from the parent.
func decimalPlaces(fl validator.FieldLevel) bool {
	places, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	parent := fl.Parent()
	for parent.Kind() == reflect.Pointer || parent.Kind() == reflect.Interface {
		if parent.IsNil() {
			return true
		}
		parent = parent.Elem()
	}
	if parent.Kind() != reflect.Struct {
		return true
	}
	field := parent.FieldByName(fl.StructFieldName())
	if !field.IsValid() {
		return true
	}
	if field.Kind() == reflect.Pointer {
		if field.IsNil() {
			return true
		}
		field = field.Elem()
	}
	d, ok := field.Interface().(decimal.Decimal)
	if !ok {
		return true
	}
	return FitsScale(d, int32(places))
}

// Struct validates s using its `validate` tags.
func Struct(s any) Violations {
	v := Violations{}
	err := instance().Struct(s)
	if err == nil {
		return v
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		v["_"] = "invalid"
		return v
	}
	for _, fe := range errs {
		v[fieldPath(fe.Namespace())] = fe.Tag()
	}
	return v
}

// fieldPath drops the root struct name: "NewQuote.items[0].quantity" -> "items[0].quantity".
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// Required records a violation when value is blank.
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

// PositiveDecimal records a violation when val is not > 0.
func PositiveDecimal(field string, val decimal.Decimal, v Violations) {
	if !val.IsPositive() {
		v[field] = "must_be_positive"
	}
}
