package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxMoney is the exclusive upper bound of a NUMERIC(15,2) column.
var MaxMoney = decimal.New(1, 13)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Decimals are compared as numbers so gte/gt/min work on money fields.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		amount, ok := decimalField(fl)
		return ok && IsMoney(amount)
	})
	return v
}

// IsMoney reports whether amount has at most two decimal places and fits
// the money columns.
func IsMoney(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(2)) && amount.Abs().LessThan(MaxMoney)
}

// decimalField recovers the original decimal, since the custom type func
// hands validators a float64.
func decimalField(fl validator.FieldLevel) (decimal.Decimal, bool) {
	parent := reflect.Indirect(fl.Parent())
	if parent.Kind() == reflect.Struct {
		field := parent.FieldByName(fl.StructFieldName())
		if field.IsValid() && field.CanInterface() {
			if amount, ok := field.Interface().(decimal.Decimal); ok {
				return amount, true
			}
		}
	}
	if fl.Field().Kind() == reflect.Float64 {
		return decimal.NewFromFloat(fl.Field().Float()), true
	}
	return decimal.Decimal{}, false
}

// Error carries per-field messages keyed the way clients address fields,
// e.g. "items.0.qty".
type Error struct {
	Fields map[string][]string
}

func (e *Error) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	first := e.Fields[keys[0]]
	if len(first) == 0 {
		return "validation failed"
	}
	return first[0]
}

// Add appends a message for field and returns the receiver.
func (e *Error) Add(field string, message string) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
	return e
}

func (e *Error) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// Field builds a single-field validation error.
func Field(field string, message string) *Error {
	return (&Error{}).Add(field, message)
}

// Struct validates data against its `validate` tags. It returns nil or *Error.
func Struct(data any) error {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &Error{}
	for _, fe := range fieldErrs {
		key := fieldKey(fe.Namespace())
		out.Add(key, message(key, fe))
	}
	return out
}

// As unwraps err into a validation *Error when it is one.
func As(err error) (*Error, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

func fieldKey(namespace string) string {
	// Drop the root struct name.
	if idx := strings.Index(namespace, "."); idx >= 0 {
		namespace = namespace[idx+1:]
	}
	namespace = strings.ReplaceAll(namespace, "[", ".")
	return strings.ReplaceAll(namespace, "]", "")
}

func message(field string, fe validator.FieldError) string {
	label := field
	if idx := strings.LastIndex(field, "."); idx >= 0 {
		label = field[idx+1:]
	}
	label = strings.ReplaceAll(label, "_", " ")

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s wajib diisi", label)
	case "min", "gte":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s minimal berisi %s item", label, fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s minimal %s karakter", label, fe.Param())
		}
		return fmt.Sprintf("%s minimal %s", label, fe.Param())
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s maksimal %s karakter", label, fe.Param())
		}
		return fmt.Sprintf("%s maksimal %s", label, fe.Param())
	case "gt":
		return fmt.Sprintf("%s harus lebih besar dari %s", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s harus salah satu dari: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return fmt.Sprintf("%s harus berupa alamat email yang valid", label)
	case "eqfield":
		return fmt.Sprintf("konfirmasi %s tidak cocok", strings.ToLower(fe.Param()))
	case "money":
		return fmt.Sprintf("%s harus nominal dengan maksimal 2 angka desimal dan di bawah 10.000.000.000.000", label)
	case "username":
		return fmt.Sprintf("%s hanya boleh berisi huruf, angka, strip dan garis bawah", label)
	default:
		return fmt.Sprintf("%s tidak valid", label)
	}
}
