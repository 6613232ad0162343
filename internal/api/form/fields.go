// Package form maps the mutable User fields to HTML inputs, form keys, CLI
// flags and database columns through one hand-written table.
package form

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/martijn/userbase/internal/core/domain"
)

// Widget is the kind of input a field renders as.
type Widget string

const (
	WidgetText     Widget = "text"
	WidgetTextarea Widget = "textarea"
	WidgetNumber   Widget = "number"
	WidgetDecimal  Widget = "decimal"
	WidgetDate     Widget = "date"
	WidgetDateTime Widget = "datetime"
	WidgetCheckbox Widget = "checkbox"
)

// Input layouts used by date and datetime-local pickers.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04:05"
)

// Field describes one mutable User attribute.
type Field struct {
	Name   string // form key suffix, JSON key and CLI flag
	Label  string
	Widget Widget
	Column string

	get func(*domain.UserFields) any
	set func(*domain.UserFields, string) error
}

// Fields is the ordered mapping table for the User form.
var Fields = []Field{
	{
		Name: "username", Label: "Username", Widget: WidgetText, Column: "username",
		get: func(u *domain.UserFields) any { return u.Username },
		set: func(u *domain.UserFields, v string) error { u.Username = parseString(v); return nil },
	},
	{
		Name: "first_name", Label: "First name", Widget: WidgetText, Column: "first_name",
		get: func(u *domain.UserFields) any { return u.FirstName },
		set: func(u *domain.UserFields, v string) error { u.FirstName = parseString(v); return nil },
	},
	{
		Name: "last_name", Label: "Last name", Widget: WidgetText, Column: "last_name",
		get: func(u *domain.UserFields) any { return u.LastName },
		set: func(u *domain.UserFields, v string) error { u.LastName = parseString(v); return nil },
	},
	{
		Name: "bio", Label: "Bio", Widget: WidgetTextarea, Column: "bio",
		get: func(u *domain.UserFields) any { return u.Bio },
		set: func(u *domain.UserFields, v string) error { u.Bio = parseString(v); return nil },
	},
	{
		Name: "bicycles", Label: "Bicycles", Widget: WidgetNumber, Column: "bicycles",
		get: func(u *domain.UserFields) any { return u.Bicycles },
		set: func(u *domain.UserFields, v string) (err error) { u.Bicycles, err = parseInt(v); return },
	},
	{
		Name: "gpa", Label: "Gpa", Widget: WidgetDecimal, Column: "gpa",
		get: func(u *domain.UserFields) any { return u.GPA },
		set: func(u *domain.UserFields, v string) (err error) { u.GPA, err = parseFloat(v); return },
	},
	{
		Name: "birth_date", Label: "Birth date", Widget: WidgetDate, Column: "birth_date",
		get: func(u *domain.UserFields) any { return u.BirthDate },
		set: func(u *domain.UserFields, v string) (err error) { u.BirthDate, err = parseDate(v); return },
	},
	{
		Name: "account_expiration", Label: "Account expiration", Widget: WidgetDateTime, Column: "account_expiration",
		get: func(u *domain.UserFields) any { return u.AccountExpiration },
		set: func(u *domain.UserFields, v string) (err error) { u.AccountExpiration, err = parseDateTime(v); return },
	},
	{
		Name: "earthling", Label: "Earthling", Widget: WidgetCheckbox, Column: "earthling",
		get: func(u *domain.UserFields) any { return u.Earthling },
		set: func(u *domain.UserFields, v string) (err error) { u.Earthling, err = parseBool(v); return },
	},
}

// Lookup returns the field with the given name.
func Lookup(name string) (Field, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Key is the HTML form key for the field.
func (f Field) Key() string {
	return "user[" + f.Name + "]"
}

// ID is the HTML element id for the field's input.
func (f Field) ID() string {
	return "user_" + f.Name
}

// Set parses raw for this field's widget kind and stores it in u.
func (f Field) Set(u *domain.UserFields, raw string) error {
	if err := f.set(u, raw); err != nil {
		return &FieldError{Field: f, Value: raw, Err: err}
	}
	return nil
}

// Value returns the field's current value from u, nil when unset.
func (f Field) Value(u domain.UserFields) any {
	switch v := f.get(&u).(type) {
	case *string:
		if v != nil {
			return *v
		}
	case *int64:
		if v != nil {
			return *v
		}
	case *float64:
		if v != nil {
			return *v
		}
	case *time.Time:
		if v != nil {
			return *v
		}
	case *bool:
		if v != nil {
			return *v
		}
	}
	return nil
}

// InputValue renders the field's value the way its input element expects it.
func (f Field) InputValue(u domain.UserFields) string {
	v := f.Value(u)
	if v == nil {
		return ""
	}
	switch f.Widget {
	case WidgetDate:
		return v.(time.Time).Format(DateLayout)
	case WidgetDateTime:
		return v.(time.Time).Format(DateTimeLayout)
	case WidgetCheckbox:
		if v.(bool) {
			return "1"
		}
		return "0"
	}
	return formatScalar(v)
}

// Display renders the field's value for read-only pages.
func (f Field) Display(u domain.UserFields) string {
	v := f.Value(u)
	if v == nil {
		return ""
	}
	switch f.Widget {
	case WidgetDate:
		return v.(time.Time).Format(DateLayout)
	case WidgetDateTime:
		return v.(time.Time).Format("2006-01-02 15:04:05 UTC")
	}
	return formatScalar(v)
}

// InputType is the HTML input type for the field's widget.
func (f Field) InputType() string {
	switch f.Widget {
	case WidgetNumber, WidgetDecimal:
		return "number"
	case WidgetDate:
		return "date"
	case WidgetDateTime:
		return "datetime-local"
	case WidgetCheckbox:
		return "checkbox"
	}
	return "text"
}

// Checked reports whether a checkbox field is set to true.
func (f Field) Checked(u domain.UserFields) bool {
	b, ok := f.Value(u).(bool)
	return ok && b
}

func formatScalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}

// FieldError reports a value that could not be read as its field's type.
type FieldError struct {
	Field Field
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %v", e.Field.Label, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func parseString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func parseInt(v string) (*int64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("is not an integer")
	}
	return &n, nil
}

func parseFloat(v string) (*float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, fmt.Errorf("is not a number")
	}
	return &f, nil
}

func parseBool(v string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "":
		return nil, nil
	case "1", "true", "on", "yes", "t":
		b := true
		return &b, nil
	case "0", "false", "off", "no", "f":
		b := false
		return &b, nil
	}
	return nil, fmt.Errorf("is not a boolean")
}

var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 UTC",
}

func parseDate(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			d := domain.Date(t)
			return &d, nil
		}
	}
	return nil, fmt.Errorf("is not a date")
}

// dateTimeLayouts are tried in order; values without a zone are read as UTC.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	DateTimeLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05 UTC",
	"2006-01-02 15:04:05 -0700",
	DateLayout,
}

func parseDateTime(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			ts := domain.Timestamp(t)
			return &ts, nil
		}
	}
	return nil, fmt.Errorf("is not a date and time")
}
