package form

import (
	"fmt"

	"github.com/martijn/userbase/internal/core/domain"
	"github.com/spf13/pflag"
)

// RegisterFlags adds one string flag per field, named like the field with
// dashes ("--first-name").
func RegisterFlags(fs *pflag.FlagSet) {
	for _, f := range Fields {
		fs.String(f.FlagName(), "", flagUsage(f))
	}
}

// FlagName is the CLI flag for the field.
func (f Field) FlagName() string {
	name := []byte(f.Name)
	for i, c := range name {
		if c == '_' {
			name[i] = '-'
		}
	}
	return string(name)
}

// FromFlags reads the flags the user actually set; others stay nil.
func FromFlags(fs *pflag.FlagSet) (domain.UserFields, error) {
	var fields domain.UserFields
	var errs Errors

	for _, f := range Fields {
		if !fs.Changed(f.FlagName()) {
			continue
		}
		raw, err := fs.GetString(f.FlagName())
		if err != nil {
			return fields, err
		}
		if err := f.Set(&fields, raw); err != nil {
			errs = append(errs, err.(*FieldError))
		}
	}

	if len(errs) > 0 {
		return fields, errs
	}
	return fields, nil
}

func flagUsage(f Field) string {
	switch f.Widget {
	case WidgetNumber:
		return fmt.Sprintf("%s (integer)", f.Label)
	case WidgetDecimal:
		return fmt.Sprintf("%s (number)", f.Label)
	case WidgetDate:
		return fmt.Sprintf("%s (YYYY-MM-DD)", f.Label)
	case WidgetDateTime:
		return fmt.Sprintf("%s (YYYY-MM-DDTHH:MM, UTC)", f.Label)
	case WidgetCheckbox:
		return fmt.Sprintf("%s (true/false)", f.Label)
	}
	return f.Label
}
