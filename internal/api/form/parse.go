package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/martijn/userbase/internal/core/domain"
)

// Errors collects the fields that could not be read.
type Errors []*FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return strings.Join(msgs, "; ")
}

// Messages returns one human readable line per failed field.
func (e Errors) Messages() []string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return msgs
}

// Parse reads every field from submitted form values. Keys that are absent
// leave the field nil. A checkbox posts a hidden "0" before the box itself,
// so the last value wins.
//
// The returned fields hold every value that parsed, even when err is non-nil,
// so a form can be re-rendered with what the user typed.
func Parse(values url.Values) (domain.UserFields, error) {
	var fields domain.UserFields
	var errs Errors

	for _, f := range Fields {
		vals, ok := values[f.Key()]
		if !ok || len(vals) == 0 {
			continue
		}
		if err := f.Set(&fields, vals[len(vals)-1]); err != nil {
			errs = append(errs, err.(*FieldError))
		}
	}

	if len(errs) > 0 {
		return fields, errs
	}
	return fields, nil
}

// Submitted returns the raw values for every field present in values, keyed
// by field name. Used to echo input back when parsing fails.
func Submitted(values url.Values) map[string]string {
	out := make(map[string]string)
	for _, f := range Fields {
		if vals := values[f.Key()]; len(vals) > 0 {
			out[f.Name] = vals[len(vals)-1]
		}
	}
	return out
}

// ParseJSON applies the keys present in body on top of base. A JSON null
// clears the field. Keys that are not User fields are ignored.
func ParseJSON(body map[string]json.RawMessage, base domain.UserFields) (domain.UserFields, error) {
	fields := base
	var errs Errors

	for _, f := range Fields {
		raw, ok := body[f.Name]
		if !ok {
			continue
		}

		value, err := jsonScalar(raw)
		if err == nil {
			err = f.Set(&fields, value)
		} else {
			err = &FieldError{Field: f, Value: string(raw), Err: err}
		}
		if err != nil {
			errs = append(errs, err.(*FieldError))
		}
	}

	if len(errs) > 0 {
		return fields, errs
	}
	return fields, nil
}

// jsonScalar turns a JSON scalar into the string form the field parsers read.
// null becomes the empty string, which every parser treats as unset.
func jsonScalar(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return "", fmt.Errorf("is not valid JSON")
	}

	switch x := v.(type) {
	case string:
		if x == "" {
			return "", nil
		}
		return x, nil
	case json.Number:
		return x.String(), nil
	case bool:
		if x {
			return "true", nil
		}
		return "false", nil
	}
	return "", fmt.Errorf("must be a string, number or boolean")
}
