// Package assemble builds the external representation of records: own fields
// normalized, reference keys merged under their public names, and nothing but
// plain JSON scalars in the output.
package assemble

import (
	"database/sql/driver"
	"reflect"
	"strings"
	"time"

	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// TimeFormat is ISO-8601 in UTC with millisecond precision.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Record is an assembled external record.
type Record map[string]any

// Rules lists per-field normalization. Fields named in Names are trimmed of
// leading and trailing whitespace. Normalize maps a field to an additional
// normalizer chain, for example squash_spaces.
type Rules struct {
	Names     []string
	Normalize map[string][]string
}

func (r Rules) chain(field string) []string {
	var chain []string
	if ectolinq.Contains(r.Names, field) {
		chain = append(chain, normalizers.NameTrim)
	}
	return append(chain, r.Normalize[field]...)
}

// Assemble merges a record's own fields with its resolved reference keys. parent
// is a struct (or pointer to one) whose exported fields carry json tags; fields
// tagged "-" are skipped. refs maps public field names, like "company_id", to a
// key or nil.
func Assemble(parent any, refs map[string]*string, rules Rules) Record {
	out := Record{}
	collect(reflect.ValueOf(parent), rules, out)
	for field, key := range refs {
		if key == nil {
			out[field] = nil
			continue
		}
		out[field] = *key
	}
	return out
}

// All assembles a batch, asking refs for each parent's keys.
func All[P any](parents []P, refs func(P) map[string]*string, rules Rules) []Record {
	out := make([]Record, 0, len(parents))
	for _, p := range parents {
		out = append(out, Assemble(p, refs(p), rules))
	}
	return out
}

func collect(v reflect.Value, rules Rules, out Record) {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get("json")
		if sf.Anonymous && tag == "" {
			collect(v.Field(i), rules, out)
			continue
		}
		if !sf.IsExported() {
			continue
		}
		name := strings.Split(tag, ",")[0]
		if name == "" || name == "-" {
			continue
		}
		out[name] = scalar(v.Field(i), rules.chain(name))
	}
}

var timeType = reflect.TypeOf(time.Time{})

func scalar(v reflect.Value, chain []string) any {
	optional := false
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		optional = true
		v = v.Elem()
	}

	if v.Type() == timeType {
		t := v.Interface().(time.Time)
		if t.IsZero() {
			return nil
		}
		return t.UTC().Format(TimeFormat)
	}

	if valuer, ok := v.Interface().(driver.Valuer); ok {
		value, err := valuer.Value()
		if err != nil {
			return nil
		}
		return value
	}

	switch v.Kind() {
	case reflect.String:
		s := normalizers.ApplyChain(v.String(), chain...)
		if optional && strings.TrimSpace(s) == "" {
			return nil
		}
		return s
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	default:
		return nil
	}
}
