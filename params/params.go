package params

import (
	"fmt"
	"net/url"
	"reflect"

	"github.com/xy-planning-network/querykit"
	"github.com/xy-planning-network/querykit/database"
	"github.com/xy-planning-network/querykit/kit"
)

// FromValues converts values into kit.Params.
//
// A key with one value maps to that value; a key with many maps to all of them.
// Keys without values are dropped.
func FromValues(values url.Values) kit.Params {
	p := make(kit.Params, len(values))
	for key, vals := range values {
		switch len(vals) {
		case 0:
		case 1:
			p[key] = vals[0]
		default:
			p[key] = append([]string(nil), vals...)
		}
	}

	return p
}

// FromStruct converts the fields of the struct structPtr points to into kit.Params,
// keyed by each field's schema struct tag or, lacking one, the field's name.
//
// Fields tagged schema:"-" are skipped, as are fields that are unset:
// nil pointers, empty slices, invalid Enumerable values
// and zero values of non-pointer fields.
// Declare a field as a pointer to filter on its zero value, e.g., *int for price=0.
// Pointers to set values are dereferenced.
// Embedded structs contribute their own fields.
func FromStruct(structPtr any) (kit.Params, error) {
	rv := reflect.ValueOf(structPtr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %T is not a pointer to a struct", querykit.ErrUnaddressable, structPtr)
	}

	u := make(database.Updates)
	collect(u, rv.Elem())
	u.StripNils()

	p := make(kit.Params, len(u))
	for key, val := range u {
		if rv := reflect.ValueOf(val); rv.Kind() == reflect.Pointer {
			val = rv.Elem().Interface()
		}

		p[key] = val
	}

	return p, nil
}

// collect adds the exported fields of the struct rv into u.
func collect(u database.Updates, rv reflect.Value) {
	rt := rv.Type()
	for i := range rt.NumField() {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			collect(u, rv.Field(i))
			continue
		}

		name := field.Name
		if tag := field.Tag.Get("schema"); tag != "" {
			if name = tagName(field, "schema"); name == "" {
				continue
			}
		}

		val := rv.Field(i)
		if (val.Kind() == reflect.Slice || val.Kind() == reflect.Map) && val.Len() == 0 {
			continue
		}

		// NOTE(querykit): an absent param and its zero value are indistinguishable
		// on a non-pointer field; filtering on a zero value takes a pointer field.
		if val.Kind() != reflect.Pointer && val.Kind() != reflect.Interface && val.IsZero() {
			continue
		}

		u[name] = val.Interface()
	}
}
