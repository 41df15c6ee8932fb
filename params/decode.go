package params

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gorilla/schema"
	"github.com/xy-planning-network/querykit"
)

func newQueryParamDecoder() *schema.Decoder {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)

	return dec
}

// translateDecoderError converts an error returned by *schema.Decoder into standardized errors.
// Some *schema.Decoder errors are issues with calling code;
// some errors are unexpected issues;
// still some are issues with mismatches between query params and the expected shape.
func translateDecoderError(err error) error {
	var pkgErrs schema.MultiError
	// NOTE(querykit): outside the cases handled here,
	// schema appears to always wrap errors up in a MultiError.
	if !errors.As(err, &pkgErrs) {
		if strings.Contains(err.Error(), "schema: interface must be a pointer to struct") {
			return fmt.Errorf("%w: %s", querykit.ErrUnaddressable, err)
		}

		return fmt.Errorf("%w: %s", querykit.ErrNotValid, err)
	}

	var validErrs ValidationErrors
	for _, pkgErr := range pkgErrs {
		switch err := pkgErr.(type) {
		case schema.ConversionError:
			validErrs = append(validErrs, ValidationError{
				Field: err.Key,
				// NOTE(querykit): for non-slice values, err.Index is -1.
				Got:  fmt.Sprintf("bad value at index %d", max(0, err.Index)),
				Rule: "must be " + err.Type.String(),
			})

		case schema.EmptyFieldError:
			return fmt.Errorf(`%w: use validate tags to set "required" fields, not schema`, querykit.ErrNotImplemented)

		case schema.UnknownKeyError:
			validErrs = append(validErrs, ValidationError{
				Field: err.Key,
				Got:   "value is set",
				Rule:  "unexpected key should not be set",
			})

		default:
			// NOTE(querykit): a field whose type needs a converter that was never registered
			// only errors once a value arrives for it.
			if strings.Contains(err.Error(), "schema: converter not found for") {
				return fmt.Errorf("%w: cannot convert values into unsupported type", querykit.ErrNotImplemented)
			}

			return fmt.Errorf("%w: %s", querykit.ErrUnexpected, err)
		}
	}

	return validErrs
}
