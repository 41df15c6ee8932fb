package params

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/gorilla/schema"
	"github.com/xy-planning-network/querykit"
	"github.com/xy-planning-network/querykit/kit"
)

// A Parser decodes request parameters into structs and validates them.
type Parser struct {
	dec *schema.Decoder
	validator
}

// NewParser constructs a Parser.
//
// Unknown query param keys are ignored.
func NewParser() *Parser {
	return &Parser{
		dec:       newQueryParamDecoder(),
		validator: newValidator(),
	}
}

// ParseBody decodes into a pointer to a struct the JSON data in body.
// If successful, ParseBody runs validation against the contents,
// returning an ErrNotValid if the data fails validation rules.
//
// ParseBody reads the entire body and it can't be read from again.
func (p *Parser) ParseBody(body io.Reader, structPtr any) error {
	var ourFault *json.InvalidUnmarshalError
	err := json.NewDecoder(body).Decode(structPtr)
	if errors.As(err, &ourFault) {
		return fmt.Errorf("querykit/params: %w: ParseBody called with non-pointer: %s", querykit.ErrUnaddressable, err)
	}

	if err != nil {
		return fmt.Errorf("querykit/params: %w: failed decoding body: %s", querykit.ErrNotValid, err)
	}

	if err := p.validate(structPtr); err != nil {
		return fmt.Errorf("querykit/params: %T failed validation: %w", structPtr, err)
	}

	return nil
}

// ParseQueryParams decodes into a pointer to a struct the query param data in values.
// If successful, ParseQueryParams runs validation against the contents,
// returning an ErrNotValid if the data fails validation rules.
func (p *Parser) ParseQueryParams(values url.Values, structPtr any) error {
	if err := p.dec.Decode(structPtr, values); err != nil {
		return fmt.Errorf("querykit/params: failed decoding query params: %w", translateDecoderError(err))
	}

	if err := p.validate(structPtr); err != nil {
		return fmt.Errorf("querykit/params: %T failed validation: %w", structPtr, err)
	}

	return nil
}

// Params parses values into structPtr with ParseQueryParams
// and returns the fields set on it as kit.Params, ready for kit.Kit.Filter.
func (p *Parser) Params(values url.Values, structPtr any) (kit.Params, error) {
	if err := p.ParseQueryParams(values, structPtr); err != nil {
		return nil, err
	}

	return FromStruct(structPtr)
}
