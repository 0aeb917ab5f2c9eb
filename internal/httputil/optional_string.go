package httputil

import (
	"bytes"
	"encoding/json"
)

// OptionalString is a PATCH field (RFC 7396) that distinguishes "absent"
// from "null". Go's *string collapses the two.
//
//	{}                -> Present=false             keep current value
//	{"model": null}   -> Present=true, Value=nil   reset to default
//	{"model": "x"}    -> Present=true, Value=&"x"  set
type OptionalString struct {
	Present bool
	Value   *string
}

var jsonNull = []byte("null")

// UnmarshalJSON is only called for keys present in the document.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true
	o.Value = nil

	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// Clears reports whether the field was sent as null
func (o OptionalString) Clears() bool {
	return o.Present && o.Value == nil
}
