package model

import (
	"encoding/json"
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

// ErrMalformedDocumentEncoding is returned when a document's content does not decode
// into the expected ordered field list.
var ErrMalformedDocumentEncoding = errors.New("malformed document encoding")

// Field is one named column value of a Record
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Record is an ordered list of named column values. It is the page content of
// documents built from table rows; field order and names are part of the encoding.
type Record struct {
	Fields []Field `json:"fields"`
}

// Get returns the value of the named field
func (r Record) Get(name string) (string, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Names returns the field names in order
func (r Record) Names() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}

// Map returns the fields as a name to value map
func (r Record) Map() map[string]string {
	m := make(map[string]string, len(r.Fields))
	for _, f := range r.Fields {
		m[f.Name] = f.Value
	}
	return m
}

// Encode serializes the record into document content
func (r Record) Encode() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", goerr.Wrap(err, "failed to encode record")
	}
	return string(data), nil
}

// DecodeRecord parses document content and checks it carries exactly columns, in order.
func DecodeRecord(content string, columns []string) (Record, error) {
	var r Record
	if err := json.Unmarshal([]byte(content), &r); err != nil {
		return Record{}, goerr.Wrap(ErrMalformedDocumentEncoding, "content is not a record",
			goerr.V("cause", err.Error()))
	}

	if len(r.Fields) != len(columns) {
		return Record{}, goerr.Wrap(ErrMalformedDocumentEncoding, "unexpected field count",
			goerr.V("expected", len(columns)),
			goerr.V("actual", len(r.Fields)))
	}

	for i, col := range columns {
		if r.Fields[i].Name != col {
			return Record{}, goerr.Wrap(ErrMalformedDocumentEncoding, "unexpected field order",
				goerr.V("index", i),
				goerr.V("expected", col),
				goerr.V("actual", r.Fields[i].Name))
		}
	}

	return r, nil
}
