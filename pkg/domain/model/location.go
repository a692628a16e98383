package model

import (
	"github.com/m-mizutani/goerr/v2"
)

// Weekdays lists day names Sunday-first, the order hours of operation are stored and returned in.
var Weekdays = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// LocationColumns is the default ordered column set of the location table used for retrieval.
var LocationColumns = []string{
	"id", "name", "address", "city", "state", "country", "zip_code", "latitude", "longitude",
	"description", "phone",
	"sunday_hours", "monday_hours", "tuesday_hours", "wednesday_hours", "thursday_hours", "friday_hours", "saturday_hours",
	"rating", "address_link", "website", "resource_type", "county",
}

// Location is one physical or virtual service location. Latitude, Longitude and Rating
// keep the raw text of the source; interpretation happens when results are formatted.
type Location struct {
	ID           string
	Name         string
	Address      string
	City         string
	State        string
	Country      string
	ZipCode      string
	County       string
	Latitude     string
	Longitude    string
	Description  string
	Phone        string
	Hours        [7]string // Sunday-first, see Weekdays
	Rating       string
	AddressLink  string
	Website      string
	ResourceType string
	Embedding    []float32
}

func (l *Location) field(column string) *string {
	switch column {
	case "id":
		return &l.ID
	case "name":
		return &l.Name
	case "address":
		return &l.Address
	case "city":
		return &l.City
	case "state":
		return &l.State
	case "country":
		return &l.Country
	case "zip_code":
		return &l.ZipCode
	case "county":
		return &l.County
	case "latitude":
		return &l.Latitude
	case "longitude":
		return &l.Longitude
	case "description":
		return &l.Description
	case "phone":
		return &l.Phone
	case "rating":
		return &l.Rating
	case "address_link":
		return &l.AddressLink
	case "website":
		return &l.Website
	case "resource_type":
		return &l.ResourceType
	}
	for i, day := range Weekdays {
		if column == day+"_hours" {
			return &l.Hours[i]
		}
	}
	return nil
}

// Value returns the text value of a column
func (l *Location) Value(column string) (string, bool) {
	p := l.field(column)
	if p == nil {
		return "", false
	}
	return *p, true
}

// SetValue sets the text value of a column. Unknown columns are reported with false.
func (l *Location) SetValue(column, value string) bool {
	p := l.field(column)
	if p == nil {
		return false
	}
	*p = value
	return true
}

// IsColumn reports whether name is a text column of the location table
func IsColumn(name string) bool {
	var l Location
	return l.field(name) != nil
}

// Record builds the ordered record of the given columns
func (l *Location) Record(columns []string) (Record, error) {
	r := Record{Fields: make([]Field, 0, len(columns))}
	for _, col := range columns {
		v, ok := l.Value(col)
		if !ok {
			return Record{}, goerr.New("unknown location column", goerr.V("column", col))
		}
		r.Fields = append(r.Fields, Field{Name: col, Value: v})
	}
	return r, nil
}

// Validate checks the location can be stored
func (l *Location) Validate() error {
	if l.Name == "" {
		return goerr.New("location name is required", goerr.V("id", l.ID))
	}
	if len(l.Embedding) > 0 && len(l.Embedding) != EmbeddingDimension {
		return goerr.New("invalid embedding dimension",
			goerr.V("name", l.Name),
			goerr.V("expected", EmbeddingDimension),
			goerr.V("actual", len(l.Embedding)))
	}
	return nil
}

// Copy returns a deep copy of the location
func (l *Location) Copy() *Location {
	c := *l
	if l.Embedding != nil {
		c.Embedding = make([]float32, len(l.Embedding))
		copy(c.Embedding, l.Embedding)
	}
	return &c
}
