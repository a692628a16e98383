package location

import (
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
)

// Format turns retrieved location documents into structured results, in document order.
// columns is the ordered column set the index encoded; nil means model.LocationColumns.
// Every document must decode against it, otherwise the whole call fails with
// model.ErrMalformedDocumentEncoding and no partial result is returned. Result fields
// whose column was not selected are left empty.
func Format(docs []*model.Document, columns []string) ([]*model.LocationResult, error) {
	if len(columns) == 0 {
		columns = model.LocationColumns
	}

	results := make([]*model.LocationResult, 0, len(docs))
	for i, doc := range docs {
		rec, err := model.DecodeRecord(doc.Content, columns)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to decode location document",
				goerr.V("index", i),
				goerr.V("id", doc.ID))
		}
		results = append(results, toResult(rec))
	}
	return results, nil
}

func toResult(rec model.Record) *model.LocationResult {
	v := func(name string) string {
		s, _ := rec.Get(name)
		return s
	}

	hours := make([]map[string]string, len(model.Weekdays))
	for i, day := range model.Weekdays {
		hours[i] = map[string]string{day: v(day + "_hours")}
	}

	return &model.LocationResult{
		Address:          joinAddress(v("address"), v("city"), v("state"), v("zip_code")),
		AddressLink:      v("address_link"),
		Confidence:       1,
		Description:      v("description"),
		HoursOfOperation: hours,
		ID:               v("id"),
		IsSaved:          false,
		Latitude:         ParseNumeral(v("latitude")),
		Longitude:        ParseNumeral(v("longitude")),
		Name:             v("name"),
		Phone:            v("phone"),
		Rating:           ParseNumeral(v("rating")),
		Website:          v("website"),
	}
}

// joinAddress renders "street, city, state zip", skipping parts that are empty
func joinAddress(street, city, state, zip string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{street, city, strings.TrimSpace(state + " " + zip)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// ParseNumeral converts s to a number only when it consists solely of decimal digits
// (surrounding whitespace aside). Anything else, including signed or fractional values
// such as "-97.5" or "4.5", is kept as the raw string.
//
// Western-hemisphere longitudes therefore come out as strings. Clients depend on this
// response shape, so widening the policy is a breaking change.
func ParseNumeral(s string) model.Numeral {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return model.NewRawNumeral(s)
	}
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return model.NewRawNumeral(s)
		}
	}

	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return model.NewRawNumeral(s)
	}
	return model.NewParsedNumeral(s, f)
}
