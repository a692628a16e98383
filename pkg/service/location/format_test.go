package location_test

import (
	"encoding/json"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
	"github.com/secmon-lab/ariadne/pkg/service/location"
)

func encodeLocation(t *testing.T, loc *model.Location) *model.Document {
	t.Helper()
	rec, err := loc.Record(model.LocationColumns)
	gt.NoError(t, err).Required()
	content, err := rec.Encode()
	gt.NoError(t, err).Required()
	return &model.Document{ID: loc.ID, Content: content, Metadata: rec.Map()}
}

func TestFormat(t *testing.T) {
	loc := &model.Location{
		ID:          "loc-1",
		Name:        "Brazos Valley Counseling",
		Address:     "100 Main St",
		City:        "Bryan",
		State:       "TX",
		ZipCode:     "77803",
		Latitude:    "30",
		Longitude:   "-97.5",
		Description: "Mental health support ## walk-ins welcome",
		Phone:       "555-0100",
		Hours:       [7]string{"closed", "8-5", "8-5", "8-5", "8-5", "8-3", "closed"},
		Rating:      "4.5",
		AddressLink: "https://maps.example.com/1",
		Website:     "https://example.com",
	}

	results, err := location.Format([]*model.Document{encodeLocation(t, loc)}, model.LocationColumns)
	gt.NoError(t, err).Required()
	gt.Array(t, results).Length(1)

	r := results[0]
	gt.Value(t, r.Address).Equal("100 Main St, Bryan, TX 77803")
	gt.Value(t, r.Confidence).Equal(1)
	gt.Bool(t, r.IsSaved).False()
	gt.Value(t, r.ID).Equal("loc-1")
	gt.Value(t, r.Description).Equal("Mental health support ## walk-ins welcome")

	gt.Array(t, r.HoursOfOperation).Length(7)
	gt.Value(t, r.HoursOfOperation[0]["sunday"]).Equal("closed")
	gt.Value(t, r.HoursOfOperation[5]["friday"]).Equal("8-3")

	t.Run("digit-only latitude is parsed", func(t *testing.T) {
		gt.Bool(t, r.Latitude.Parsed).True()
		gt.Value(t, r.Latitude.Value).Equal(30.0)
	})

	t.Run("negative longitude stays a string", func(t *testing.T) {
		gt.Bool(t, r.Longitude.Parsed).False()
		gt.Value(t, r.Longitude.Raw).Equal("-97.5")
	})

	t.Run("fractional rating stays a string", func(t *testing.T) {
		gt.Bool(t, r.Rating.Parsed).False()
		gt.Value(t, r.Rating.Raw).Equal("4.5")
	})

	t.Run("JSON shape", func(t *testing.T) {
		data, err := json.Marshal(r)
		gt.NoError(t, err).Required()

		var m map[string]any
		gt.NoError(t, json.Unmarshal(data, &m)).Required()
		gt.Value(t, m["latitude"]).Equal(any(30.0))
		gt.Value(t, m["longitude"]).Equal(any("-97.5"))
		gt.Value(t, m["rating"]).Equal(any("4.5"))
		gt.Value(t, m["confidence"]).Equal(any(1.0))
		gt.Value(t, m["isSaved"]).Equal(any(false))
		gt.Value(t, m["addressLink"]).Equal(any("https://maps.example.com/1"))
	})
}

func TestFormat_SelectedColumns(t *testing.T) {
	columns := []string{"id", "name", "city", "description"}
	rec, err := (&model.Location{
		ID:          "loc-2",
		Name:        "Aggieland Dental",
		City:        "College Station",
		Description: "Sliding scale fees",
		Phone:       "555-0199",
	}).Record(columns)
	gt.NoError(t, err).Required()
	content, err := rec.Encode()
	gt.NoError(t, err).Required()
	doc := &model.Document{ID: "loc-2", Content: content}

	results, err := location.Format([]*model.Document{doc}, columns)
	gt.NoError(t, err).Required()
	gt.Array(t, results).Length(1).Required()

	r := results[0]
	gt.Value(t, r.ID).Equal("loc-2")
	gt.Value(t, r.Name).Equal("Aggieland Dental")
	gt.Value(t, r.Address).Equal("College Station")
	gt.Value(t, r.Description).Equal("Sliding scale fees")
	gt.Value(t, r.Phone).Equal("")
	gt.Value(t, r.HoursOfOperation[1]["monday"]).Equal("")
	gt.Value(t, r.Confidence).Equal(1)

	t.Run("default columns do not match a narrower encoding", func(t *testing.T) {
		_, err := location.Format([]*model.Document{doc}, nil)
		gt.Error(t, err).Is(model.ErrMalformedDocumentEncoding)
	})
}

func TestFormat_Malformed(t *testing.T) {
	good := encodeLocation(t, &model.Location{ID: "ok", Name: "Ok"})

	t.Run("content that is not a record", func(t *testing.T) {
		_, err := location.Format([]*model.Document{good, {ID: "bad", Content: "a##b##c"}}, nil)
		gt.Error(t, err).Is(model.ErrMalformedDocumentEncoding)
	})

	t.Run("wrong column order", func(t *testing.T) {
		rec, err := (&model.Location{Name: "x"}).Record([]string{"name", "id"})
		gt.NoError(t, err).Required()
		content, err := rec.Encode()
		gt.NoError(t, err).Required()

		results, err := location.Format([]*model.Document{good, {Content: content}}, nil)
		gt.Error(t, err).Is(model.ErrMalformedDocumentEncoding)
		gt.Value(t, results).Nil()
	})

	t.Run("empty input", func(t *testing.T) {
		results, err := location.Format(nil, nil)
		gt.NoError(t, err).Required()
		gt.Array(t, results).Length(0)
	})
}

func TestParseNumeral(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		parsed bool
		value  float64
	}{
		{name: "digits", input: "42", parsed: true, value: 42},
		{name: "surrounding whitespace", input: " 7 ", parsed: true, value: 7},
		{name: "negative", input: "-97.5"},
		{name: "decimal", input: "30.62"},
		{name: "empty", input: ""},
		{name: "blank", input: "  "},
		{name: "text", input: "N/A"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n := location.ParseNumeral(tc.input)
			gt.Value(t, n.Parsed).Equal(tc.parsed)
			gt.Value(t, n.Raw).Equal(tc.input)
			if tc.parsed {
				gt.Value(t, n.Value).Equal(tc.value)
			}
		})
	}
}
