package source_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/ariadne/pkg/service/source"
)

func TestParseLocations(t *testing.T) {
	input := "\ufeffid,name,address,city,state,zip_code,latitude,longitude,description,sunday_hours,embedding\n" +
		"l1,Brazos Valley Counseling,100 Main St,Bryan,TX,77803,30.67,-96.37,\"Counseling, walk-ins\",closed,\"[0.1,0.2]\"\n" +
		"l2,Short Row\n" +
		"l3,Coastal Dental,5 Shore Dr,Corpus Christi,TX,78401,27.8,-97.4,Dental care,9-1,\n"

	rows, err := source.ParseLocations(strings.NewReader(input))
	gt.NoError(t, err).Required()
	gt.Array(t, rows).Length(3)

	gt.Value(t, rows[0].Row).Equal(1)
	gt.NoError(t, rows[0].Err)
	loc := rows[0].Location
	gt.Value(t, loc.ID).Equal("l1")
	gt.Value(t, loc.Name).Equal("Brazos Valley Counseling")
	gt.Value(t, loc.Description).Equal("Counseling, walk-ins")
	gt.Value(t, loc.Longitude).Equal("-96.37")
	gt.Value(t, loc.Hours[0]).Equal("closed")
	gt.Array(t, loc.Embedding).Length(0)

	gt.Value(t, rows[1].Err).NotNil()
	gt.Value(t, rows[1].Location).Nil()

	gt.NoError(t, rows[2].Err)
	gt.Value(t, rows[2].Location.City).Equal("Corpus Christi")
}

func TestParseLocations_HeaderErrors(t *testing.T) {
	_, err := source.ParseLocations(strings.NewReader(""))
	gt.Value(t, err).NotNil()

	_, err = source.ParseLocations(strings.NewReader("id,city\n1,Bryan\n"))
	gt.Value(t, err).NotNil()
}

func TestParseDocuments(t *testing.T) {
	input := "id,content,source\n" +
		"d1,Breastfeeding helps prevent mastitis,oliviahealth.org\n" +
		"d2,,oliviahealth.org\n"

	rows, err := source.ParseDocuments(strings.NewReader(input))
	gt.NoError(t, err).Required()
	gt.Array(t, rows).Length(2)

	gt.NoError(t, rows[0].Err)
	gt.Value(t, rows[0].Document.ID).Equal("d1")
	gt.Value(t, rows[0].Document.Content).Equal("Breastfeeding helps prevent mastitis")
	gt.Value(t, rows[0].Document.Metadata["source"]).Equal("oliviahealth.org")

	gt.Value(t, rows[1].Err).NotNil()

	_, err = source.ParseDocuments(strings.NewReader("id,text\n1,x\n"))
	gt.Value(t, err).NotNil()
}
