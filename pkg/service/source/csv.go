package source

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
)

// LocationRow is one parsed data row. Row is 1-based and excludes the header.
// Err is set when the row could not be parsed; Location is nil then.
type LocationRow struct {
	Row      int
	Location *model.Location
	Err      error
}

// DocumentRow is one parsed knowledge-base row
type DocumentRow struct {
	Row      int
	Document *model.Document
	Err      error
}

// readHeader returns the column index by normalized header name
func readHeader(r *csv.Reader) (map[string]int, error) {
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, goerr.New("CSV has no header")
		}
		return nil, goerr.Wrap(err, "failed to read CSV header")
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		index[name] = i
	}
	return index, nil
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false
	return cr
}

// ParseLocations reads a location CSV keyed by column name. Columns that are not
// location columns (such as a precomputed embedding) are ignored. A malformed row is
// reported in its LocationRow and does not stop parsing.
func ParseLocations(r io.Reader) ([]LocationRow, error) {
	cr := newReader(r)
	index, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	if _, ok := index["name"]; !ok {
		return nil, goerr.New("CSV header has no name column")
	}

	var rows []LocationRow
	for n := 1; ; n++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				rows = append(rows, LocationRow{Row: n, Err: goerr.Wrap(err, "malformed CSV row")})
				continue
			}
			return nil, goerr.Wrap(err, "failed to read CSV", goerr.V("row", n))
		}

		if len(record) != len(index) {
			rows = append(rows, LocationRow{Row: n, Err: goerr.New("unexpected field count",
				goerr.V("expected", len(index)),
				goerr.V("actual", len(record)))})
			continue
		}

		loc := &model.Location{}
		for col, i := range index {
			loc.SetValue(col, strings.TrimSpace(record[i]))
		}
		rows = append(rows, LocationRow{Row: n, Location: loc})
	}
	return rows, nil
}

// ParseDocuments reads a knowledge-base CSV. The content column becomes the document
// content, an optional id column its ID, and every other column metadata.
func ParseDocuments(r io.Reader) ([]DocumentRow, error) {
	cr := newReader(r)
	index, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	contentIdx, ok := index["content"]
	if !ok {
		return nil, goerr.New("CSV header has no content column")
	}

	var rows []DocumentRow
	for n := 1; ; n++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				rows = append(rows, DocumentRow{Row: n, Err: goerr.Wrap(err, "malformed CSV row")})
				continue
			}
			return nil, goerr.Wrap(err, "failed to read CSV", goerr.V("row", n))
		}

		if len(record) != len(index) {
			rows = append(rows, DocumentRow{Row: n, Err: goerr.New("unexpected field count",
				goerr.V("expected", len(index)),
				goerr.V("actual", len(record)))})
			continue
		}

		doc := &model.Document{
			Content:  record[contentIdx],
			Metadata: make(map[string]string),
		}
		for col, i := range index {
			switch col {
			case "content":
			case "id":
				doc.ID = record[i]
			default:
				doc.Metadata[col] = record[i]
			}
		}
		if strings.TrimSpace(doc.Content) == "" {
			rows = append(rows, DocumentRow{Row: n, Err: goerr.New("content is empty")})
			continue
		}
		rows = append(rows, DocumentRow{Row: n, Document: doc})
	}
	return rows, nil
}
