package model

import (
	"encoding/json"
	"strconv"
)

// Numeral is a column value that is emitted as a JSON number when it was parsed,
// and as the original JSON string otherwise.
type Numeral struct {
	Raw    string
	Value  float64
	Parsed bool
}

// NewRawNumeral returns a Numeral that keeps s as text
func NewRawNumeral(s string) Numeral {
	return Numeral{Raw: s}
}

// NewParsedNumeral returns a Numeral holding v
func NewParsedNumeral(raw string, v float64) Numeral {
	return Numeral{Raw: raw, Value: v, Parsed: true}
}

func (n Numeral) MarshalJSON() ([]byte, error) {
	if n.Parsed {
		return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
	}
	return json.Marshal(n.Raw)
}

func (n *Numeral) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*n = NewRawNumeral(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = NewParsedNumeral(string(data), f)
	return nil
}

// LocationResult is the structured location returned alongside a location answer
type LocationResult struct {
	Address          string              `json:"address"`
	AddressLink      string              `json:"addressLink"`
	Confidence       int                 `json:"confidence"`
	Description      string              `json:"description"`
	HoursOfOperation []map[string]string `json:"hoursOfOperation"`
	ID               string              `json:"id"`
	IsSaved          bool                `json:"isSaved"`
	Latitude         Numeral             `json:"latitude"`
	Longitude        Numeral             `json:"longitude"`
	Name             string              `json:"name"`
	Phone            string              `json:"phone"`
	Rating           Numeral             `json:"rating"`
	Website          string              `json:"website"`
}
