package auctions

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexString accepts both JSON strings and bare numbers. The vision model is
// inconsistent about quoting years and grades.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	*s = FlexString(b)
	return nil
}

// FlexNumber accepts numbers, quoted numbers and lightly formatted values
// like "85,000 km". Unparseable values decode to 0 rather than failing the
// whole extraction payload.
type FlexNumber float64

func (f *FlexNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.' || (end == 0 && s[end] == '-')) {
		end++
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexNumber(v)
	return nil
}

// ExtractedData is the structured result of AI extraction. Known vehicle
// fields get typed slots; anything else the model returns is preserved in
// Extra so newer prompt revisions don't silently lose data.
type ExtractedData struct {
	Make            string     `json:"make,omitempty"`
	Model           string     `json:"model,omitempty"`
	Year            FlexString `json:"year,omitempty"`
	Engine          string     `json:"engine,omitempty"`
	Mileage         FlexNumber `json:"mileage,omitempty"`
	SellingPoints   []string   `json:"sellingPoints,omitempty"`
	DamageNotes     []string   `json:"damageNotes,omitempty"`
	ExteriorGrade   FlexString `json:"exteriorGrade,omitempty"`
	InteriorGrade   FlexString `json:"interiorGrade,omitempty"`
	AuctionDeadline string     `json:"auctionDeadline,omitempty"`

	Extra map[string]any `json:"-"`
}

var knownExtractedKeys = map[string]struct{}{
	"make":            {},
	"model":           {},
	"year":            {},
	"engine":          {},
	"mileage":         {},
	"sellingPoints":   {},
	"damageNotes":     {},
	"exteriorGrade":   {},
	"interiorGrade":   {},
	"auctionDeadline": {},
}

type extractedDataAlias ExtractedData

func (d *ExtractedData) UnmarshalJSON(b []byte) error {
	var alias extractedDataAlias
	if err := json.Unmarshal(b, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for k := range knownExtractedKeys {
		delete(raw, k)
	}
	if len(raw) > 0 {
		alias.Extra = make(map[string]any, len(raw))
		for k, v := range raw {
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				continue
			}
			alias.Extra[k] = val
		}
	}

	*d = ExtractedData(alias)
	return nil
}

func (d ExtractedData) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(extractedDataAlias(d))
	if err != nil {
		return nil, err
	}

	if len(d.Extra) == 0 {
		return base, nil
	}

	var merged map[string]any
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range d.Extra {
		if _, known := knownExtractedKeys[k]; known {
			continue
		}
		merged[k] = v
	}
	return json.Marshal(merged)
}

func (d *ExtractedData) IsEmpty() bool {
	if d == nil {
		return true
	}
	return d.Make == "" && d.Model == "" && d.Year == "" && d.Engine == "" &&
		d.Mileage == 0 && len(d.SellingPoints) == 0 && len(d.DamageNotes) == 0 &&
		d.ExteriorGrade == "" && d.InteriorGrade == "" && d.AuctionDeadline == "" &&
		len(d.Extra) == 0
}
