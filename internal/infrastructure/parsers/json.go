package parsers

import (
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
)

// JSONParser parses people from a JSON array.
type JSONParser struct{}

// Parse reads JSON from the reader and returns parsed people.
func (p *JSONParser) Parse(r io.Reader) ([]RawPerson, error) {
	var people []RawPerson

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&people); err != nil {
		return nil, errors.Wrap(err, "parsing JSON")
	}

	// Set line numbers (array index + 1, 1-indexed)
	for i := range people {
		people[i].LineNum = i + 1
	}

	return people, nil
}
