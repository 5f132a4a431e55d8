package parsers

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// CSVParser parses people from CSV format.
type CSVParser struct{}

// Parse reads CSV from the reader and returns parsed people.
// Expected columns: id, name, gender, birth_year, death_year, father_id,
// mother_id, spouse_ids, contact, image. Only name is required; spouse_ids
// are separated by semicolons.
func (p *CSVParser) Parse(r io.Reader) ([]RawPerson, error) {
	reader := csv.NewReader(r)

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	return p.readRecords(reader, colIndex)
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading CSV header")
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.TrimSpace(col)] = i
	}

	if _, ok := colIndex["name"]; !ok {
		return nil, errors.New("missing required column: name")
	}

	return colIndex, nil
}

// readRecords reads all data rows and converts them to RawPersons.
func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) ([]RawPerson, error) {
	people := []RawPerson{}
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNum)
		}

		person, err := p.parseRecord(record, colIndex, lineNum)
		if err != nil {
			return nil, err
		}
		people = append(people, person)
	}

	return people, nil
}

// parseRecord converts a CSV record to a RawPerson.
func (p *CSVParser) parseRecord(record []string, colIndex map[string]int, lineNum int) (RawPerson, error) {
	person := RawPerson{
		ID:       getColumn(record, colIndex, "id"),
		Name:     getColumn(record, colIndex, "name"),
		Gender:   getColumn(record, colIndex, "gender"),
		FatherID: getColumn(record, colIndex, "father_id"),
		MotherID: getColumn(record, colIndex, "mother_id"),
		Contact:  getColumn(record, colIndex, "contact"),
		Image:    getColumn(record, colIndex, "image"),
		LineNum:  lineNum,
	}

	for _, col := range []struct {
		name string
		dst  **int
	}{
		{"birth_year", &person.BirthYear},
		{"death_year", &person.DeathYear},
	} {
		s := getColumn(record, colIndex, col.name)
		if s == "" {
			continue
		}
		y, err := strconv.Atoi(s)
		if err != nil {
			return RawPerson{}, errors.Wrapf(err, "line %d: invalid %s value %q", lineNum, col.name, s)
		}
		*col.dst = &y
	}

	if s := getColumn(record, colIndex, "spouse_ids"); s != "" {
		for _, id := range strings.Split(s, ";") {
			if id = strings.TrimSpace(id); id != "" {
				person.SpouseIDs = append(person.SpouseIDs, id)
			}
		}
	}

	return person, nil
}

// getColumn safely retrieves a trimmed column value from a record.
func getColumn(record []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}
