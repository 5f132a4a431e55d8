// Package parsers provides parsers for importing people from various formats.
// The formats match what `kinship export` writes.
package parsers

import (
	"io"
	"path/filepath"
	"strings"
)

// RawPerson represents a person parsed from an external source before validation.
type RawPerson struct {
	ID        string   `json:"id,omitempty"`
	Name      string   `json:"name"`
	Gender    string   `json:"gender,omitempty"`
	BirthYear *int     `json:"birth_year,omitempty"`
	DeathYear *int     `json:"death_year,omitempty"`
	FatherID  string   `json:"father_id,omitempty"`
	MotherID  string   `json:"mother_id,omitempty"`
	SpouseIDs []string `json:"spouse_ids,omitempty"`
	Contact   string   `json:"contact,omitempty"`
	Image     string   `json:"image,omitempty"`
	LineNum   int      `json:"-"` // Line number in source file (set by parser)
}

// Parser defines the interface for parsing people from various formats.
type Parser interface {
	Parse(r io.Reader) ([]RawPerson, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &JSONParser{}
	case ".csv":
		return &CSVParser{}
	default:
		return nil
	}
}
