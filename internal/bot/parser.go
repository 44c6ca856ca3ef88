// Package bot – upload parsing
//
// This file parses the admin's structured upload line:
//
//	Título (Año) | alias1, alias2 | enlace
//
// The year in parentheses is mandatory; it anchors the metadata search so a
// remake cannot shadow the intended release. On any validation failure the
// conversation state is retained by the caller so the admin can resend.
package bot

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrUploadFormat means the line does not have the three |-separated
	// segments.
	ErrUploadFormat = errors.New("upload must be: Título (Año) | nombres | enlace")

	// ErrUploadYear means the first segment has no (YYYY) token.
	ErrUploadYear = errors.New("upload title must include the year in parentheses")

	// ErrUploadLink means the third segment is blank.
	ErrUploadLink = errors.New("upload link must not be empty")
)

// yearRE matches a 4-digit year in parentheses anywhere in the title segment.
var yearRE = regexp.MustCompile(`\((\d{4})\)`)

// Upload is a parsed admin upload line.
type Upload struct {
	Title   string   // year token stripped, trimmed
	Year    int      // from the (YYYY) token
	Aliases []string // second segment split on commas, each trimmed
	Link    string   // trimmed
}

// ParseUpload validates and decomposes an upload line.
func ParseUpload(text string) (*Upload, error) {
	parts := strings.SplitN(text, "|", 3)
	if len(parts) < 3 {
		return nil, ErrUploadFormat
	}

	titleSeg := parts[0]
	m := yearRE.FindStringSubmatch(titleSeg)
	if m == nil {
		return nil, ErrUploadYear
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, ErrUploadYear
	}

	title := strings.TrimSpace(yearRE.ReplaceAllString(titleSeg, ""))
	if title == "" {
		return nil, ErrUploadFormat
	}

	link := strings.TrimSpace(parts[2])
	if link == "" {
		return nil, ErrUploadLink
	}

	var aliases []string
	for _, a := range strings.Split(parts[1], ",") {
		if t := strings.TrimSpace(a); t != "" {
			aliases = append(aliases, t)
		}
	}

	return &Upload{Title: title, Year: year, Aliases: aliases, Link: link}, nil
}
