package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"doctrack/internal/domain"
)

// BOM is the UTF-8 byte order mark, for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns is the tracker header row shared by every format.
var columns = []string{
	"Document",
	"Kind",
	"Action",
	"From Department",
	"To Department",
	"Acted By",
	"Remarks",
	"Date",
}

// entryToRow converts one resolved timeline entry into tracker columns.
func entryToRow(e *domain.TimelineEntry) []string {
	return []string{
		e.DocumentCode,
		string(e.DocumentKind),
		string(e.Action),
		e.FromDepartmentName,
		e.ToDepartmentName,
		e.ActedByName,
		e.Remarks,
		e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename makes name safe for a Content-Disposition header.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "tracker"
	}
	return s
}

// BuildFilename returns "{name}_{YYYY-MM-DD}.{ext}".
func BuildFilename(name, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", SanitizeFilename(name), now.Format("2006-01-02"), ext)
}
