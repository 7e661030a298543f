package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrCatalogMissing is returned by Load when the CSV file does not exist.
var ErrCatalogMissing = errors.New("internship catalog not found")

var requiredColumns = []string{"title", "sector"}

// Load reads the catalog CSV at path.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCatalogMissing, path)
		}
		return nil, err
	}
	defer f.Close()

	items, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return New(items), nil
}

// Read parses catalog rows from r. The first record is the header; column
// names are matched case-insensitively. Rows without a title or sector are
// skipped.
func Read(r io.Reader) ([]Internship, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty catalog")
		}
		return nil, err
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		cols[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var items []Internship
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		title, sector := field(rec, "title"), field(rec, "sector")
		if title == "" || sector == "" {
			continue
		}
		items = append(items, Internship{
			Title:             title,
			Company:           field(rec, "company"),
			Sector:            sector,
			RequiredSkills:    ParseSkillList(field(rec, "required_skills")),
			EducationRequired: field(rec, "education_required"),
			Location:          field(rec, "location"),
			Duration:          field(rec, "duration"),
			Stipend:           field(rec, "stipend"),
		})
	}
	return items, nil
}

// ParseSkillList accepts a Python or JSON list literal (['a', "b"]) or a
// bare comma separated list. Unbalanced input yields nil.
func ParseSkillList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "nan") {
		return nil
	}
	if strings.HasPrefix(raw, "[") {
		if !strings.HasSuffix(raw, "]") {
			return nil
		}
		raw = raw[1 : len(raw)-1]
	}

	var (
		out   []string
		cur   strings.Builder
		quote rune
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	for _, r := range raw {
		switch {
		case quote != 0 && r == quote:
			quote = 0
		case quote != 0:
			cur.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
		case r == ',':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	if quote != 0 {
		return nil
	}
	flush()
	return out
}
