// Package tracker writes markdown application trackers: one file per applied
// internship with YAML frontmatter that other tools can update.
package tracker

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/your-org/internmatch/internal/catalog"
)

// StatusApplied is the status of a freshly created tracker.
const StatusApplied = "Applied"

const delimiter = "---"

var (
	errNoFrontmatter      = errors.New("missing frontmatter")
	errInvalidFrontmatter = errors.New("invalid frontmatter")
)

// Application is what gets recorded when a user applies.
type Application struct {
	InternshipID string
	Applicant    string
	Company      string
	Position     string
	Sector       string
	Location     string
	Duration     string
	Stipend      string
	Skills       []string
	Date         time.Time
}

// Frontmatter is the YAML header of a tracker file.
type Frontmatter struct {
	Company         string   `yaml:"company"`
	Position        string   `yaml:"position"`
	Sector          string   `yaml:"sector,omitempty"`
	Location        string   `yaml:"location,omitempty"`
	Duration        string   `yaml:"duration,omitempty"`
	Stipend         string   `yaml:"stipend,omitempty"`
	Status          string   `yaml:"status"`
	NextAction      []string `yaml:"next_action,omitempty"`
	ApplicationDate string   `yaml:"application_date"`
	Applicant       string   `yaml:"applicant"`
	InternshipID    string   `yaml:"internship_id,omitempty"`
}

// Slug names the tracker file for app.
func Slug(app Application) string {
	company := catalog.Slugify(app.Company)
	position := catalog.Slugify(app.Position)
	switch {
	case company != "" && position != "":
		return company + "-" + position
	case position != "":
		return position
	case company != "":
		return company
	case app.InternshipID != "":
		return "internship-" + catalog.Slugify(app.InternshipID)
	}
	return "internship-unknown"
}

// Create writes a tracker for app under dir and returns its path. Existing
// trackers are never overwritten; a numeric suffix is added instead.
func Create(dir string, app Application) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	date := app.Date
	if date.IsZero() {
		date = time.Now()
	}
	dateStr := date.Format("2006-01-02")

	fm := Frontmatter{
		Company:         orDefault(app.Company, "Unknown Company"),
		Position:        orDefault(app.Position, "Unknown Position"),
		Sector:          strings.TrimSpace(app.Sector),
		Location:        strings.TrimSpace(app.Location),
		Duration:        strings.TrimSpace(app.Duration),
		Stipend:         strings.TrimSpace(app.Stipend),
		Status:          StatusApplied,
		NextAction:      []string{"Wait for feedback"},
		ApplicationDate: dateStr,
		Applicant:       app.Applicant,
		InternshipID:    app.InternshipID,
	}
	header, err := yaml.Marshal(fm)
	if err != nil {
		return "", err
	}

	var body strings.Builder
	body.WriteString("\n## Internship\n")
	fmt.Fprintf(&body, "%s at %s", fm.Position, fm.Company)
	if fm.Location != "" {
		fmt.Fprintf(&body, " (%s)", fm.Location)
	}
	body.WriteString("\n")
	if len(app.Skills) > 0 {
		fmt.Fprintf(&body, "\nRequired skills: %s\n", strings.Join(app.Skills, ", "))
	}
	body.WriteString("\n## Notes\n- Created via internmatch\n")

	path, err := uniqueFilePath(dir, fmt.Sprintf("%s-%s.md", dateStr, Slug(app)))
	if err != nil {
		return "", err
	}
	content := delimiter + "\n" + string(header) + delimiter + "\n" + body.String()
	// never overwrite an existing tracker
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

func uniqueFilePath(dir, filename string) (string, error) {
	path := filepath.Join(dir, filename)
	if _, err := os.Stat(path); err != nil {
		return path, nil
	}
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	ext := filepath.Ext(filename)
	for i := 1; i < 1000; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s-%d%s", base, i, ext))
		if _, err := os.Stat(candidate); err != nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free tracker name for %s", filename)
}

// split separates the frontmatter YAML from the rest of the document.
func split(content []byte) (header, rest []byte, err error) {
	if !bytes.HasPrefix(content, []byte(delimiter)) {
		return nil, nil, errNoFrontmatter
	}
	parts := bytes.SplitN(content, []byte(delimiter), 3)
	if len(parts) < 3 {
		return nil, nil, errInvalidFrontmatter
	}
	return parts[1], parts[2], nil
}

// Read parses the frontmatter and returns it with the markdown body.
func Read(path string) (Frontmatter, string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Frontmatter{}, "", err
	}
	header, rest, err := split(content)
	if err != nil {
		return Frontmatter{}, "", err
	}
	var fm Frontmatter
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return Frontmatter{}, "", fmt.Errorf("%w: %v", errInvalidFrontmatter, err)
	}
	return fm, strings.TrimPrefix(string(rest), "\n"), nil
}

// UpdateStatus sets the frontmatter status of the tracker at path, keeping
// every other key and its order. With dryRun nothing is written.
func UpdateStatus(path, status string, dryRun bool) error {
	status = strings.TrimSpace(status)
	if status == "" {
		return errors.New("status is required")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	header, rest, err := split(content)
	if err != nil {
		return err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(header, &doc); err != nil {
		return fmt.Errorf("%w: %v", errInvalidFrontmatter, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return errInvalidFrontmatter
	}
	setKey(doc.Content[0], "status", status)

	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	buf.WriteString(delimiter)
	buf.Write(rest)

	if dryRun {
		return nil
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func setKey(m *yaml.Node, key, value string) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
			return
		}
	}
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value})
}
