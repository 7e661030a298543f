package catalog

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// Slugify lowercases value and collapses every run of non [a-z0-9]
// characters into one underscore.
func Slugify(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return ""
	}
	var b strings.Builder
	lastUnderscore := false
	for _, r := range value {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}

// ShortHash is the first 4 bytes of sha1(value) in hex.
func ShortHash(value string) string {
	sum := sha1.Sum([]byte(value))
	return hex.EncodeToString(sum[:4])
}

func internshipID(i Internship) string {
	key := strings.Join([]string{i.Title, i.Sector, i.Location, i.Company}, "|")
	slug := Slugify(i.Title)
	if slug == "" {
		slug = "internship"
	}
	if len(slug) > 48 {
		slug = strings.TrimRight(slug[:48], "_")
	}
	return slug + "-" + ShortHash(key)
}
