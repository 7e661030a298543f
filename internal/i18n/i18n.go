// Package i18n holds the UI string tables. English is the reference table;
// any key missing from another language falls back to it.
package i18n

import (
	"embed"
	"fmt"
	"path"

	"gopkg.in/yaml.v3"
)

// Default is the fallback language code.
const Default = "en"

//go:embed locales/*.yaml
var localeFS embed.FS

// order is the display order of the language switcher.
var order = []string{"en", "hi", "mr"}

// Language describes one selectable UI language.
type Language struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"native_name"`
}

// Table maps string keys to translated text.
type Table map[string]string

// Get returns the text for key, or key itself when no table defines it.
func (t Table) Get(key string) string {
	if v, ok := t[key]; ok {
		return v
	}
	return key
}

type localeFile struct {
	Name       string            `yaml:"name"`
	NativeName string            `yaml:"native_name"`
	Strings    map[string]string `yaml:"strings"`
}

var (
	languages []Language
	tables    map[string]Table
)

func init() {
	var err error
	languages, tables, err = load()
	if err != nil {
		panic(err)
	}
}

func load() ([]Language, map[string]Table, error) {
	files := make(map[string]localeFile, len(order))
	for _, code := range order {
		data, err := localeFS.ReadFile(path.Join("locales", code+".yaml"))
		if err != nil {
			return nil, nil, fmt.Errorf("locale %s: %w", code, err)
		}
		var f localeFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, nil, fmt.Errorf("locale %s: %w", code, err)
		}
		files[code] = f
	}

	base := files[Default].Strings
	langs := make([]Language, 0, len(order))
	merged := make(map[string]Table, len(order))
	for _, code := range order {
		f := files[code]
		t := make(Table, len(base))
		for k, v := range base {
			t[k] = v
		}
		for k, v := range f.Strings {
			t[k] = v
		}
		merged[code] = t
		langs = append(langs, Language{Code: code, Name: f.Name, NativeName: f.NativeName})
	}
	return langs, merged, nil
}

// Available lists the supported languages in display order.
func Available() []Language {
	return append([]Language(nil), languages...)
}

// Supported reports whether code names a known language.
func Supported(code string) bool {
	_, ok := tables[code]
	return ok
}

// Normalize maps unknown or empty codes to Default.
func Normalize(code string) string {
	if Supported(code) {
		return code
	}
	return Default
}

// Lookup returns the table for code, falling back to English.
func Lookup(code string) Table {
	return tables[Normalize(code)]
}

// T is shorthand for Lookup(code).Get(key).
func T(code, key string) string {
	return Lookup(code).Get(key)
}
