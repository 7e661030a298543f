package catalog

import "strings"

// Internship is one row of the static catalog.
type Internship struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Company           string   `json:"company,omitempty"`
	Sector            string   `json:"sector"`
	RequiredSkills    []string `json:"required_skills,omitempty"`
	EducationRequired string   `json:"education_required,omitempty"`
	Location          string   `json:"location,omitempty"`
	Duration          string   `json:"duration,omitempty"`
	Stipend           string   `json:"stipend,omitempty"`
}

// Document is the text the vectorizer sees for this internship.
func (i Internship) Document() string {
	return strings.Join([]string{
		i.Title,
		i.Sector,
		strings.Join(i.RequiredSkills, " "),
		i.EducationRequired,
		i.Location,
	}, " ")
}
