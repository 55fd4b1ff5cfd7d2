package waitlist

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// UrgencyLevel describes one urgency tier. Levels are listed highest priority
// first; the position in the list is the sort rank.
type UrgencyLevel struct {
	Code  string `yaml:"code" json:"code"`
	Label string `yaml:"label" json:"label"`
}

// Catalog holds the fixed lists the clinic works with. It is passed by value
// into the engines instead of being read from package state, so tests can use
// their own lists.
type Catalog struct {
	SurgeryTypes []string       `yaml:"surgery_types" json:"surgery_types"`
	Statuses     []string       `yaml:"statuses" json:"statuses"`
	Urgencies    []UrgencyLevel `yaml:"urgencies" json:"urgencies"`
}

// DefaultCatalog returns the ophthalmic surgery catalog.
func DefaultCatalog() Catalog {
	return Catalog{
		SurgeryTypes: []string{
			"Phacoemulsification",
			"Pars Plana Vitrectomy",
			"Ahmed Glaucoma Valve",
			"Silicone Oil Removal",
			"Silicone Oil Injection",
			"Secondary IOL Implantation",
		},
		Statuses: []string{
			StatusWaiting,
			StatusPreOp,
			StatusReady,
			StatusScheduled,
			StatusCompleted,
		},
		Urgencies: []UrgencyLevel{
			{Code: UrgencyUrgent, Label: "Urgent"},
			{Code: UrgencySoon, Label: "Soon"},
			{Code: UrgencyRoutine, Label: "Routine"},
		},
	}
}

// LoadCatalog reads a YAML catalog file. Sections left empty in the file keep
// the default values.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes YAML catalog content.
func ParseCatalog(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	def := DefaultCatalog()
	if len(c.SurgeryTypes) == 0 {
		c.SurgeryTypes = def.SurgeryTypes
	}
	if len(c.Statuses) == 0 {
		c.Statuses = def.Statuses
	}
	if len(c.Urgencies) == 0 {
		c.Urgencies = def.Urgencies
	}
	for i, u := range c.Urgencies {
		if u.Code == "" {
			return Catalog{}, fmt.Errorf("parse catalog: urgency %d has no code", i)
		}
	}
	return c, nil
}

// UrgencyRank returns the sort rank of an urgency code. Codes that are not in
// the catalog rank after every known level.
func (c Catalog) UrgencyRank(code string) int {
	for i, u := range c.Urgencies {
		if u.Code == code {
			return i
		}
	}
	return len(c.Urgencies)
}

// IsKnownUrgency reports whether code is one of the catalog's urgency levels.
func (c Catalog) IsKnownUrgency(code string) bool {
	return c.UrgencyRank(code) < len(c.Urgencies)
}

// IsKnownStatus reports whether status is part of the workflow.
func (c Catalog) IsKnownStatus(status string) bool {
	for _, s := range c.Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsKnownSurgeryType reports whether t is in the surgery type list.
func (c Catalog) IsKnownSurgeryType(t string) bool {
	for _, s := range c.SurgeryTypes {
		if s == t {
			return true
		}
	}
	return false
}
