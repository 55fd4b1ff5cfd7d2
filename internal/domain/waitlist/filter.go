package waitlist

import (
	"net/url"
	"strings"
)

// legacyAllValue is what older clients send to mean "no filter".
const legacyAllValue = "all"

// Criteria describes the active worklist filters. A nil field matches every
// patient. A non-nil Surgeon pointing at "" selects patients without a
// surgeon, which is different from not filtering on surgeon at all.
type Criteria struct {
	SearchTerm  string  `json:"search,omitempty"`
	Urgency     *string `json:"urgency,omitempty"`
	Status      *string `json:"status,omitempty"`
	Surgeon     *string `json:"surgeon,omitempty"`
	SurgeryType *string `json:"surgery_type,omitempty"`
}

// Matches reports whether p satisfies every active criterion.
func Matches(p *Patient, c Criteria) bool {
	if term := strings.ToLower(c.SearchTerm); term != "" {
		if !strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.PatientID), term) {
			return false
		}
	}
	if c.Urgency != nil && p.Urgency != *c.Urgency {
		return false
	}
	if c.Status != nil && p.Status != *c.Status {
		return false
	}
	if c.Surgeon != nil && p.SurgeonName() != *c.Surgeon {
		return false
	}
	if c.SurgeryType != nil && p.SurgeryType != *c.SurgeryType {
		return false
	}
	return true
}

// Filter returns the patients matching c in their original order.
func Filter(patients []*Patient, c Criteria) []*Patient {
	out := make([]*Patient, 0, len(patients))
	for _, p := range patients {
		if Matches(p, c) {
			out = append(out, p)
		}
	}
	return out
}

// IsEmpty reports whether no criterion is active.
func (c Criteria) IsEmpty() bool {
	return c.SearchTerm == "" && c.Urgency == nil && c.Status == nil &&
		c.Surgeon == nil && c.SurgeryType == nil
}

// CriteriaFromQuery builds criteria from request query parameters. Missing or
// empty parameters and the legacy value "all" leave a filter inactive;
// parameters it does not know are ignored. unassigned=true selects patients
// without a surgeon.
func CriteriaFromQuery(q url.Values) Criteria {
	c := Criteria{SearchTerm: strings.TrimSpace(q.Get("search"))}
	c.Urgency = optionalParam(q, "urgency")
	c.Status = optionalParam(q, "status")
	c.Surgeon = optionalParam(q, "surgeon")
	c.SurgeryType = optionalParam(q, "surgery_type")
	if c.Surgeon == nil && q.Get("unassigned") == "true" {
		blank := ""
		c.Surgeon = &blank
	}
	return c
}

func optionalParam(q url.Values, name string) *string {
	v := strings.TrimSpace(q.Get(name))
	if v == "" || v == legacyAllValue {
		return nil
	}
	return &v
}
