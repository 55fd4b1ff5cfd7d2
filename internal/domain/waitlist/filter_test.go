package waitlist

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func filterFixture() []*Patient {
	return []*Patient{
		{Name: "Alice Moreau", PatientID: "MRN-001", SurgeryType: "Phacoemulsification", Urgency: UrgencyUrgent, Status: StatusWaiting, Surgeon: strPtr("Dr. Chen")},
		{Name: "Bob Okafor", PatientID: "MRN-002", SurgeryType: "Pars Plana Vitrectomy", Urgency: UrgencySoon, Status: StatusReady, Surgeon: strPtr("Dr. Patel")},
		{Name: "Carla Diaz", PatientID: "MRN-003", SurgeryType: "Phacoemulsification", Urgency: UrgencyRoutine, Status: StatusWaiting},
		{Name: "Dmitri Alin", PatientID: "XR-104", SurgeryType: "Ahmed Glaucoma Valve", Urgency: UrgencyUrgent, Status: StatusScheduled, Surgeon: strPtr("Dr. Chen")},
	}
}

func TestFilter_EmptyCriteriaKeepsAll(t *testing.T) {
	in := filterFixture()
	got := Filter(in, Criteria{})
	assert.Equal(t, names(in), names(got))
	assert.True(t, Criteria{}.IsEmpty())
}

func TestFilter_SearchTerm(t *testing.T) {
	in := filterFixture()

	assert.Equal(t, []string{"Alice Moreau", "Dmitri Alin"}, names(Filter(in, Criteria{SearchTerm: "ALI"})))
	assert.Equal(t, []string{"Dmitri Alin"}, names(Filter(in, Criteria{SearchTerm: "xr-1"})))
	assert.Empty(t, Filter(in, Criteria{SearchTerm: "zzz"}))
}

func TestFilter_Conjunction(t *testing.T) {
	in := filterFixture()
	c := Criteria{
		Urgency:     strPtr(UrgencyUrgent),
		Surgeon:     strPtr("Dr. Chen"),
		SurgeryType: strPtr("Phacoemulsification"),
	}
	got := Filter(in, c)
	require.Len(t, got, 1)
	assert.Equal(t, "Alice Moreau", got[0].Name)

	for _, p := range Filter(in, Criteria{Status: strPtr(StatusWaiting), Urgency: strPtr(UrgencyRoutine)}) {
		assert.Equal(t, StatusWaiting, p.Status)
		assert.Equal(t, UrgencyRoutine, p.Urgency)
	}
}

func TestFilter_PreservesOrder(t *testing.T) {
	in := filterFixture()
	got := Filter(in, Criteria{Status: strPtr(StatusWaiting)})
	assert.Equal(t, []string{"Alice Moreau", "Carla Diaz"}, names(got))
}

func TestFilter_BlankSurgeonIsNotAll(t *testing.T) {
	in := filterFixture()

	unassigned := Filter(in, Criteria{Surgeon: strPtr("")})
	assert.Equal(t, []string{"Carla Diaz"}, names(unassigned))

	all := Filter(in, Criteria{Surgeon: nil})
	assert.Len(t, all, len(in))
}

func TestFilter_AllIsALegitimateValue(t *testing.T) {
	in := append(filterFixture(), &Patient{Name: "Eve", PatientID: "E", Urgency: UrgencySoon, Status: "all"})
	got := Filter(in, Criteria{Status: strPtr("all")})
	assert.Equal(t, []string{"Eve"}, names(got))
}

func TestCriteriaFromQuery(t *testing.T) {
	q := url.Values{
		"search":       {"  ali "},
		"urgency":      {"urgent"},
		"status":       {"all"},
		"surgeon":      {""},
		"surgery_type": {"Phacoemulsification"},
		"ward":         {"east"},
	}
	c := CriteriaFromQuery(q)
	assert.Equal(t, "ali", c.SearchTerm)
	require.NotNil(t, c.Urgency)
	assert.Equal(t, "urgent", *c.Urgency)
	assert.Nil(t, c.Status)
	assert.Nil(t, c.Surgeon)
	require.NotNil(t, c.SurgeryType)
	assert.Equal(t, "Phacoemulsification", *c.SurgeryType)
	assert.False(t, c.IsEmpty())
}

func TestCriteriaFromQuery_Unassigned(t *testing.T) {
	c := CriteriaFromQuery(url.Values{"unassigned": {"true"}})
	require.NotNil(t, c.Surgeon)
	assert.Equal(t, "", *c.Surgeon)

	c = CriteriaFromQuery(url.Values{"unassigned": {"true"}, "surgeon": {"Dr. Chen"}})
	require.NotNil(t, c.Surgeon)
	assert.Equal(t, "Dr. Chen", *c.Surgeon)
}

func TestCriteriaFromQuery_Empty(t *testing.T) {
	assert.True(t, CriteriaFromQuery(url.Values{}).IsEmpty())
}
