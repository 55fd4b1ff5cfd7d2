package waitlist

import (
	"sort"
)

// ScheduleDay groups the patients booked on one calendar date.
type ScheduleDay struct {
	Date     string     `json:"date"`
	Patients []*Patient `json:"patients"`
}

// BuildSchedule returns the scheduled patients grouped by date, earliest
// date first. Patients booked on the same date keep their input order.
func BuildSchedule(patients []*Patient) []ScheduleDay {
	booked := make([]*Patient, 0, len(patients))
	for _, p := range patients {
		if p.ScheduledDate != nil {
			booked = append(booked, p)
		}
	}
	sort.SliceStable(booked, func(i, j int) bool {
		return booked[i].ScheduledDate.Before(*booked[j].ScheduledDate)
	})

	days := []ScheduleDay{}
	for _, p := range booked {
		date := p.ScheduledDateString()
		if n := len(days); n > 0 && days[n-1].Date == date {
			days[n-1].Patients = append(days[n-1].Patients, p)
			continue
		}
		days = append(days, ScheduleDay{Date: date, Patients: []*Patient{p}})
	}
	return days
}
