package waitlist

import (
	"fmt"
	"time"

	"github.com/clinic/waitlist/internal/platform/csvexport"
)

// CSVHeader is the fixed column order of the worklist export.
var CSVHeader = []string{
	"Name", "Patient ID", "Surgery Type", "Urgency", "Status", "Surgeon", "Wait Days", "Scheduled Date",
}

// ToCSV renders patients in the order given. waitDays supplies the Wait Days
// column so callers control which "now" the export uses.
func ToCSV(patients []*Patient, waitDays func(*Patient) int) string {
	rows := make([][]any, 0, len(patients))
	for _, p := range patients {
		rows = append(rows, []any{
			p.Name,
			p.PatientID,
			p.SurgeryType,
			p.Urgency,
			p.Status,
			p.SurgeonName(),
			waitDays(p),
			p.ScheduledDateString(),
		})
	}
	return csvexport.Join(CSVHeader, rows)
}

// ExportFilename returns the download name for an export taken at now.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("waitlist_%s.csv", now.UTC().Format("2006-01-02"))
}
