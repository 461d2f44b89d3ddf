package formatter

import (
	"strconv"
	"time"

	"discover-release/internal/config"
	"discover-release/internal/service"
)

// Durations are rounded for display; the log record keeps full precision
const timePrecision = time.Millisecond

type ReportFormatter struct{}

func NewReportFormatter() *ReportFormatter {
	return &ReportFormatter{}
}

func (f *ReportFormatter) FormatReport(req config.ReleaseRequest, report *service.Report) string {
	var result string

	result += FormatHeaderSection("Release: " + req.KeyPrefix)
	result += "\n\n"

	result += FormatSectionTitle("Summary")
	result += "\n"

	total, migrated, alreadyAbsent, failed := report.Counts()

	summaryTable := NewTable([]string{"Parameter", "Value"})

	details := []struct {
		Key   string
		Value string
	}{
		{"Source", req.EmbargoBucket},
		{"Destination", req.PublishBucket},
		{"Entries", strconv.Itoa(total)},
		{"Migrated", strconv.Itoa(migrated)},
		{"Already Absent", strconv.Itoa(alreadyAbsent)},
		{"Failed", strconv.Itoa(failed)},
		{"Duration", report.Duration().Round(timePrecision).String()},
	}

	for _, detail := range details {
		summaryTable.AddRow([]string{detail.Key, detail.Value})
	}

	result += summaryTable.String()
	result += "\n"

	if failures := report.Failures(); len(failures) > 0 {
		result += "\n"
		result += FormatSectionTitle("Failed Entries")
		result += "\n"

		failuresTable := NewTable([]string{"KEY", "VERSION", "REASON"})
		for _, failure := range failures {
			failuresTable.AddRow([]string{
				failure.Entry.Key,
				failure.Entry.VersionID,
				failure.Reason,
			})
		}

		result += failuresTable.String()
		result += "\n"
	}

	return result
}
