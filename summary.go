package main

import (
	"math"
	"strconv"
	"time"

	"github.com/jinzhu/now"
)

type ApplicationSummary struct {
	TotalApplications  int `json:"totalApplications"`
	WeeklyApplications int `json:"weeklyApplications"`
	// ConversionPercent is one decimal place, e.g. "33.3"; "" when there
	// are no applications.
	ConversionPercent string `json:"conversionPercent"`
}

// summarizeApplications is a pure function of its input. The week starts
// on Monday 00:00 in at's location, so a Sunday belongs to the week before.
func summarizeApplications(applications []JobApplication, at time.Time) ApplicationSummary {
	weekStart := (&now.Config{WeekStartDay: time.Monday, TimeLocation: at.Location()}).With(at).BeginningOfWeek()

	summary := ApplicationSummary{TotalApplications: len(applications)}
	progressed := 0
	for _, application := range applications {
		if !application.ApplicationDate.Before(weekStart) {
			summary.WeeklyApplications++
		}
		if application.Status != StatusApplied && application.Status != StatusRejected {
			progressed++
		}
	}

	if summary.TotalApplications > 0 {
		percent := float64(progressed) / float64(summary.TotalApplications) * 100
		// Halves round up: 1 of 16 is "6.3".
		summary.ConversionPercent = strconv.FormatFloat(math.Round(percent*10)/10, 'f', 1, 64)
	}
	return summary
}
