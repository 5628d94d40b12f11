package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appOn(date time.Time, status Status) JobApplication {
	return JobApplication{ApplicationDate: date, Status: status}
}

func repeatApps(n int, date time.Time, status Status) []JobApplication {
	apps := make([]JobApplication, n)
	for i := range apps {
		apps[i] = appOn(date, status)
	}
	return apps
}

func TestSummarizeApplications(t *testing.T) {
	// Wednesday 2026-10-14; the week began Monday 2026-10-12.
	wednesday := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		apps []JobApplication
		at   time.Time
		want ApplicationSummary
	}{
		{
			name: "empty",
			at:   wednesday,
			want: ApplicationSummary{},
		},
		{
			name: "week boundary",
			at:   wednesday,
			apps: []JobApplication{
				appOn(monday, StatusApplied),
				appOn(monday.Add(-time.Nanosecond), StatusApplied),
				appOn(wednesday, StatusApplied),
			},
			want: ApplicationSummary{TotalApplications: 3, WeeklyApplications: 2, ConversionPercent: "0.0"},
		},
		{
			name: "sunday belongs to the previous week",
			at:   time.Date(2026, 10, 18, 23, 0, 0, 0, time.UTC),
			apps: []JobApplication{
				appOn(monday, StatusInterview),
				appOn(time.Date(2026, 10, 11, 22, 0, 0, 0, time.UTC), StatusRejected),
			},
			want: ApplicationSummary{TotalApplications: 2, WeeklyApplications: 1, ConversionPercent: "50.0"},
		},
		{
			name: "conversion rounds to one decimal",
			at:   wednesday,
			apps: []JobApplication{
				appOn(monday.AddDate(0, -1, 0), StatusApplied),
				appOn(monday.AddDate(0, -1, 0), StatusRejected),
				appOn(monday.AddDate(0, -1, 0), StatusPhoneScreen),
			},
			want: ApplicationSummary{TotalApplications: 3, WeeklyApplications: 0, ConversionPercent: "33.3"},
		},
		{
			name: "halves round up",
			at:   wednesday,
			apps: append(repeatApps(15, monday.AddDate(0, -1, 0), StatusApplied), appOn(monday.AddDate(0, -1, 0), StatusOffer)),
			want: ApplicationSummary{TotalApplications: 16, WeeklyApplications: 0, ConversionPercent: "6.3"},
		},
		{
			name: "five of sixteen",
			at:   wednesday,
			apps: append(repeatApps(11, wednesday, StatusRejected), repeatApps(5, wednesday, StatusInterview)...),
			want: ApplicationSummary{TotalApplications: 16, WeeklyApplications: 16, ConversionPercent: "31.3"},
		},
		{
			name: "every progressed status counts",
			at:   wednesday,
			apps: []JobApplication{
				appOn(wednesday, StatusPhoneScreen),
				appOn(wednesday, StatusInterview),
				appOn(wednesday, StatusTakeHomeAssessment),
				appOn(wednesday, StatusOffer),
				appOn(wednesday, StatusDeclined),
				appOn(wednesday, StatusApplied),
			},
			want: ApplicationSummary{TotalApplications: 6, WeeklyApplications: 6, ConversionPercent: "83.3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, summarizeApplications(tt.apps, tt.at))
		})
	}
}

func TestSummaryEndpoint(t *testing.T) {
	_, h := newTestServer(t)
	token := registerUser(t, h, "owner@example.com")
	other := registerUser(t, h, "other@example.com")

	getSummary := func(token string) ApplicationSummary {
		rec := doRequest(t, h, http.MethodGet, "/api/v1/applications/summary", nil, withToken(token))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return decodeBody[map[string]ApplicationSummary](t, rec)["applicationSummary"]
	}

	assert.Equal(t, ApplicationSummary{}, getSummary(token))

	createApplication(t, h, token, map[string]any{"company": "Now Corp"})
	created := createApplication(t, h, token, map[string]any{"company": "Old Corp", "status": "OFFER", "applicationDate": "2020-01-01"})
	createApplication(t, h, other, map[string]any{"company": "Not Mine"})

	assert.Equal(t, ApplicationSummary{TotalApplications: 2, WeeklyApplications: 1, ConversionPercent: "50.0"}, getSummary(token))

	rec := doRequest(t, h, http.MethodDelete, "/api/v1/applications/"+created.ID, nil, withToken(token))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ApplicationSummary{TotalApplications: 1, WeeklyApplications: 1, ConversionPercent: "0.0"}, getSummary(token))
}
