package main

// applications.go this is our CRUD operations for job applications

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// applicationInput is the client payload for create and edit. A nil field
// was not sent and is left alone; id and userId are not accepted.
type applicationInput struct {
	Company         *string `json:"company"`
	Position        *string `json:"position"`
	Location        *string `json:"location"`
	WorkMode        *string `json:"workMode"`
	Status          *string `json:"status"`
	ApplicationDate *string `json:"applicationDate"`
	Link            *string `json:"link"`
	// LinkToJobPosting is the older name for Link.
	LinkToJobPosting *string `json:"linkToJobPosting"`
}

const (
	workModeValues = "REMOTE INPERSON HYBRID"
	statusValues   = "APPLIED PHONESCREEN INTERVIEW TAKEHOMEASSESSMENT OFFER REJECTED DECLINED"
)

// apply copies the sent fields onto application and returns the columns it
// touched. Enum values are normalized, then checked; bad enums and dates are
// rejected rather than replaced with defaults.
func (in applicationInput) apply(v *validator.Validate, application *JobApplication, now time.Time) ([]string, error) {
	var columns []string

	setText := func(dst *string, src *string, column string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
			columns = append(columns, column)
		}
	}
	setText(&application.Company, in.Company, "company")
	setText(&application.Position, in.Position, "position")
	setText(&application.Location, in.Location, "location")
	if in.Link != nil {
		setText(&application.Link, in.Link, "link")
	} else {
		setText(&application.Link, in.LinkToJobPosting, "link")
	}

	if in.WorkMode != nil {
		if mode := normalizeEnum(*in.WorkMode); mode != "" {
			if err := v.Var(mode, "oneof="+workModeValues); err != nil {
				return nil, invalidf("Invalid workMode %q: expected one of %s.", *in.WorkMode, workModeValues)
			}
			application.WorkMode = WorkMode(mode)
			columns = append(columns, "work_mode")
		}
	}
	if in.Status != nil {
		if status := normalizeEnum(*in.Status); status != "" {
			if err := v.Var(status, "oneof="+statusValues); err != nil {
				return nil, invalidf("Invalid status %q: expected one of %s.", *in.Status, statusValues)
			}
			application.Status = Status(status)
			columns = append(columns, "status")
		}
	}
	if in.ApplicationDate != nil && strings.TrimSpace(*in.ApplicationDate) != "" {
		date, err := parseApplicationDate(*in.ApplicationDate, now)
		if err != nil {
			return nil, err
		}
		application.ApplicationDate = date
		columns = append(columns, "application_date")
	}

	return columns, nil
}

// parseApplicationDate accepts an HTML date input (YYYY-MM-DD), which keeps
// now's time of day so same-day entries stay ordered, or an RFC 3339 stamp.
func parseApplicationDate(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if day, err := time.ParseInLocation(time.DateOnly, value, now.Location()); err == nil {
		return time.Date(day.Year(), day.Month(), day.Day(),
			now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), now.Location()).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, invalidf("Invalid applicationDate %q: expected YYYY-MM-DD or RFC 3339.", value)
}

func (s *server) GetApplications(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	q := parseApplicationQuery(r.URL.Query(), user.ID)

	applications := []JobApplication{}
	if err := q.scope(s.db.WithContext(r.Context())).Find(&applications).Error; err != nil {
		writeError(w, r, fmt.Errorf("list applications: %w", err))
		return
	}
	if applications == nil {
		applications = []JobApplication{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"applications": applications,
		"sort":         q.Sort,
		"filter":       q.Filter,
		"search":       q.Search,
	})
}

func (s *server) GetApplicationSummary(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	summary, err := getCachedData(s.summaries, summaryCacheKey(user.ID), func() (ApplicationSummary, error) {
		var applications []JobApplication
		unfiltered := parseApplicationQuery(url.Values{}, user.ID)
		if err := unfiltered.scope(s.db.WithContext(r.Context())).Find(&applications).Error; err != nil {
			return ApplicationSummary{}, fmt.Errorf("load applications for summary: %w", err)
		}
		return summarizeApplications(applications, time.Now()), nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applicationSummary": summary})
}

func (s *server) CreateApplication(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	var in applicationInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	now := time.Now()
	application := JobApplication{
		UserID:          user.ID,
		WorkMode:        WorkModeRemote,
		Status:          StatusApplied,
		ApplicationDate: now.UTC(),
	}
	if _, err := in.apply(s.validate, &application, now); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.db.WithContext(r.Context()).Create(&application).Error; err != nil {
		writeError(w, r, fmt.Errorf("create application: %w", err))
		return
	}
	s.invalidateSummary(user.ID)
	log.Printf("[applications] user %s created %s", user.ID, application.ID)

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":       "Application successfully created.",
		"applicationId": application.ID,
		"newApp":        application,
	})
}

func (s *server) GetApplicationByID(w http.ResponseWriter, r *http.Request) {
	application, err := s.loadOwnedApplication(r.Context(), r.PathValue("id"), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, application)
}

func (s *server) UpdateApplication(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	application, err := s.loadOwnedApplication(r.Context(), r.PathValue("id"), user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in applicationInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	columns, err := in.apply(s.validate, application, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	if len(columns) > 0 {
		result := s.db.WithContext(r.Context()).
			Model(application).
			Where("user_id = ?", user.ID).
			Select(append(columns, "updated_at")).
			Updates(application)
		if result.Error != nil {
			writeError(w, r, fmt.Errorf("update application %s: %w", application.ID, result.Error))
			return
		}
		if result.RowsAffected == 0 {
			writeError(w, r, ErrNotFound)
			return
		}
		s.invalidateSummary(user.ID)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Application successfully updated.",
		"updatedApp": application,
	})
}

func (s *server) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	application, err := s.loadOwnedApplication(r.Context(), r.PathValue("id"), user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result := s.db.WithContext(r.Context()).
		Where("user_id = ?", user.ID).
		Delete(&JobApplication{}, "id = ?", application.ID)
	if result.Error != nil {
		writeError(w, r, fmt.Errorf("delete application %s: %w", application.ID, result.Error))
		return
	}

	// Check if any rows were affected (a concurrent delete may have won)
	if result.RowsAffected == 0 {
		writeError(w, r, ErrNotFound)
		return
	}
	s.invalidateSummary(user.ID)
	log.Printf("[applications] user %s deleted %s", user.ID, application.ID)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully deleted application."})
}
