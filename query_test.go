package main

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseApplicationQuery(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
		want   applicationQuery
	}{
		{"defaults", url.Values{}, applicationQuery{UserID: "u1", Sort: "dateDesc"}},
		{"known sort", url.Values{"sort": {"locationAsc"}}, applicationQuery{UserID: "u1", Sort: "locationAsc"}},
		{"unknown sort falls back", url.Values{"sort": {"id; DROP TABLE users"}}, applicationQuery{UserID: "u1", Sort: "dateDesc"}},
		{"filter and search echoed", url.Values{"filter": {"whatever"}, "searchByCompany": {"  Acme "}},
			applicationQuery{UserID: "u1", Sort: "dateDesc", Filter: "whatever", Search: "Acme"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseApplicationQuery(tt.values, "u1"))
		})
	}
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%\_off\\`, escapeLike(`100%_off\`))
}

func seedQueryFixtures(t *testing.T, h http.Handler, token string) {
	t.Helper()
	for _, body := range []map[string]any{
		{"company": "Globex", "location": "Springfield", "status": "REJECTED", "applicationDate": "2025-01-03"},
		{"company": "Initech", "location": "Austin", "status": "INTERVIEW", "applicationDate": "2025-01-01"},
		{"company": "Acme Rockets", "location": "Mesa", "status": "APPLIED", "applicationDate": "2025-01-02"},
	} {
		createApplication(t, h, token, body)
	}
}

func companies(apps []JobApplication) []string {
	names := make([]string, 0, len(apps))
	for _, app := range apps {
		names = append(names, app.Company)
	}
	return names
}

func TestListSorting(t *testing.T) {
	_, h := newTestServer(t)
	token := registerUser(t, h, "owner@example.com")
	seedQueryFixtures(t, h, token)

	tests := []struct {
		sort string
		want []string
	}{
		{"", []string{"Globex", "Acme Rockets", "Initech"}},
		{"dateAsc", []string{"Initech", "Acme Rockets", "Globex"}},
		{"locationAsc", []string{"Initech", "Acme Rockets", "Globex"}},
		{"locationDesc", []string{"Globex", "Acme Rockets", "Initech"}},
		{"companyAsc", []string{"Acme Rockets", "Globex", "Initech"}},
		{"bogus", []string{"Globex", "Acme Rockets", "Initech"}},
	}
	for _, tt := range tests {
		t.Run(tt.sort, func(t *testing.T) {
			list := listApplications(t, h, token, "?sort="+tt.sort)
			assert.Equal(t, tt.want, companies(list.Applications))
		})
	}
}

func TestListFilterAndSearch(t *testing.T) {
	_, h := newTestServer(t)
	token := registerUser(t, h, "owner@example.com")
	seedQueryFixtures(t, h, token)

	list := listApplications(t, h, token, "?filter=excludeRejected")
	assert.ElementsMatch(t, []string{"Initech", "Acme Rockets"}, companies(list.Applications))
	assert.Equal(t, "excludeRejected", list.Filter)

	list = listApplications(t, h, token, "?filter=includeEverything")
	assert.Len(t, list.Applications, 3, "unknown filters are ignored")

	list = listApplications(t, h, token, "?searchByCompany=ROCK")
	assert.Equal(t, []string{"Acme Rockets"}, companies(list.Applications))
	assert.Equal(t, "ROCK", list.Search)

	list = listApplications(t, h, token, "?searchByCompany=e&filter=excludeRejected&sort=dateAsc")
	assert.Equal(t, []string{"Initech", "Acme Rockets"}, companies(list.Applications))

	createApplication(t, h, token, map[string]any{"company": "ÉCOLE Systems"})
	for _, term := range []string{"ÉCOLE", "école", "École sys"} {
		list = listApplications(t, h, token, "?searchByCompany="+url.QueryEscape(term))
		assert.Equal(t, []string{"ÉCOLE Systems"}, companies(list.Applications), term)
	}

	for _, term := range []string{"Umbrella", "%", "_"} {
		rec := doRequest(t, h, http.MethodGet, "/api/v1/applications?searchByCompany="+url.QueryEscape(term), nil, withToken(token))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, string(decodeBody[map[string]json.RawMessage](t, rec)["applications"]), term)
	}
}
