package main

// query.go turns list query parameters into a per-user gorm query

import (
	"net/url"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultSort           = "dateDesc"
	filterExcludeRejected = "excludeRejected"
)

var sortColumns = map[string]clause.OrderByColumn{
	"dateAsc":      {Column: clause.Column{Name: "application_date"}},
	"dateDesc":     {Column: clause.Column{Name: "application_date"}, Desc: true},
	"locationAsc":  {Column: clause.Column{Name: "location"}},
	"locationDesc": {Column: clause.Column{Name: "location"}, Desc: true},
	"companyAsc":   {Column: clause.Column{Name: "company"}},
	"companyDesc":  {Column: clause.Column{Name: "company"}, Desc: true},
	"positionAsc":  {Column: clause.Column{Name: "position"}},
	"positionDesc": {Column: clause.Column{Name: "position"}, Desc: true},
	"statusAsc":    {Column: clause.Column{Name: "status"}},
	"statusDesc":   {Column: clause.Column{Name: "status"}, Desc: true},
}

// applicationQuery is the parsed form of ?sort=&filter=&searchByCompany=.
// Sort is the effective key: unknown keys have already fallen back to
// dateDesc. Filter and Search are echoed back to the client as sent.
type applicationQuery struct {
	UserID string
	Sort   string
	Filter string
	Search string
}

func parseApplicationQuery(values url.Values, userID string) applicationQuery {
	q := applicationQuery{
		UserID: userID,
		Sort:   values.Get("sort"),
		Filter: values.Get("filter"),
		Search: strings.TrimSpace(values.Get("searchByCompany")),
	}
	if _, ok := sortColumns[q.Sort]; !ok {
		q.Sort = defaultSort
	}
	return q
}

// scope applies the query to tx. The owner restriction is added first and
// unconditionally; nothing in Sort, Filter or Search can widen it.
func (q applicationQuery) scope(tx *gorm.DB) *gorm.DB {
	tx = tx.Where("user_id = ?", q.UserID)

	if q.Filter == filterExcludeRejected {
		tx = tx.Where("status <> ?", StatusRejected)
	}
	if q.Search != "" {
		pattern := "%" + escapeLike(q.Search) + "%"
		if tx.Dialector.Name() == "postgres" {
			tx = tx.Where("company ILIKE ? ESCAPE '\\'", pattern)
		} else {
			tx = tx.Where("unicode_lower(company) LIKE unicode_lower(?) ESCAPE '\\'", pattern)
		}
	}

	return tx.Order(sortColumns[q.Sort]).Order("id")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
