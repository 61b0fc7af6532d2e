package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/efda-insights/permit-analytics/internal/model"
	"github.com/efda-insights/permit-analytics/internal/query"
)

// parseFilters reads the shared filter surface from the query string. Unknown
// or unparseable values are dropped, not rejected: filters narrow a result
// set, and a bad one should widen back to "everything" rather than fail the
// page.
func parseFilters(r *http.Request) query.Filters {
	q := r.URL.Query()

	f := query.Filters{
		Search: q.Get("search"),
		Port:   q.Get("port"),
	}
	if t, err := model.ParsePermitType(q.Get("type")); err == nil {
		f.Type = t
	}
	if d, ok := parseDate(q.Get("dateFrom")); ok {
		f.DateFrom = &d
	}
	if d, ok := parseDate(q.Get("dateTo")); ok {
		f.DateTo = &d
	}
	return f
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	return t, err == nil
}

// parsePage clamps page/pageSize into the configured bounds.
func (s *Server) parsePage(r *http.Request) query.PageRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("pageSize"))
	return query.PageRequest{Page: page, PageSize: size}.
		Normalize(s.cfg.Analytics.DefaultPageSize, s.cfg.Analytics.MaxPageSize)
}

func intParam(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}
