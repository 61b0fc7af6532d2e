package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/efda-insights/permit-analytics/internal/analytics"
	"github.com/efda-insights/permit-analytics/internal/canonical"
	"github.com/efda-insights/permit-analytics/internal/model"
	"github.com/efda-insights/permit-analytics/internal/query"
)

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sort := query.ResolveSort(query.OrderSortColumns, q.Get("sortBy"), q.Get("sortDir"), "date", "desc")

	page, err := s.store.ListOrders(r.Context(), parseFilters(r), sort, s.parsePage(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

type orderDetail struct {
	Order     *model.Order     `json:"order"`
	LineItems []model.LineItem `json:"line_items"`
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, items, err := s.store.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	if items == nil {
		items = []model.LineItem{}
	}
	respondJSON(w, http.StatusOK, orderDetail{Order: order, LineItems: items})
}

func (s *Server) handleListPorts(w http.ResponseWriter, r *http.Request) {
	ports, err := s.store.Ports(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if ports == nil {
		ports = []string{}
	}
	respondJSON(w, http.StatusOK, ports)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := s.svc.ListProducts(r.Context(), parseFilters(r),
		q.Get("sortBy"), q.Get("sortDir"), s.parsePage(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (s *Server) handleProductDetail(w http.ResponseWriter, r *http.Request) {
	key, err := canonical.DecodeSlug(chi.URLParam(r, "slug"))
	if err != nil {
		respondError(w, err)
		return
	}
	product, err := s.svc.ProductDetail(r.Context(), key)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// windowInfo is the JSON shape of the resolved comparison window, echoed back
// so the dashboard can label the chart axes.
type windowInfo struct {
	Earliest string `json:"earliest"`
	Mid      string `json:"mid"`
	Latest   string `json:"latest"`
	Explicit bool   `json:"explicit"`
}

type growthResponse struct {
	Window *windowInfo       `json:"window"`
	Rows   []model.GrowthRow `json:"rows"`
}

func growthWindow(w analytics.Window) *windowInfo {
	if w.Latest.IsZero() {
		return nil
	}
	const day = "2006-01-02"
	return &windowInfo{
		Earliest: w.Earliest.Format(day),
		Mid:      w.Mid.Format(day),
		Latest:   w.Latest.Format(day),
		Explicit: w.Explicit,
	}
}

func growthParams(r *http.Request) analytics.GrowthParams {
	return analytics.GrowthParams{
		Filters:        parseFilters(r),
		LookbackMonths: intParam(r, "lookbackMonths"),
		MinPriorOrders: intParam(r, "minPriorOrders"),
		Limit:          intParam(r, "limit"),
	}
}

func (s *Server) handleGrowth(w http.ResponseWriter, r *http.Request) {
	rows, window, err := s.svc.TopGrowth(r.Context(), growthParams(r))
	if err != nil {
		respondError(w, err)
		return
	}
	if rows == nil {
		rows = []model.GrowthRow{}
	}
	respondJSON(w, http.StatusOK, growthResponse{Window: growthWindow(window), Rows: rows})
}

func (s *Server) handleDecline(w http.ResponseWriter, r *http.Request) {
	rows, window, err := s.svc.TopDecline(r.Context(), growthParams(r))
	if err != nil {
		respondError(w, err)
		return
	}
	if rows == nil {
		rows = []model.GrowthRow{}
	}
	respondJSON(w, http.StatusOK, growthResponse{Window: growthWindow(window), Rows: rows})
}

func (s *Server) handleSpreads(w http.ResponseWriter, r *http.Request) {
	page, err := s.svc.TopSpreads(r.Context(), parseFilters(r), s.parsePage(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	points, err := s.svc.MonthlyTrend(r.Context(), parseFilters(r))
	if err != nil {
		respondError(w, err)
		return
	}
	if points == nil {
		points = []model.MonthlyPoint{}
	}
	respondJSON(w, http.StatusOK, points)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	report, err := analytics.ParseCompareReport(chi.URLParam(r, "report"))
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	q := r.URL.Query()
	a, ok := parsePeriod(q.Get("aFrom"), q.Get("aTo"))
	if !ok {
		respondBadRequest(w, "aFrom and aTo are required as YYYY-MM-DD")
		return
	}
	b, ok := parsePeriod(q.Get("bFrom"), q.Get("bTo"))
	if !ok {
		respondBadRequest(w, "bFrom and bTo are required as YYYY-MM-DD")
		return
	}

	rows, err := s.svc.Compare(r.Context(), analytics.CompareParams{
		Report:  report,
		A:       a,
		B:       b,
		Filters: parseFilters(r),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	if rows == nil {
		rows = []model.ComparisonRow{}
	}
	respondJSON(w, http.StatusOK, rows)
}

func parsePeriod(from, to string) (analytics.Period, bool) {
	f, okF := parseDate(from)
	t, okT := parseDate(to)
	if !okF || !okT || t.Before(f) {
		return analytics.Period{}, false
	}
	return analytics.Period{From: f, To: t}, true
}
