package api

import (
	"net/http"
	"strconv"

	"craft-cost/adapters/storage"
	"craft-cost/core/category"
	"craft-cost/core/engine"
	"craft-cost/core/magnitude"
	"craft-cost/core/recipe"
	"craft-cost/internal/errors"
)

var hundred = magnitude.MustParse("100")

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"version": s.version}, http.StatusOK)
}

func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	list := s.engine.Scenarios().List()
	out := make([]ScenarioInfo, 0, len(list))
	for _, sc := range list {
		out = append(out, ScenarioInfo{Scenario: sc, LossPercent: sc.Loss().Mul(hundred)})
	}
	s.writeJSON(w, out, http.StatusOK)
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if !s.decode(w, r, &req) {
		return
	}

	resp := ParseResponse{Results: make([]ParseResult, 0, len(req.Inputs))}
	for _, in := range req.Inputs {
		res := ParseResult{Input: string(in)}
		d, err := in.Parse()
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Value = &d
			res.Formatted = magnitude.Format(d)
		}
		resp.Results = append(resp.Results, res)
	}
	s.writeJSON(w, resp, http.StatusOK)
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	var req RatesRequest
	if !s.decode(w, r, &req) {
		return
	}

	summary, diags, err := s.engine.Rates(req.Retail, req.Bulk, req.Direction)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, RatesResponse{Rates: summary, Diagnostics: diags}, http.StatusOK)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if !s.decode(w, r, &req) {
		return
	}

	in := req.Inputs
	if req.Preset != "" {
		if !s.requireStore(w) {
			return
		}
		preset, err := s.store.Get(r.Context(), req.Preset)
		if err != nil {
			s.writeErr(w, err)
			return
		}
		in = preset.Inputs.Overlay(req.Inputs)
	}

	// a nil *catalog.Catalog must not become a non-nil Book
	var book engine.Book
	if s.catalog != nil {
		book = s.catalog
	}
	engineReq, err := s.engine.Resolve(in, book)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	ev, err := s.engine.Evaluate(engineReq)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, ev, http.StatusOK)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	if !s.requireCatalog(w) {
		return
	}
	s.writeJSON(w, SeriesResponse{Source: s.catalog.Source, Series: s.catalog.Series()}, http.StatusOK)
}

func (s *Server) handleParts(w http.ResponseWriter, r *http.Request) {
	if !s.requireCatalog(w) {
		return
	}
	series := param(r, "series")

	parts, err := s.catalog.Describe(series, s.classifier)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	cats, err := s.catalog.Categories(series, s.classifier)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	if want := r.URL.Query().Get("category"); want != "" {
		filtered := parts[:0]
		for _, p := range parts {
			if p.Category == category.Category(want) {
				filtered = append(filtered, p)
			}
		}
		parts = filtered
	}

	s.writeJSON(w, PartsResponse{Series: series, Categories: cats, Parts: parts}, http.StatusOK)
}

func (s *Server) handlePart(w http.ResponseWriter, r *http.Request) {
	if !s.requireCatalog(w) {
		return
	}
	series, part := param(r, "series"), param(r, "part")

	quantity := 1
	if q := r.URL.Query().Get("quantity"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			s.writeErr(w, errors.Input("invalid quantity %q", q))
			return
		}
		quantity = n
	}

	rec, err := s.catalog.Recipe(series, part, quantity)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	s.writeJSON(w, PartResponse{
		Series:    series,
		Part:      part,
		Category:  s.classifier.Classify(part),
		Materials: recipe.Resolve(rec, s.catalog.Prices()),
	}, http.StatusOK)
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	filter, err := listFilter(r)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	presets, err := s.store.List(r.Context(), filter)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	if presets == nil {
		presets = []*storage.Preset{}
	}
	s.writeJSON(w, presets, http.StatusOK)
}

func listFilter(r *http.Request) (*storage.ListFilter, error) {
	q := r.URL.Query()
	f := &storage.ListFilter{Series: q.Get("series"), Part: q.Get("part")}

	for name, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return nil, errors.Input("invalid %s %q", name, v)
			}
			*dst = n
		}
	}
	return f, nil
}

func (s *Server) handleGetPreset(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	preset, err := s.store.Get(r.Context(), param(r, "name"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, preset, http.StatusOK)
}

func (s *Server) handlePutPreset(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	var req PresetRequest
	if !s.decode(w, r, &req) {
		return
	}

	preset := &storage.Preset{
		Name:        param(r, "name"),
		Description: req.Description,
		Inputs:      req.Inputs,
	}
	if err := s.store.Save(r.Context(), preset); err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, preset, http.StatusOK)
}

func (s *Server) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	if err := s.store.Delete(r.Context(), param(r, "name")); err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) requireCatalog(w http.ResponseWriter) bool {
	if s.catalog == nil {
		s.writeError(w, "NO_CATALOG", "no recipe book is loaded", http.StatusNotFound)
		return false
	}
	return true
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		s.writeError(w, "PRESETS_DISABLED", "preset storage is not enabled", http.StatusNotFound)
		return false
	}
	return true
}
