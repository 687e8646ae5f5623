package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"

	"craft-cost/adapters/storage"
	"craft-cost/core/catalog"
	"craft-cost/core/engine"
	"craft-cost/core/recipe"
)

func testCatalog() *catalog.Catalog {
	rows := []catalog.Row{
		{Series: "深淵", Part: "深淵長劍", Material: "秘銀礦", Quantity: decimal.NewFromInt(8)},
		{Series: "深淵", Part: "深淵長劍", Material: "血晶", Quantity: decimal.NewFromInt(2)},
		{Series: "深淵", Part: "深淵戒指", Material: "血晶", Quantity: decimal.NewFromInt(1)},
	}
	prices := recipe.PriceBook{
		"秘銀礦": decimal.NewFromInt(100000),
		"血晶":  decimal.NewFromInt(100000),
	}
	return catalog.New("test", rows, prices)
}

func newTestServer(opts ...Option) *Server {
	return NewServer("test", engine.New(nil), opts...)
}

func do(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			if err := json.NewEncoder(&buf).Encode(b); err != nil {
				t.Fatal(err)
			}
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(), http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
}

func TestScenarios(t *testing.T) {
	rec := do(t, newTestServer(), http.MethodGet, "/scenarios", nil)

	var out []ScenarioInfo
	decodeBody(t, rec, &out)
	if len(out) != 4 {
		t.Fatalf("Expected 4 scenarios, got %d", len(out))
	}
	if out[1].Key != "local-trade" || !out[1].LossPercent.Equal(decimal.NewFromInt(12)) {
		t.Errorf("Unexpected scenario: %+v", out[1])
	}
}

func TestParse(t *testing.T) {
	rec := do(t, newTestServer(), http.MethodPost, "/parse", `{"inputs":["3.5W", 1200, "abc"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body)
	}

	var out ParseResponse
	decodeBody(t, rec, &out)
	if len(out.Results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(out.Results))
	}
	if out.Results[0].Value == nil || !out.Results[0].Value.Equal(decimal.NewFromInt(35000)) {
		t.Errorf("Expected 35000, got %+v", out.Results[0])
	}
	if out.Results[1].Value == nil || !out.Results[1].Value.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("Expected 1200, got %+v", out.Results[1])
	}
	if out.Results[2].Error == "" {
		t.Error("Expected an error for abc")
	}
}

func TestInvalidJSON(t *testing.T) {
	rec := do(t, newTestServer(), http.MethodPost, "/evaluate", "{")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	var out ErrorResponse
	decodeBody(t, rec, &out)
	if out.Error.Code != "INVALID_JSON" {
		t.Errorf("Expected INVALID_JSON, got %s", out.Error.Code)
	}
}

func TestRates(t *testing.T) {
	body := `{"retail":{"rate":"3.5W"},"bulk":{"currency_paid":"1000","coin_received":"4000W","scenario":"no-loss"}}`
	rec := do(t, newTestServer(), http.MethodPost, "/rates", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body)
	}

	var out RatesResponse
	decodeBody(t, rec, &out)
	if !out.Rates.RetailNet.Equal(decimal.NewFromInt(30800)) {
		t.Errorf("Expected 30800, got %s", out.Rates.RetailNet)
	}
	if !out.Rates.BulkNet.Equal(decimal.NewFromInt(40000)) {
		t.Errorf("Expected 40000, got %s", out.Rates.BulkNet)
	}
}

func TestRatesUnknownScenario(t *testing.T) {
	rec := do(t, newTestServer(), http.MethodPost, "/rates", `{"retail":{"rate":"35000","scenario":"duty-free"}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	var out ErrorResponse
	decodeBody(t, rec, &out)
	if out.Error.Code != "INPUT_ERROR" {
		t.Errorf("Expected INPUT_ERROR, got %s", out.Error.Code)
	}
}

func TestEvaluateFromCatalog(t *testing.T) {
	s := newTestServer(WithCatalog(testCatalog()))

	rec := do(t, s, http.MethodPost, "/evaluate", map[string]interface{}{
		"series": "深淵",
		"part":   "深淵長劍",
		"retail": map[string]string{"rate": "35000"},
		"offers": []map[string]string{{"label": "market", "price": "120W", "denomination": "coin"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body)
	}

	var ev engine.Evaluation
	decodeBody(t, rec, &ev)
	if ev.Comparison.Best != engine.SelfProductionLabel {
		t.Errorf("Expected self-production, got %q", ev.Comparison.Best)
	}
	if !ev.Materials.Total.Equal(decimal.NewFromInt(1000000)) {
		t.Errorf("Expected 1000000, got %s", ev.Materials.Total)
	}
	if ev.Series != "深淵" || ev.Part != "深淵長劍" {
		t.Errorf("Unexpected series/part %q/%q", ev.Series, ev.Part)
	}
}

func TestPresetLifecycle(t *testing.T) {
	s := newTestServer(WithCatalog(testCatalog()), WithStore(storage.NewMemoryStore()))
	path := "/presets/" + url.PathEscape("長劍 週報")

	rec := do(t, s, http.MethodPut, path, map[string]interface{}{
		"description": "weekly",
		"inputs": map[string]interface{}{
			"series": "深淵",
			"part":   "深淵長劍",
			"retail": map[string]string{"rate": "35000"},
			"offers": []map[string]string{{"label": "market", "price": "120W", "denomination": "coin"}},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body)
	}

	var preset storage.Preset
	decodeBody(t, do(t, s, http.MethodGet, path, nil), &preset)
	if preset.Name != "長劍 週報" || preset.Inputs.Part != "深淵長劍" {
		t.Errorf("Unexpected preset: %+v", preset)
	}

	var list []storage.Preset
	decodeBody(t, do(t, s, http.MethodGet, "/presets?series="+url.QueryEscape("深淵"), nil), &list)
	if len(list) != 1 {
		t.Errorf("Expected one preset, got %d", len(list))
	}

	// the blood crystal override makes the market cheaper
	rec = do(t, s, http.MethodPost, "/evaluate", map[string]interface{}{
		"preset": "長劍 週報",
		"prices": map[string]string{"血晶": "25W"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var ev engine.Evaluation
	decodeBody(t, rec, &ev)
	if !ev.Materials.Total.Equal(decimal.NewFromInt(1300000)) {
		t.Errorf("Expected 1300000, got %s", ev.Materials.Total)
	}
	if ev.Comparison.Best != "market" {
		t.Errorf("Expected market, got %q", ev.Comparison.Best)
	}

	rec = do(t, s, http.MethodDelete, path, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rec.Code)
	}
	rec = do(t, s, http.MethodPost, "/evaluate", `{"preset":"長劍 週報"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestEvaluateLinesWithoutCatalog(t *testing.T) {
	rec := do(t, newTestServer(), http.MethodPost, "/evaluate", map[string]interface{}{
		"quantity": 2,
		"lines":    []map[string]string{{"material": "秘銀礦", "quantity": "8", "unit_price": "10W"}},
		"retail":   map[string]string{"rate": "35000"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var ev engine.Evaluation
	decodeBody(t, rec, &ev)
	if !ev.Materials.Total.Equal(decimal.NewFromInt(1600000)) {
		t.Errorf("Expected 1600000, got %s", ev.Materials.Total)
	}
}

func TestEvaluateRequestErrors(t *testing.T) {
	tests := []struct {
		name   string
		server *Server
		body   string
		status int
	}{
		{"nothing to evaluate", newTestServer(), `{"retail":{"rate":"35000"}}`, http.StatusBadRequest},
		{"part without series", newTestServer(WithCatalog(testCatalog())), `{"part":"深淵長劍"}`, http.StatusBadRequest},
		{"series without catalog", newTestServer(), `{"series":"深淵","part":"深淵長劍"}`, http.StatusBadRequest},
		{"unknown part", newTestServer(WithCatalog(testCatalog())), `{"series":"深淵","part":"龍盾"}`, http.StatusNotFound},
		{"unknown denomination", newTestServer(WithCatalog(testCatalog())),
			`{"series":"深淵","part":"深淵長劍","retail":{"rate":"35000"},"offers":[{"label":"studio","price":"30","denomination":"usd"}]}`,
			http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, tt.server, http.MethodPost, "/evaluate", tt.body)
			if rec.Code != tt.status {
				t.Errorf("Expected %d, got %d: %s", tt.status, rec.Code, rec.Body)
			}
		})
	}
}

func TestCatalogEndpoints(t *testing.T) {
	s := newTestServer(WithCatalog(testCatalog()))

	var series SeriesResponse
	decodeBody(t, do(t, s, http.MethodGet, "/catalog/series", nil), &series)
	if len(series.Series) != 1 || series.Series[0] != "深淵" {
		t.Errorf("Unexpected series: %+v", series)
	}

	path := "/catalog/series/" + url.PathEscape("深淵") + "/parts?category=accessory"
	var parts PartsResponse
	decodeBody(t, do(t, s, http.MethodGet, path, nil), &parts)
	if len(parts.Parts) != 1 || parts.Parts[0].Part != "深淵戒指" {
		t.Errorf("Expected only the ring, got %+v", parts.Parts)
	}
	if len(parts.Categories) != 2 {
		t.Errorf("Expected weapon and accessory, got %v", parts.Categories)
	}

	path = "/catalog/series/" + url.PathEscape("深淵") + "/parts/" + url.PathEscape("深淵長劍") + "?quantity=3"
	var part PartResponse
	decodeBody(t, do(t, s, http.MethodGet, path, nil), &part)
	if !part.Materials.Total.Equal(decimal.NewFromInt(3000000)) {
		t.Errorf("Expected 3000000, got %s", part.Materials.Total)
	}

	rec := do(t, s, http.MethodGet, "/catalog/series/"+url.PathEscape("不存在")+"/parts", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestDisabledFeatures(t *testing.T) {
	s := newTestServer()
	for _, path := range []string{"/catalog/series", "/presets"} {
		rec := do(t, s, http.MethodGet, path, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}
