package server

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"fitquote/internal"
	"fitquote/internal/catalog"
	"fitquote/internal/pipeline"
	"fitquote/internal/rules"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	catalogue, err := catalog.NewService(nil)
	if err != nil {
		t.Fatalf("catalog.NewService: %v", err)
	}
	catalogue.Upsert(internal.CatalogueEntry{Code: "FLX 4P", InstallTimeHours: 1.5, WasteVolumeM3: 0.5})

	rulesService, err := rules.NewService(nil)
	if err != nil {
		t.Fatalf("rules.NewService: %v", err)
	}
	return New(nil, catalogue, rulesService)
}

func doRequest(t *testing.T, s *Server, method, path string, body any) *fasthttp.RequestCtx {
	t.Helper()
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != nil {
		blob, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		ctx.Request.SetBody(blob)
	}
	s.Handler(ctx)
	return ctx
}

func TestHandleResolve(t *testing.T) {
	s := newTestServer(t)

	ctx := doRequest(t, s, fasthttp.MethodPost, "/api/v1/resolve", map[string]any{
		"lines": []internal.RawLineItem{
			{LineNumber: 1, ProductCode: "FLX-4P-2816-A", Quantity: 3},
			{LineNumber: 2, ProductCode: "MYSTERY-1", Quantity: 2},
		},
	})
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status = %d, body %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}

	var result pipeline.ResolveResult
	if err := json.Unmarshal(ctx.Response.Body(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(result.Resolved) != 1 || result.Resolved[0].ProductCode != "FLX 4P" {
		t.Fatalf("resolved = %+v", result.Resolved)
	}
	if len(result.Unresolved) != 1 || result.Unresolved[0].NormalizedCode != "MYSTERY1" {
		t.Fatalf("unresolved = %+v", result.Unresolved)
	}
}

func TestHandleResolveRejectsEmptyBatch(t *testing.T) {
	s := newTestServer(t)

	ctx := doRequest(t, s, fasthttp.MethodPost, "/api/v1/resolve", map[string]any{"lines": []internal.RawLineItem{}})
	if ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
}

func TestHandleCalculate(t *testing.T) {
	s := newTestServer(t)

	ctx := doRequest(t, s, fasthttp.MethodPost, "/api/v1/calculate", map[string]any{
		"products": []internal.ResolvedProduct{
			{LineNumber: 1, ProductCode: "FLX 4P", Quantity: 3, TimePerUnit: 1.5, TotalTime: 4.5, TotalWaste: 1.5},
		},
		"details": map[string]any{"overrideFitterCount": 0},
	})
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status = %d, body %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}

	var resp struct {
		Results       internal.CalculationResults `json:"results"`
		DetailErrors  []internal.ValidationError  `json:"detailErrors"`
		ProductErrors []internal.ValidationError  `json:"productErrors"`
	}
	if err := json.Unmarshal(ctx.Response.Body(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Results.FitterCount != 0 {
		t.Fatalf("override not applied: %+v", resp.Results)
	}
	if len(resp.DetailErrors) != 1 || resp.DetailErrors[0].Field != "overrideFitterCount" {
		t.Fatalf("detail errors = %+v", resp.DetailErrors)
	}
	if len(resp.ProductErrors) != 0 {
		t.Fatalf("product errors = %+v", resp.ProductErrors)
	}
}

func TestHandleCalculateBadBody(t *testing.T) {
	s := newTestServer(t)

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(fasthttp.MethodPost)
	ctx.Request.SetRequestURI("/api/v1/calculate")
	ctx.Request.SetBody([]byte("{broken"))
	s.Handler(ctx)
	if ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
}

func TestHandleUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	ctx := doRequest(t, s, fasthttp.MethodGet, "/api/v1/nope", nil)
	if ctx.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
}

func TestSessionLearnFlow(t *testing.T) {
	s := newTestServer(t)

	ctx := doRequest(t, s, fasthttp.MethodPost, "/api/v1/session/lines", map[string]any{
		"lines": []internal.RawLineItem{
			{LineNumber: 1, ProductCode: "WIDGET-9", Quantity: 2},
		},
	})
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}

	ctx = doRequest(t, s, fasthttp.MethodPost, "/api/v1/catalogue/learn", map[string]any{
		"code":             "WIDGET-9",
		"installTimeHours": 2.0,
		"sessionOnly":      true,
	})
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status = %d, body %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}

	var result pipeline.ResolveResult
	if err := json.Unmarshal(ctx.Response.Body(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(result.Unresolved) != 0 || len(result.Resolved) != 1 {
		t.Fatalf("result = %+v", result)
	}
	if result.Resolved[0].Source != internal.SourceUserInputted {
		t.Fatalf("resolved = %+v", result.Resolved[0])
	}
}
