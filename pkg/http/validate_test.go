package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type quoteRequest struct {
	Symbol  string `param:"symbol" validate:"required,symbol"`
	Horizon int    `query:"horizon" default:"5" validate:"gte=0,lte=90"`
}

func bindQuote(t *testing.T, symbol, query string) (*quoteRequest, []ValidationError) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/quote"+query, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("symbol")
	c.SetParamValues(symbol)
	out := &quoteRequest{}
	return out, ReadAndValidateRequest(c, out)
}

func TestReadAndValidateRequest(t *testing.T) {
	for _, sym := range []string{"AAPL", "BRK-B", "^GSPC", "EURUSD=X", "7203.T"} {
		req, errs := bindQuote(t, sym, "")
		if errs != nil {
			t.Fatalf("%s: unexpected errors %+v", sym, errs)
		}
		if req.Horizon != 5 {
			t.Fatalf("%s: default horizon not applied, got %d", sym, req.Horizon)
		}
	}

	_, errs := bindQuote(t, "AA$PL", "")
	if len(errs) != 1 || errs[0].Code != "ERR_SYMBOL" || errs[0].Field != "symbol" {
		t.Fatalf("unexpected symbol errors %+v", errs)
	}

	_, errs = bindQuote(t, "AAPL", "?horizon=91")
	if len(errs) != 1 || errs[0].Code != "ERR_LTE" || errs[0].Field != "horizon" {
		t.Fatalf("unexpected horizon errors %+v", errs)
	}
	if errs[0].Params["max"] != "90" {
		t.Fatalf("unexpected params %+v", errs[0].Params)
	}

	_, errs = bindQuote(t, "AAPL", "?horizon=soon")
	if len(errs) != 1 || errs[0].Code != "ERR_BIND" {
		t.Fatalf("expected bind error, got %+v", errs)
	}
}
