package models

// Requests for the analysis HTTP endpoints. Defined in domain for consistency and reuse.

// DefaultHorizon is used when the horizon query parameter is absent.
const DefaultHorizon = 14

// MaxBatchSymbols caps a single batch request.
const MaxBatchSymbols = 20

type AnalyzeRequest struct {
	Symbol string `param:"symbol" validate:"required,symbol"`
	// Horizon has no default tag: 0 is a valid explicit value, the handler fills DefaultHorizon when absent.
	Horizon int    `query:"horizon" validate:"gte=0,lte=60"`
	Period  string `query:"period" default:"6mo" validate:"oneof=1mo 3mo 6mo 1y 2y 5y"`
}

type BatchAnalyzeRequest struct {
	Symbols []string `json:"symbols" validate:"required,min=1,max=20,dive,required,symbol"`
	// Horizon is a pointer so an explicit 0 survives defaulting; nil means DefaultHorizon.
	Horizon *int     `json:"horizon" validate:"omitnil,gte=0,lte=60"`
	Period  string   `json:"period" default:"6mo" validate:"oneof=1mo 3mo 6mo 1y 2y 5y"`
}

type EvaluateRequest struct {
	Symbol  string `param:"symbol" validate:"required,symbol"`
	Splits  int    `query:"splits" default:"5" validate:"gte=1,lte=10"`
	Horizon int    `query:"horizon" default:"7" validate:"gte=1,lte=30"`
	Period  string `query:"period" default:"1y" validate:"oneof=6mo 1y 2y 5y"`
}
