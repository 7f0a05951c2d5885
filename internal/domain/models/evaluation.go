package models

// ForecastMetrics compares a forecast against realized prices.
type ForecastMetrics struct {
	MAE                 float64 `json:"mae"`
	RMSE                float64 `json:"rmse"`
	R2                  float64 `json:"r2"`
	MAPE                float64 `json:"mape"`                 // percent
	DirectionalAccuracy float64 `json:"directional_accuracy"` // percent
	Bias                float64 `json:"bias"`
	NormalizedRMSE      float64 `json:"normalized_rmse"` // percent of mean actual
	NormalizedMAE       float64 `json:"normalized_mae"`  // percent of mean actual
	DataPoints          int     `json:"data_points"`
}

type Quality string

const (
	QualityExcellent Quality = "Excellent"
	QualityGood      Quality = "Good"
	QualityFair      Quality = "Fair"
	QualityPoor      Quality = "Poor"
)

// SplitResult is one rolling-origin cross-validation fold.
type SplitResult struct {
	Split     int             `json:"split"`
	TrainSize int             `json:"train_size"`
	TestSize  int             `json:"test_size"`
	TrainEnd  string          `json:"train_end"`
	Metrics   ForecastMetrics `json:"metrics"`
}

// MetricSummary aggregates one metric over all folds.
type MetricSummary struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

type CrossValidation struct {
	Splits  []SplitResult            `json:"splits"`
	Summary map[string]MetricSummary `json:"summary"`
}

// EvaluationReport is returned by the evaluate endpoint.
type EvaluationReport struct {
	Symbol          string          `json:"symbol"`
	Engine          string          `json:"engine"`
	Horizon         int             `json:"horizon"`
	Observations    int             `json:"observations"`
	RequestedSplits int             `json:"requested_splits"`
	CrossValidation CrossValidation `json:"cross_validation"`
	Overall         ForecastMetrics `json:"overall"`
	Quality         Quality         `json:"quality"`
}
