package evaluation

import "github.com/ricesearch/evalkit/callback"

// Dataset is an evaluation input file.
type Dataset struct {
	Actual     []float64   `json:"actual" yaml:"actual"`
	Predicted  []float64   `json:"predicted" yaml:"predicted"`
	Queries    []Query     `json:"queries,omitempty" yaml:"queries,omitempty"`
	Iterations []Iteration `json:"iterations,omitempty" yaml:"iterations,omitempty"`
}

// Query is one ranked retrieval with its relevant items.
type Query struct {
	ID       string   `json:"id" yaml:"id"`
	Relevant []string `json:"relevant" yaml:"relevant"`
	Ranked   []string `json:"ranked" yaml:"ranked"`
}

// Iteration holds the predictions of one boosting round. Actual falls back
// to the dataset's labels when omitted.
type Iteration struct {
	Actual    []float64 `json:"actual,omitempty" yaml:"actual,omitempty"`
	Predicted []float64 `json:"predicted" yaml:"predicted"`
}

// QueryResult contains ranking metrics for a single query
type QueryResult struct {
	QueryID     string  `json:"query_id"`
	AP          float64 `json:"ap"` // AP@k
	Precision   float64 `json:"precision"`
	Recall      float64 `json:"recall"`
	MRR         float64 `json:"mrr"`
	ResultCount int     `json:"result_count"`
}

// Summary aggregates ranking metrics across queries
type Summary struct {
	QueryCount    int     `json:"query_count"`
	K             int     `json:"k"`
	MAP           float64 `json:"map"` // MAP@k
	MeanPrecision float64 `json:"mean_precision"`
	MeanRecall    float64 `json:"mean_recall"`
	MeanMRR       float64 `json:"mean_mrr"`
}

// Report is the outcome of evaluating a dataset.
type Report struct {
	Results []callback.EvalResult `json:"results"`
	Queries []*QueryResult        `json:"queries,omitempty"`
	Summary *Summary              `json:"summary,omitempty"`
}
