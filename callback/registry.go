package callback

import (
	"sort"
	"strings"

	"github.com/ricesearch/evalkit/internal/pkg/errors"
	"github.com/ricesearch/evalkit/metric"
)

// Built-in metrics.
var (
	MAPE  = Metric{Name: "mape", Score: metric.MAPE}
	SMAPE = Metric{Name: "smape", Score: metric.SMAPE}
	RMSE  = Metric{Name: "rmse", Score: metric.RMSE}
	RMSLE = Metric{Name: "rmsle", Score: metric.RMSLE}
	Gini  = Metric{Name: "gini", Score: metric.NormalizedGini, HigherIsBetter: true}
	AUC   = Metric{Name: "auc", Score: metric.AUC, HigherIsBetter: true}
)

var registry = map[string]Metric{
	MAPE.Name:  MAPE,
	SMAPE.Name: SMAPE,
	RMSE.Name:  RMSE,
	RMSLE.Name: RMSLE,
	Gini.Name:  Gini,
	AUC.Name:   AUC,
}

// Lookup returns the built-in metric with the given name (case-insensitive).
func Lookup(name string) (Metric, error) {
	m, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Metric{}, errors.UnknownMetricError(name)
	}
	return m, nil
}

// Names returns the registered metric names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
