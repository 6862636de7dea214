// Package metric provides evaluation metrics for gradient-boosting models.
//
// Regression:
//   - MAPE, SMAPE: percentage errors
//   - RMSE, RMSLE: root mean squared (log) error
//
// Ranking:
//   - NormalizedGini: rank-based Gini coefficient against the perfect ordering
//   - AUC: area under the ROC curve
//   - AveragePrecisionAtK, MeanAveragePrecisionAtK: retrieval precision of top-k lists
//
// Every function is pure and safe for concurrent use. Invalid input is reported
// through errors that match ErrInputShape, ErrDegenerateInput or ErrValidation
// with errors.Is.
package metric
