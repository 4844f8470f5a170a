package trainer

import (
	"fmt"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Metrics is the held-out evaluation suite. ROCAUCAvailable is false when the
// held-out labels contain a single class or no probabilities were supplied;
// ROCAUC is meaningless in that case and must not be read as 0.
type Metrics struct {
	Accuracy        float64
	Precision       float64
	Recall          float64
	F1              float64
	ROCAUC          float64
	ROCAUCAvailable bool
}

// Map flattens the metrics for registry logging, omitting ROC-AUC when it is
// unavailable rather than recording a misleading default.
func (m Metrics) Map() map[string]float64 {
	out := map[string]float64{
		"accuracy":  m.Accuracy,
		"precision": m.Precision,
		"recall":    m.Recall,
		"f1_score":  m.F1,
	}
	if m.ROCAUCAvailable {
		out["roc_auc"] = m.ROCAUC
	}
	return out
}

// Evaluate computes the metric suite on the held-out labels. Precision,
// recall, and F1 report 0 instead of failing when a denominator is zero.
func Evaluate(yTrue, yPred []int, proba []float64) Metrics {
	var tp, fp, tn, fn float64
	for i := range yTrue {
		switch {
		case yTrue[i] == 1 && yPred[i] == 1:
			tp++
		case yTrue[i] == 0 && yPred[i] == 1:
			fp++
		case yTrue[i] == 0 && yPred[i] == 0:
			tn++
		default:
			fn++
		}
	}
	n := float64(len(yTrue))

	m := Metrics{}
	if n > 0 {
		m.Accuracy = (tp + tn) / n
	}
	if tp+fp > 0 {
		m.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		m.Recall = tp / (tp + fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	m.ROCAUC, m.ROCAUCAvailable = rocAUC(yTrue, proba)
	return m
}

// rocAUC integrates the ROC curve. Requires both classes present in yTrue and
// a probability per row; reports unavailable otherwise.
func rocAUC(yTrue []int, proba []float64) (float64, bool) {
	if len(proba) != len(yTrue) || len(yTrue) == 0 {
		return 0, false
	}
	pos := 0
	for _, y := range yTrue {
		pos += y
	}
	if pos == 0 || pos == len(yTrue) {
		return 0, false
	}

	scores := append([]float64(nil), proba...)
	classes := make([]bool, len(yTrue))
	for i, y := range yTrue {
		classes[i] = y == 1
	}
	stat.SortWeightedLabeled(scores, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, scores, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), true
}

// scoreByName selects a tuning objective from the metric suite.
func scoreByName(name string, m Metrics) (float64, error) {
	switch name {
	case "accuracy":
		return m.Accuracy, nil
	case "precision":
		return m.Precision, nil
	case "recall":
		return m.Recall, nil
	case "f1":
		return m.F1, nil
	case "roc_auc":
		if !m.ROCAUCAvailable {
			return 0, fmt.Errorf("roc_auc unavailable on this fold")
		}
		return m.ROCAUC, nil
	default:
		return 0, fmt.Errorf("unknown scoring metric %q", name)
	}
}
