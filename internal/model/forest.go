package model

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

// RandomForest is a bagged ensemble of CART trees with gini splits and √p
// feature subsampling. The seed fixes bootstrap and feature sampling, so
// fitting is reproducible.
type RandomForest struct {
	TreeList []*treeNode `json:"trees"`
	Trees    int         `json:"numTrees"`
	MaxDepth int         `json:"maxDepth"`
	MinLeaf  int         `json:"minLeaf"`
	Seed     int64       `json:"seed"`
}

type treeNode struct {
	Leaf      bool      `json:"leaf"`
	Prob      float64   `json:"prob,omitempty"` // positive fraction at the leaf
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *treeNode `json:"left,omitempty"`
	Right     *treeNode `json:"right,omitempty"`
}

func NewRandomForest(opts Options) *RandomForest {
	return &RandomForest{
		Trees:    opts.Trees,
		MaxDepth: opts.MaxDepth,
		MinLeaf:  opts.MinLeaf,
		Seed:     opts.Seed,
	}
}

func (m *RandomForest) Kind() Kind { return KindRandomForest }

func (m *RandomForest) Params() map[string]any {
	return map[string]any{
		"model_type":   "RandomForest",
		"n_estimators": m.Trees,
		"max_depth":    m.MaxDepth,
	}
}

func (m *RandomForest) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return errors.New("empty training set")
	}
	if len(X) != len(y) {
		return errors.New("feature and label counts differ")
	}
	n := len(X)
	p := len(X[0])
	mtry := int(math.Ceil(math.Sqrt(float64(p))))

	m.TreeList = make([]*treeNode, m.Trees)
	for t := 0; t < m.Trees; t++ {
		rng := rand.New(rand.NewSource(m.Seed + int64(t)))
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(n) // bootstrap sample
		}
		m.TreeList[t] = growTree(X, y, idx, mtry, m.MaxDepth, m.MinLeaf, rng)
	}
	return nil
}

func growTree(X [][]float64, y []int, idx []int, mtry, depth, minLeaf int, rng *rand.Rand) *treeNode {
	pos := 0
	for _, i := range idx {
		pos += y[i]
	}
	prob := float64(pos) / float64(len(idx))
	if depth <= 0 || len(idx) <= minLeaf || pos == 0 || pos == len(idx) {
		return &treeNode{Leaf: true, Prob: prob}
	}

	feature, threshold, ok := bestSplit(X, y, idx, mtry, rng)
	if !ok {
		return &treeNode{Leaf: true, Prob: prob}
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &treeNode{Leaf: true, Prob: prob}
	}
	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      growTree(X, y, left, mtry, depth-1, minLeaf, rng),
		Right:     growTree(X, y, right, mtry, depth-1, minLeaf, rng),
	}
}

// bestSplit scans a random feature subset for the threshold with the lowest
// weighted gini impurity.
func bestSplit(X [][]float64, y []int, idx []int, mtry int, rng *rand.Rand) (int, float64, bool) {
	p := len(X[0])
	features := rng.Perm(p)
	if mtry < len(features) {
		features = features[:mtry]
	}

	bestGini := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0
	values := make([]float64, 0, len(idx))

	for _, f := range features {
		values = values[:0]
		for _, i := range idx {
			values = append(values, X[i][f])
		}
		sort.Float64s(values)

		for k := 0; k+1 < len(values); k++ {
			if values[k] == values[k+1] {
				continue
			}
			threshold := (values[k] + values[k+1]) / 2
			g := splitGini(X, y, idx, f, threshold)
			if g < bestGini {
				bestGini = g
				bestFeature = f
				bestThreshold = threshold
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func splitGini(X [][]float64, y []int, idx []int, feature int, threshold float64) float64 {
	var nl, nr, posL, posR float64
	for _, i := range idx {
		if X[i][feature] <= threshold {
			nl++
			posL += float64(y[i])
		} else {
			nr++
			posR += float64(y[i])
		}
	}
	gini := func(n, pos float64) float64 {
		if n == 0 {
			return 0
		}
		p := pos / n
		return 2 * p * (1 - p)
	}
	total := nl + nr
	return (nl/total)*gini(nl, posL) + (nr/total)*gini(nr, posR)
}

func (m *RandomForest) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, p := range m.PredictProba(X) {
		if p >= 0.5 {
			out[i] = 1
		}
	}
	return out
}

func (m *RandomForest) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		sum := 0.0
		for _, tree := range m.TreeList {
			sum += tree.predict(row)
		}
		out[i] = sum / float64(len(m.TreeList))
	}
	return out
}

func (t *treeNode) predict(row []float64) float64 {
	if t.Leaf {
		return t.Prob
	}
	if row[t.Feature] <= t.Threshold {
		return t.Left.predict(row)
	}
	return t.Right.predict(row)
}
