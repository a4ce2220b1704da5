package services

import (
	"math"
	"math/rand"
	"sort"
	"travel-matrix-service/internal/domain"
)

// Bagged regression trees over ZIP-pair features. Deliberately small: the
// feature space is nine dimensions and the target is bounded drive minutes,
// so shallow trees with modest leaf sizes are enough.
const (
	treeMaxDepth    = 8
	treeMinLeafSize = 5
)

type regressionForest struct {
	trees []*treeNode
}

type treeNode struct {
	// Leaf prediction when left/right are nil.
	value float64

	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

func trainForest(x [][9]float64, y []float64, nTrees int, rng *rand.Rand) (*regressionForest, error) {
	if len(x) == 0 {
		return nil, domain.ErrTooFewKnown
	}
	if nTrees < 1 {
		nTrees = 1
	}

	f := &regressionForest{trees: make([]*treeNode, nTrees)}
	for t := 0; t < nTrees; t++ {
		// Bootstrap sample per tree.
		sampleX := make([][9]float64, len(x))
		sampleY := make([]float64, len(x))
		for i := range sampleX {
			j := rng.Intn(len(x))
			sampleX[i] = x[j]
			sampleY[i] = y[j]
		}
		f.trees[t] = buildTree(sampleX, sampleY, 0, rng)
	}
	return f, nil
}

func (f *regressionForest) predict(features [9]float64) float64 {
	sum := 0.0
	for _, t := range f.trees {
		sum += t.predictOne(features)
	}
	return sum / float64(len(f.trees))
}

func (n *treeNode) predictOne(features [9]float64) float64 {
	for n.left != nil {
		if features[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

func buildTree(x [][9]float64, y []float64, depth int, rng *rand.Rand) *treeNode {
	if depth >= treeMaxDepth || len(y) < 2*treeMinLeafSize {
		return &treeNode{value: mean(y)}
	}

	feature, threshold, ok := bestSplit(x, y, rng)
	if !ok {
		return &treeNode{value: mean(y)}
	}

	var leftX, rightX [][9]float64
	var leftY, rightY []float64
	for i := range x {
		if x[i][feature] <= threshold {
			leftX = append(leftX, x[i])
			leftY = append(leftY, y[i])
		} else {
			rightX = append(rightX, x[i])
			rightY = append(rightY, y[i])
		}
	}
	if len(leftY) < treeMinLeafSize || len(rightY) < treeMinLeafSize {
		return &treeNode{value: mean(y)}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      buildTree(leftX, leftY, depth+1, rng),
		right:     buildTree(rightX, rightY, depth+1, rng),
	}
}

// Pick the (feature, threshold) pair minimizing the summed squared error of
// the two halves. A random third of the features is considered per split,
// decorrelating the bagged trees.
func bestSplit(x [][9]float64, y []float64, rng *rand.Rand) (int, float64, bool) {
	candidates := rng.Perm(9)[:3]

	bestErr := math.Inf(1)
	bestFeature, bestThreshold := 0, 0.0
	found := false

	for _, feature := range candidates {
		order := make([]int, len(x))
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool { return x[order[a]][feature] < x[order[b]][feature] })

		// Prefix sums over the sorted order make each candidate threshold
		// evaluable in O(1).
		prefixSum := make([]float64, len(y)+1)
		prefixSq := make([]float64, len(y)+1)
		for i, idx := range order {
			prefixSum[i+1] = prefixSum[i] + y[idx]
			prefixSq[i+1] = prefixSq[i] + y[idx]*y[idx]
		}
		total := prefixSum[len(y)]
		totalSq := prefixSq[len(y)]

		for split := treeMinLeafSize; split <= len(y)-treeMinLeafSize; split++ {
			lo := x[order[split-1]][feature]
			hi := x[order[split]][feature]
			if lo == hi {
				continue
			}

			nL := float64(split)
			nR := float64(len(y) - split)
			sumL := prefixSum[split]
			sumR := total - sumL
			sqL := prefixSq[split]
			sqR := totalSq - sqL

			sse := (sqL - sumL*sumL/nL) + (sqR - sumR*sumR/nR)
			if sse < bestErr {
				bestErr = sse
				bestFeature = feature
				bestThreshold = (lo + hi) / 2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func mean(y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range y {
		sum += v
	}
	return sum / float64(len(y))
}
