package ml

import "math"

// GradientBoosting is an additive ensemble of regression trees over the logit.
// The label is 1 when sigmoid(base + sum of leaves) reaches the threshold.
type GradientBoosting struct {
	info      ModelInfo
	schema    Schema
	trees     [][]TreeNode
	baseScore float64
	threshold float64
}

func (gb *GradientBoosting) Info() ModelInfo { return gb.info }

func (gb *GradientBoosting) Schema() Schema { return gb.schema }

func (gb *GradientBoosting) Predict(frame Frame) (int, error) {
	features, err := gb.schema.Encode(frame)
	if err != nil {
		return 0, err
	}
	margin := gb.baseScore
	for _, tree := range gb.trees {
		leaf, err := walk(tree, features)
		if err != nil {
			return 0, err
		}
		margin += leaf.Value
	}
	if sigmoid(margin) >= gb.threshold {
		return 1, nil
	}
	return 0, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
