package ml

import (
	"errors"
	"fmt"
	"slices"
)

// TreeNode is one node of a tree stored as a flat array. Children always sit
// after their parent, which guarantees traversal terminates.
type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	Categories []int   `json:"categories,omitempty"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	ClassLabel int     `json:"class_label"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
}

// goesLeft reports whether x takes the left branch. Categorical splits route
// the listed category codes left; numeric splits route x <= threshold left.
func (n TreeNode) goesLeft(x float64) bool {
	if len(n.Categories) > 0 {
		return slices.Contains(n.Categories, int(x))
	}
	return x <= n.Threshold
}

// DecisionTree is a single classification tree whose leaves carry class labels.
type DecisionTree struct {
	info   ModelInfo
	schema Schema
	nodes  []TreeNode
}

func (dt *DecisionTree) Info() ModelInfo { return dt.info }

func (dt *DecisionTree) Schema() Schema { return dt.schema }

func (dt *DecisionTree) Predict(frame Frame) (int, error) {
	features, err := dt.schema.Encode(frame)
	if err != nil {
		return 0, err
	}
	leaf, err := walk(dt.nodes, features)
	if err != nil {
		return 0, err
	}
	return leaf.ClassLabel, nil
}

func walk(nodes []TreeNode, features []float64) (TreeNode, error) {
	if len(nodes) == 0 {
		return TreeNode{}, errors.New("model not trained")
	}
	idx := 0
	for {
		node := nodes[idx]
		if node.IsLeaf {
			return node, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return TreeNode{}, errors.New("feature index out of range")
		}
		if node.goesLeft(features[node.FeatureIdx]) {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(nodes) {
			return TreeNode{}, errors.New("invalid tree state")
		}
	}
}

// validateNodes checks the flat layout once at load time.
func validateNodes(nodes []TreeNode, featureCount int) error {
	if len(nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	for i, node := range nodes {
		if node.IsLeaf {
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= featureCount {
			return fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
		}
		for _, child := range []int{node.LeftChild, node.RightChild} {
			if child <= i || child >= len(nodes) {
				return fmt.Errorf("node %d: invalid child %d", i, child)
			}
		}
	}
	return nil
}
