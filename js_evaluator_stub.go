//go:build !js_eval

package treestate

// NewJSEvaluator returns nil unless the module is built with the js_eval
// tag.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	_ = applyJSEvaluatorOptions(opts)
	return nil
}

func jsEvaluatorAvailable() bool {
	return false
}
