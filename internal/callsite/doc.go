// Package callsite describes one occurrence of proj.Select or proj.SelectAs:
// the source type, how the output type is named, the selector text, captured
// values and the per-call rendering options.
package callsite
