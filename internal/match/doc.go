// Package match compares names and types for diagnostics and pre-existing
// output types.
//
// NameScore rates how likely one member name is a misspelling of another;
// Suggest and RankFields turn those scores into "did you mean" lists.
// Compatible decides whether an inferred value type may be stored in a
// declared field, and ScoreTypeCompatibility does the same for go/types
// values such as the arguments of methods on captured values.
package match
