// Package nullsafe removes null-propagating operators from expression trees.
//
// A chain a?.b?.c becomes one conjunctive guard around one plain chain,
//
//	a != null && a.b != null ? a.b.c : null
//
// and a ?? b becomes a != null ? a : b. Collection-valued results never fall
// back to null: their fallback is the canonical empty sequence of the result
// type.
package nullsafe
