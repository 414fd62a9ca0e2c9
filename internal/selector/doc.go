// Package selector parses selector text such as
//
//	o => new { o.ID, Customer = o.Customer?.FullName, Items = o.Items.Select(i => new { i.Name }) }
//
// into a small syntax tree and models the object construction at its root as
// an ordered list of named properties. Comments and whitespace are dropped by
// the lexer and never reach the parser.
package selector
