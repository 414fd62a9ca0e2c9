// Package analyze loads Go packages and describes their types for the
// selector binder.
//
// An Analyzer turns go/types information from golang.org/x/tools/go/packages
// into a TypeGraph of TypeInfo values keyed by TypeID. Struct fields keep
// their declaration position so that conflicts with pre-existing output types
// can be reported where the field is declared, and embedded fields are
// promoted by FieldByName. ExprType converts a TypeInfo into the expr.Type
// used by expression trees.
package analyze
