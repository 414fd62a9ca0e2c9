// Package discover finds projection call sites.
//
// Go packages are loaded with golang.org/x/tools/go/packages and scanned for
// calls to proj.Select, proj.SelectAs and proj.MustSelect. The selector must
// be a constant string; captures must be proj.Capture calls with a constant
// name. The Dst argument of SelectAs picks the naming mode: a type declared
// by hand is pre-existing, while a name that is undeclared or only declared
// in generated code is explicit.
//
// Call sites may also be listed in projection.yaml; FromConfig resolves them
// against the same type graph.
package discover
