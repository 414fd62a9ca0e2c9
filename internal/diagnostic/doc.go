// Package diagnostic provides the structured errors and warnings reported
// for projection call sites.
//
// Pipeline passes fail with an *Error carrying a Code, an optional field
// path such as "Items.Product.Name" and ranked suggestions. The compiler
// turns it into a Diagnostic attached to the call site and moves on to the
// next one, so one broken selector never stops a batch.
package diagnostic
