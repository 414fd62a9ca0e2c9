package callers

import (
	"projection-generator/proj"
	"projection-generator/store"
)

// Summary is declared by hand and bound as a pre-existing output.
type Summary struct {
	ID     int64
	Number string
}

func orders(min int64, selector string) {
	_, _ = proj.Select[store.Order](`o => new { o.ID, Buyer = o.Customer?.FullName }`)
	_, _ = proj.SelectAs[store.Order, Summary]("o => new { o.ID, o.Number }")
	_, _ = proj.SelectAs[store.Order, OrderCard]("o => new { o.ID }")
	_, _ = proj.SelectAs[store.Order, Generated]("o => new { o.ID }")
	_ = proj.MustSelect[*store.Customer]("c => new { c.Email }", proj.Capture("min", min), proj.Capture("label", "vip"))
	_, _ = proj.Select[store.Order](selector)
	_, _ = proj.Select[store.Order]("o => new { o.ID }", proj.Capture("min", min), proj.Capture("min", min))
}
