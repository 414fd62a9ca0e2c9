// Package config loads and validates projection.yaml project files.
//
// # Schema Overview
//
//	version: "1"
//	packages: ["./..."]
//	output:
//	  filename: projections_gen.go
//	  manifest: build/projections.json
//	defaults:
//	  comment_output_mode: Full
//	  property_accessor_mode: GetInit
//	  array_nullability_removal: false
//	analysis:
//	  workers: 4
//	  max_depth: 6
//	  max_self_nesting: 3
//	callsites:
//	  - id: orders-summary
//	    package: example.com/app/reports
//	    source: example.com/app/store.Order
//	    output: OrderSummary
//	    selector: "o => new { o.ID, Buyer = o.Customer?.Name }"
//	    captures:
//	      - name: min
//	        type: float64
//	    options:
//	      record_instead_of_class: true
//
// Call sites discovered from Go code and those declared under callsites are
// compiled in the same batch. Option keys left out inherit from defaults,
// which in turn inherit from callsite.DefaultOptions.
package config
