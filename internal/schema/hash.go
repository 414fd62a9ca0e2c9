package schema

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/unicode/norm"

	"projection-generator/expr"
	"projection-generator/internal/callsite"
	"projection-generator/internal/common"
)

// ComputeHashes sets the Hash of every node, children before parents. The
// nodes may come from any number of call sites.
func ComputeHashes(nodes []*Node) error {
	index := make(map[*Node]int, len(nodes))
	for i, n := range nodes {
		index[n] = i
	}

	order, err := common.TopoSort(len(nodes), func(i int) []int {
		var deps []int
		for _, p := range nodes[i].Properties {
			if j, ok := index[p.Nested]; ok && p.Nested != nil {
				deps = append(deps, j)
			}
		}

		return deps
	})
	if err != nil {
		return fmt.Errorf("ordering shapes: %w", err)
	}

	for _, i := range order {
		nodes[i].Hash = Hash(nodes[i])
	}

	return nil
}

// Hash returns the content hash of n. Nested nodes must already be hashed.
func Hash(n *Node) string {
	h := xxh3.New()
	_, _ = h.Write([]byte(Canonical(n)))

	return hex.EncodeToString(h.Sum(nil))
}

// Canonical is the description Hash digests: one line per property,
//
//	name=type;nullable
//
// where a nested anonymous shape appears as #<hash> and a named one as
// <namespace>.<name>. The naming mode of n itself is not part of it.
func Canonical(n *Node) string {
	var sb strings.Builder
	for _, p := range n.Properties {
		sb.WriteString(norm.NFC.String(p.Name))
		sb.WriteByte('=')
		sb.WriteString(canonicalType(p))
		sb.WriteByte(';')
		sb.WriteString(strconv.FormatBool(p.Nullable))
		sb.WriteByte('\n')
	}

	return sb.String()
}

func canonicalType(p *Property) string {
	t := expr.MapType(p.Type, func(t *expr.Type) *expr.Type {
		if t.Kind != expr.TypeShape || t.Ref == "" {
			return nil
		}

		return &expr.Type{Kind: expr.TypeShape, Name: shapeMarker(p.Nested, t.Ref), Nullable: t.Nullable}
	})

	return norm.NFC.String(t.String())
}

func shapeMarker(n *Node, ref string) string {
	if n == nil {
		return "?" + ref
	}

	switch m := n.Mode.(type) {
	case callsite.ExplicitNamed:
		return n.Namespace.Path + "." + m.Name
	case callsite.PreExisting:
		return m.Type.ID.String()
	case callsite.Anonymous:
		return "#" + n.Hash
	default:
		panic(fmt.Sprintf("schema: unknown mode %T", n.Mode))
	}
}
