package expr

import (
	"fmt"
	"math"
	"strings"

	"github.com/goccy/go-json"
)

// Marshal encodes the lambda as JSON.
func Marshal(l *Lambda) ([]byte, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to encode expression tree: %w", err)
	}

	return data, nil
}

// MarshalIndent encodes the lambda as indented JSON.
func MarshalIndent(l *Lambda) ([]byte, error) {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode expression tree: %w", err)
	}

	return data, nil
}

// Unmarshal decodes a lambda produced by Marshal. Integer constants are
// restored to int64 using their declared type.
func Unmarshal(data []byte) (*Lambda, error) {
	var l Lambda
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to decode expression tree: %w", err)
	}

	l.Body = Rebuild(l.Body, func(n *Node) *Node {
		if n.Kind == KindConst {
			n.Value = restoreConst(n.Value, n.Type)
		}

		return n
	})

	return &l, nil
}

func restoreConst(v any, t *Type) any {
	f, ok := v.(float64)
	if !ok || t == nil || t.Kind != TypeBasic {
		return v
	}

	if strings.HasPrefix(t.Name, "int") || strings.HasPrefix(t.Name, "uint") {
		if f == math.Trunc(f) {
			return int64(f)
		}
	}

	return f
}
