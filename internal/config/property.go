package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jgivc/celty/internal/common"
	"gopkg.in/yaml.v2"
)

const propertySeparator = "."

func parseTree(data []byte) (map[string]any, error) {
	var raw map[any]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	tree, _ := normalize(raw).(map[string]any)
	if tree == nil {
		tree = map[string]any{}
	}

	return tree, nil
}

// normalize turns yaml.v2 generic values into map[string]any and []any.
func normalize(node any) any {
	switch n := node.(type) {
	case map[any]any:
		m := make(map[string]any, len(n))
		for k, v := range n {
			m[fmt.Sprint(k)] = normalize(v)
		}

		return m
	case []any:
		s := make([]any, len(n))
		for i, v := range n {
			s[i] = normalize(v)
		}

		return s
	}

	return node
}

func lookupProperty(tree map[string]any, path string) (any, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", common.ErrUnknownProperty)
	}

	var cur any = tree
	for _, seg := range strings.Split(path, propertySeparator) {
		switch n := cur.(type) {
		case map[string]any:
			v, exists := n[seg]
			if !exists {
				return nil, fmt.Errorf("%w: %s", common.ErrUnknownProperty, path)
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(n) {
				return nil, fmt.Errorf("%w: %s", common.ErrUnknownProperty, path)
			}
			cur = n[idx]
		default:
			return nil, fmt.Errorf("%w: %s", common.ErrUnknownProperty, path)
		}
	}

	switch cur.(type) {
	case nil, map[string]any, []any:
		return nil, fmt.Errorf("%w: %s is not a value", common.ErrUnknownProperty, path)
	}

	return cur, nil
}
