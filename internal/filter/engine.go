// Package filter applies ordered include/exclude rules, each with an
// optional transitive-dependency expansion depth, to a parsed file's
// block set.
package filter

import (
	"context"
	"fmt"
	"sort"

	"github.com/blendgraph/blendgraph/internal/expand"
	"github.com/blendgraph/blendgraph/internal/names"
	"github.com/blendgraph/blendgraph/internal/trace"
)

// Evaluate applies rules in order to file's full block set, returning the
// surviving block indices in ascending order. dataPolicy governs the
// post-filter step that hides DATA blocks (§4.10 step 3).
func Evaluate(ctx context.Context, file expand.ParsedFile, reg *expand.Registry, rules []Rule, dataPolicy DataPolicy) ([]int, error) {
	total := file.BlockCount()
	all := make(map[int]struct{}, total)
	for i := 0; i < total; i++ {
		all[i] = struct{}{}
	}

	acc := make(map[int]struct{}, total)
	for i := 0; i < total; i++ {
		acc[i] = struct{}{}
	}

	for _, rule := range rules {
		matches, err := matchingSet(file, rule)
		if err != nil {
			return nil, err
		}

		expanded, err := expandMatches(ctx, file, reg, matches, rule)
		if err != nil {
			return nil, err
		}

		switch rule.Sign {
		case Include:
			for idx := range expanded {
				acc[idx] = struct{}{}
			}
		case Exclude:
			for idx := range expanded {
				delete(acc, idx)
			}
		}
	}

	out := make([]int, 0, len(acc))
	for idx := range acc {
		if !IsBlockVisible(file.Block(idx).Header.CodeString(), dataPolicy) {
			continue
		}
		out = append(out, idx)
	}
	sort.Ints(out)
	return out, nil
}

func matchingSet(file expand.ParsedFile, rule Rule) (map[int]struct{}, error) {
	out := make(map[int]struct{})
	for i := 0; i < file.BlockCount(); i++ {
		value, err := attribute(file, i, rule.Key)
		if err != nil {
			continue
		}
		if rule.Pattern.MatchString(value) {
			out[i] = struct{}{}
		}
	}
	return out, nil
}

func attribute(file expand.ParsedFile, idx int, key string) (string, error) {
	b := file.Block(idx)
	switch key {
	case "code":
		return b.Header.CodeString(), nil
	case "size":
		return fmt.Sprintf("%d", b.Header.Size), nil
	case "address":
		return fmt.Sprintf("%x", b.Header.OldAddress), nil
	case "index":
		return fmt.Sprintf("%d", idx), nil
	case "name":
		view, err := file.FieldView(idx)
		if err != nil {
			return "", err
		}
		raw, err := view.ReadFieldString("ID", "name")
		if err != nil {
			return "", err
		}
		return names.ResolveIDName(raw), nil
	default:
		return "", fmt.Errorf("unknown filter key %q", key)
	}
}

// expandMatches grows each matched block by rule.Depth steps of
// dependency closure (0 = no expansion, unbounded = full transitive
// closure), unioning the root and its discovered dependents.
func expandMatches(ctx context.Context, file expand.ParsedFile, reg *expand.Registry, matches map[int]struct{}, rule Rule) (map[int]struct{}, error) {
	if rule.Depth == 0 && !rule.Unbounded {
		return matches, nil
	}

	out := make(map[int]struct{}, len(matches))
	for idx := range matches {
		out[idx] = struct{}{}

		opts := trace.Options{MaxDepth: rule.Depth}
		if rule.Unbounded {
			opts.MaxDepth = 0
		}
		result, err := trace.Trace(ctx, file, reg, idx, opts)
		if err != nil {
			return nil, err
		}
		for _, d := range result.Order {
			out[d] = struct{}{}
		}
	}
	return out, nil
}
