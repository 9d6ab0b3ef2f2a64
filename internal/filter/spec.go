package filter

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/blendgraph/blendgraph/internal/utils"
)

// Sign selects whether a rule's matches are unioned into or subtracted
// from the accumulating block set.
type Sign int

const (
	Include Sign = iota
	Exclude
)

// Rule is one parsed filter-spec rule: `[+|-][depth][*]key=value`.
type Rule struct {
	Sign      Sign
	Depth     int
	Unbounded bool
	Key       string
	Pattern   *regexp.Regexp
	Raw       string
}

func filterErr(msg string) error {
	return utils.NewError(utils.DomainParser, utils.KindInvalidData, msg).WithOperation("parse_filter_rule")
}

// ParseRule parses a single rule string. A missing sign defaults to
// Include; a missing depth defaults to 0 (no transitive expansion).
func ParseRule(s string) (Rule, error) {
	raw := s
	if s == "" {
		return Rule{}, filterErr("empty filter rule")
	}

	sign := Include
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		sign = Exclude
		s = s[1:]
	}

	eq := strings.IndexByte(s, '=')
	if eq < 0 {
		return Rule{}, filterErr("filter rule \"" + raw + "\" missing '=' separator")
	}
	lhs, value := s[:eq], s[eq+1:]

	depth := 0
	unbounded := false
	i := 0
	for i < len(lhs) && lhs[i] >= '0' && lhs[i] <= '9' {
		i++
	}
	if i > 0 {
		n, err := strconv.Atoi(lhs[:i])
		if err != nil {
			return Rule{}, filterErr("filter rule \"" + raw + "\" has invalid depth")
		}
		depth = n
		lhs = lhs[i:]
	} else if strings.HasPrefix(lhs, "*") {
		unbounded = true
		lhs = lhs[1:]
	}

	key := lhs
	if key == "" {
		return Rule{}, filterErr("filter rule \"" + raw + "\" missing key")
	}
	if !validKey(key) {
		return Rule{}, filterErr("filter rule \"" + raw + "\" has unknown key \"" + key + "\"")
	}

	pattern, err := regexp.Compile(value)
	if err != nil {
		return Rule{}, filterErr("filter rule \"" + raw + "\" has invalid pattern: " + err.Error())
	}

	return Rule{Sign: sign, Depth: depth, Unbounded: unbounded, Key: key, Pattern: pattern, Raw: raw}, nil
}

func validKey(key string) bool {
	switch key {
	case "code", "name", "size", "address", "index":
		return true
	default:
		return false
	}
}

// ParseSpec parses an ordered list of rule strings into Rules, in the same
// order.
func ParseSpec(rules []string) ([]Rule, error) {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		parsed, err := ParseRule(r)
		if err != nil {
			return nil, err
		}
		out = append(out, parsed)
	}
	return out, nil
}
