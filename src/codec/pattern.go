package codec

import (
	"fmt"
	"strings"

	"rsacrack/src/params"
)

// ParsePartialPrimePattern parses a partial-prime CLI literal such as
// "0x1a2b????", "0x...1a2b" or "0b1?0?1" into a params.PartialPrimePattern.
// The radix prefix (0x/0b/0o, default decimal) sets Digits' base. Wildcards
// must be contiguous at one end (all '?' or one "..."/"…" run) — interleaved
// wildcards are rejected here rather than silently misparsed, per
// SPEC_FULL.md §9's open question on this format.
func ParsePartialPrimePattern(s string) (*params.PartialPrimePattern, error) {
	radix := params.Dec
	body := s
	switch {
	case strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X"):
		radix = params.Hex
		body = body[2:]
	case strings.HasPrefix(body, "0b") || strings.HasPrefix(body, "0B"):
		radix = params.Bin
		body = body[2:]
	case strings.HasPrefix(body, "0o") || strings.HasPrefix(body, "0O"):
		radix = params.Oct
		body = body[2:]
	}
	if body == "" {
		return nil, fmt.Errorf("empty partial-prime literal")
	}

	body = strings.ReplaceAll(body, "…", "...")

	if strings.Contains(body, "...") {
		return parseEllipsisPattern(body, radix)
	}
	if strings.Contains(body, "?") {
		return parseWildcardPattern(body, radix)
	}
	return nil, fmt.Errorf("partial-prime literal %q has no wildcard ('?' or '...')", s)
}

func parseEllipsisPattern(body string, radix params.Radix) (*params.PartialPrimePattern, error) {
	parts := strings.SplitN(body, "...", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("malformed ellipsis pattern %q", body)
	}
	if strings.Contains(parts[1], "...") {
		return nil, fmt.Errorf("only one ellipsis run is supported in %q", body)
	}
	left, right := parts[0], parts[1]

	switch {
	case left == "" && right != "":
		digits, err := parseDigits(right, radix)
		if err != nil {
			return nil, err
		}
		return &params.PartialPrimePattern{Radix: radix, Digits: digits, Ellipsis: true, WildcardAtMSB: true}, nil
	case left != "" && right == "":
		digits, err := parseDigits(left, radix)
		if err != nil {
			return nil, err
		}
		return &params.PartialPrimePattern{Radix: radix, Digits: digits, Ellipsis: true, WildcardAtMSB: false}, nil
	case left == "" && right == "":
		return nil, fmt.Errorf("ellipsis pattern %q has no known digits at all", body)
	default:
		return nil, fmt.Errorf("ellipsis pattern %q has known digits on both sides of the wildcard run, which is not supported", body)
	}
}

func parseWildcardPattern(body string, radix params.Radix) (*params.PartialPrimePattern, error) {
	first := strings.IndexByte(body, '?')
	last := strings.LastIndexByte(body, '?')
	run := body[first : last+1]
	for _, c := range run {
		if c != '?' {
			return nil, fmt.Errorf("interleaved wildcards are not supported in %q: wildcards must form one contiguous run at one end", body)
		}
	}
	wildcardCount := last - first + 1

	switch {
	case first == 0 && last == len(body)-1:
		return nil, fmt.Errorf("pattern %q has no known digits at all", body)
	case first == 0:
		known := body[last+1:]
		digits, err := parseDigits(known, radix)
		if err != nil {
			return nil, err
		}
		return &params.PartialPrimePattern{Radix: radix, Digits: digits, WildcardCount: wildcardCount, WildcardAtMSB: true}, nil
	case last == len(body)-1:
		known := body[:first]
		digits, err := parseDigits(known, radix)
		if err != nil {
			return nil, err
		}
		return &params.PartialPrimePattern{Radix: radix, Digits: digits, WildcardCount: wildcardCount, WildcardAtMSB: false}, nil
	default:
		return nil, fmt.Errorf("wildcards must be a prefix or suffix in %q, not surrounded by known digits on both sides", body)
	}
}

func parseDigits(s string, radix params.Radix) ([]int, error) {
	out := make([]int, 0, len(s))
	for _, c := range s {
		d, err := digitValue(c)
		if err != nil || d >= int(radix) {
			return nil, fmt.Errorf("invalid digit %q for radix %d", c, radix)
		}
		out = append(out, d)
	}
	return out, nil
}

func digitValue(c rune) (int, error) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), nil
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, nil
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, nil
	default:
		return 0, fmt.Errorf("not a digit: %q", c)
	}
}
