package codec

// ExtractRawParameters and the CLI literal parsers below are grounded on
// the factorRegex line-scanning idiom in the retrieved pack's cryptopuff
// factorkey tool, generalised from a single "P\d+ = (\d+)" line to the
// full n=/e=/p=/q=/d=/c=/phi=/dp=/dq=/qinv=/pinv=/sum_pq=/diff_pq= raw-dump
// vocabulary a CTF challenge.txt hands out, including multi-key groups.

import (
	"bufio"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"rsacrack/src/params"
)

var rawFieldRegex = regexp.MustCompile(`(?i)^\s*([a-z_]+)\s*(?:\[(\d+)\])?\s*[:=]\s*(.+?)\s*$`)

var rawFieldNames = map[string]func(p *params.Parameters, v *big.Int){
	"n":       func(p *params.Parameters, v *big.Int) { p.N = v },
	"e":       func(p *params.Parameters, v *big.Int) { p.E = v },
	"p":       func(p *params.Parameters, v *big.Int) { p.P = v },
	"q":       func(p *params.Parameters, v *big.Int) { p.Q = v },
	"d":       func(p *params.Parameters, v *big.Int) { p.D = v },
	"phi":     func(p *params.Parameters, v *big.Int) { p.Phi = v },
	"dp":      func(p *params.Parameters, v *big.Int) { p.DP = v },
	"dq":      func(p *params.Parameters, v *big.Int) { p.DQ = v },
	"qinv":    func(p *params.Parameters, v *big.Int) { p.QInv = v },
	"q_inv":   func(p *params.Parameters, v *big.Int) { p.QInv = v },
	"pinv":    func(p *params.Parameters, v *big.Int) { p.PInv = v },
	"p_inv":   func(p *params.Parameters, v *big.Int) { p.PInv = v },
	"sum_pq":  func(p *params.Parameters, v *big.Int) { p.SumPQ = v },
	"diff_pq": func(p *params.Parameters, v *big.Int) { p.DiffPQ = v },
}

// ExtractRawParameters scans text line by line for "name = value" and
// "name[i] = value" assignments (SPEC_FULL.md §6), grouping by the
// bracketed index into one Parameters per key. A ciphertext field with no
// index is appended to key 0's C slice in order of appearance.
func ExtractRawParameters(text string) ([]params.Parameters, error) {
	byIndex := map[int]*params.Parameters{}
	var order []int

	get := func(idx int) *params.Parameters {
		if p, ok := byIndex[idx]; ok {
			return p
		}
		p := params.New()
		byIndex[idx] = &p
		order = append(order, idx)
		return &p
	}

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		m := rawFieldRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.ToLower(m[1])
		idx := 0
		if m[2] != "" {
			n, err := strconv.Atoi(m[2])
			if err == nil {
				idx = n
			}
		}
		rawValue := strings.TrimSpace(m[3])

		if name == "c" || name == "ct" || name == "ciphertext" {
			v, err := ParseNumericLiteral(rawValue)
			if err != nil {
				continue
			}
			p := get(idx)
			p.C = append(p.C, v)
			continue
		}

		set, ok := rawFieldNames[name]
		if !ok {
			continue
		}
		v, err := ParseNumericLiteral(rawValue)
		if err != nil {
			return nil, fmt.Errorf("parsing %s on line %q: %w", name, line, err)
		}
		set(get(idx), v)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	for i := 0; i < len(order); i++ {
		for j := i + 1; j < len(order); j++ {
			if order[j] < order[i] {
				order[i], order[j] = order[j], order[i]
			}
		}
	}
	out := make([]params.Parameters, 0, len(order))
	for _, idx := range order {
		out = append(out, *byIndex[idx])
	}
	return out, nil
}

// ParseNumericLiteral parses a CLI/file numeric literal in decimal, or with
// a 0x/0X (hex), 0b/0B (binary) or 0o/0O (octal) prefix.
func ParseNumericLiteral(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty numeric literal")
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	base := 10
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		base = 16
		s = s[2:]
	case strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B"):
		base = 2
		s = s[2:]
	case strings.HasPrefix(s, "0o") || strings.HasPrefix(s, "0O"):
		base = 8
		s = s[2:]
	}

	v, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, fmt.Errorf("invalid numeric literal %q", s)
	}
	if neg {
		v.Neg(v)
	}
	return v, nil
}
