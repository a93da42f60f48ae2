package finalize

import (
	"fmt"
	"math/big"
	"strings"
)

// PlaintextRendering is one recovered plaintext shown two ways: the exact
// integer, and a best-effort printable guess (big-endian bytes, trimmed of
// a leading zero byte, shown only if it decodes as printable text).
type PlaintextRendering struct {
	Index   int
	Decimal string
	Bytes   []byte
	Text    string // empty if Bytes doesn't look like printable text
}

// RenderPlaintexts formats every recovered plaintext for --dump/--dumpext
// reporting, sorted by ciphertext index.
func RenderPlaintexts(k Key) []PlaintextRendering {
	out := make([]PlaintextRendering, 0, len(k.Plaintexts))
	indices := make([]int, 0, len(k.Plaintexts))
	for i := range k.Plaintexts {
		indices = append(indices, i)
	}
	for i := 0; i < len(indices); i++ {
		for j := i + 1; j < len(indices); j++ {
			if indices[j] < indices[i] {
				indices[i], indices[j] = indices[j], indices[i]
			}
		}
	}
	for _, i := range indices {
		m := k.Plaintexts[i]
		b := m.Bytes()
		r := PlaintextRendering{Index: i, Decimal: m.String(), Bytes: b}
		if text, ok := asPrintable(b); ok {
			r.Text = text
		}
		out = append(out, r)
	}
	return out
}

// asPrintable returns b decoded as a string if every byte is a printable
// ASCII character, tab, newline or carriage return; this is a display heuristic only, never
// used to decide correctness.
func asPrintable(b []byte) (string, bool) {
	if len(b) == 0 {
		return "", false
	}
	for _, c := range b {
		if c == '\t' || c == '\n' || c == '\r' {
			continue
		}
		if c < 0x20 || c > 0x7e {
			return "", false
		}
	}
	return string(b), true
}

// SummarizeKey renders a --dump-style human-readable summary of a Key: the
// known private-key quantities plus any recovered plaintexts.
func SummarizeKey(k Key, extended bool) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "n = %s\n", formatOrUnknown(k.Params.N))
	fmt.Fprintf(&sb, "e = %s\n", formatOrUnknown(k.Params.E))
	if k.Params.P != nil {
		fmt.Fprintf(&sb, "p = %s\n", k.Params.P)
	}
	if k.Params.Q != nil {
		fmt.Fprintf(&sb, "q = %s\n", k.Params.Q)
	}
	if k.Params.D != nil {
		fmt.Fprintf(&sb, "d = %s\n", k.Params.D)
	}
	if extended {
		if k.Params.Phi != nil {
			fmt.Fprintf(&sb, "phi(n) = %s\n", k.Params.Phi)
		}
		if k.Params.DP != nil {
			fmt.Fprintf(&sb, "dP = %s\n", k.Params.DP)
		}
		if k.Params.DQ != nil {
			fmt.Fprintf(&sb, "dQ = %s\n", k.Params.DQ)
		}
		if k.Params.QInv != nil {
			fmt.Fprintf(&sb, "qInv = %s\n", k.Params.QInv)
		}
	}

	for _, pr := range RenderPlaintexts(k) {
		fmt.Fprintf(&sb, "m[%d] = %s\n", pr.Index, pr.Decimal)
		if pr.Text != "" {
			fmt.Fprintf(&sb, "m[%d] (text) = %q\n", pr.Index, pr.Text)
		}
	}

	if sb.Len() == 0 {
		return "(nothing recovered)\n"
	}
	return sb.String()
}

// ShowInputs renders the inputs that were supplied before any attack ran,
// without deriving further fields, for the --showinputs flag (SPEC_FULL.md §4.4).
func ShowInputs(k Key) string {
	var sb strings.Builder
	fields := []struct {
		name string
		v    *big.Int
	}{
		{"n", k.Params.N}, {"e", k.Params.E},
		{"p", k.Params.P}, {"q", k.Params.Q}, {"d", k.Params.D},
		{"phi", k.Params.Phi}, {"dp", k.Params.DP}, {"dq", k.Params.DQ},
		{"p_inv", k.Params.PInv}, {"q_inv", k.Params.QInv},
		{"sum_pq", k.Params.SumPQ}, {"diff_pq", k.Params.DiffPQ},
		{"half_sum_pq", k.Params.HalfSumPQ},
	}
	for _, f := range fields {
		if f.v != nil {
			fmt.Fprintf(&sb, "%s = %s\n", f.name, f.v)
		}
	}
	for side, pat := range k.Params.PPattern {
		fmt.Fprintf(&sb, "%s pattern: radix=%d known-digits=%d wildcards=%d ellipsis=%t\n",
			side, pat.Radix, len(pat.Digits), pat.WildcardCount, pat.Ellipsis)
	}
	for i, c := range k.Params.C {
		fmt.Fprintf(&sb, "c[%d] = %s\n", i, c)
	}
	return sb.String()
}

func formatOrUnknown(v *big.Int) string {
	if v == nil {
		return "(unknown)"
	}
	return v.String()
}
