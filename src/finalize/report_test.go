package finalize

import (
	"math/big"
	"strings"
	"testing"

	"rsacrack/src/params"
)

func TestRenderPlaintextsSortsByIndex(t *testing.T) {
	k := Key{Plaintexts: map[int]*big.Int{
		2: big.NewInt(3),
		0: big.NewInt(1),
		1: big.NewInt(2),
	}}
	out := RenderPlaintexts(k)
	if len(out) != 3 {
		t.Fatalf("expected 3 renderings, got %d", len(out))
	}
	for i, r := range out {
		if r.Index != i {
			t.Fatalf("renderings not sorted by index: %+v", out)
		}
	}
}

func TestRenderPlaintextsGuessesPrintableText(t *testing.T) {
	m := new(big.Int).SetBytes([]byte("hello"))
	k := Key{Plaintexts: map[int]*big.Int{0: m}}
	out := RenderPlaintexts(k)
	if out[0].Text != "hello" {
		t.Fatalf("expected printable text guess %q, got %q", "hello", out[0].Text)
	}
}

func TestRenderPlaintextsRejectsNonPrintable(t *testing.T) {
	m := new(big.Int).SetBytes([]byte{0x00, 0x01, 0xff})
	k := Key{Plaintexts: map[int]*big.Int{0: m}}
	out := RenderPlaintexts(k)
	if out[0].Text != "" {
		t.Fatalf("expected no printable guess for binary garbage, got %q", out[0].Text)
	}
}

func TestSummarizeKeyReportsKnownFields(t *testing.T) {
	p := params.New()
	p.N = big.NewInt(3233)
	p.E = big.NewInt(17)
	p.P = big.NewInt(61)
	p.Q = big.NewInt(53)
	p.D = big.NewInt(2753)
	k := Key{Params: p, Complete: true}

	out := SummarizeKey(k, false)
	for _, want := range []string{"n = 3233", "e = 17", "p = 61", "q = 53", "d = 2753"} {
		if !strings.Contains(out, want) {
			t.Fatalf("SummarizeKey output missing %q:\n%s", want, out)
		}
	}
}

func TestSummarizeKeyExtendedIncludesCRTFields(t *testing.T) {
	p := params.New()
	p.N = big.NewInt(3233)
	p.E = big.NewInt(17)
	p.Phi = big.NewInt(3120)
	k := Key{Params: p}

	basic := SummarizeKey(k, false)
	if strings.Contains(basic, "phi(n)") {
		t.Fatalf("expected phi(n) to be omitted without extended, got:\n%s", basic)
	}
	extended := SummarizeKey(k, true)
	if !strings.Contains(extended, "phi(n) = 3120") {
		t.Fatalf("expected phi(n) in extended summary, got:\n%s", extended)
	}
}

func TestShowInputsIncludesCiphertextsAndPatterns(t *testing.T) {
	p := params.New()
	p.N = big.NewInt(3233)
	p.C = []*big.Int{big.NewInt(2790)}
	p.PPattern["p"] = &params.PartialPrimePattern{Radix: params.Hex, Digits: []int{3}, WildcardCount: 1}
	k := Key{Params: p}

	out := ShowInputs(k)
	if !strings.Contains(out, "c[0] = 2790") {
		t.Fatalf("expected ciphertext line, got:\n%s", out)
	}
	if !strings.Contains(out, "p pattern:") {
		t.Fatalf("expected partial-prime pattern line, got:\n%s", out)
	}
}
