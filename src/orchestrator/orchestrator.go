package orchestrator

import (
	"context"
	"fmt"
	"math/big"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"rsacrack/src/attack"
	"rsacrack/src/attacks"
	"rsacrack/src/params"
)

// Options configures a Crack run.
type Options struct {
	Include     []string // --attack: run exactly these (others Skipped)
	Exclude     []string // --exclude: run all but these
	Threads     int      // 0 means runtime.NumCPU()
	Interactive bool      // render progress bars
	Verbose     bool      // log skip/fail at debug level
}

// KeyResult is the final state of one key after a Crack run.
type KeyResult struct {
	Params     params.Parameters
	Solved     bool
	SolvedBy   string // name of the attack (or cross-attack) that produced the winning finding

	// Plaintexts holds any ciphertext-index -> message recovered directly
	// by an attack (common_modulus, hastad_broadcast, discrete_log_cipher)
	// rather than via d. The finalizer folds these in through
	// finalize.Options.ExtraPlaintexts.
	Plaintexts map[int]*big.Int
}

// cancelFlag is a single-write, lock-free-read cancellation signal shared
// by every in-flight attack.
type cancelFlag struct {
	v atomic.Bool
}

func (c *cancelFlag) Cancelled() bool { return c.v.Load() }
func (c *cancelFlag) set()            { c.v.Store(true) }

type finding struct {
	keyIdx int
	name   string
	sol    attack.Solution
}

// Crack runs the selected attacks against keys, single-key attacks fanned
// out per key and cross-key attacks once over the whole vector, and
// returns the final (possibly solved) state of each key. It never returns
// an error for "no attack succeeded" — that is reported via KeyResult.Solved
// — only for configuration errors resolved before any attack runs.
func Crack(ctx context.Context, keys []params.Parameters, opts Options) ([]KeyResult, error) {
	selected, selectedCross, err := resolveSelection(opts)
	if err != nil {
		return nil, err
	}

	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	runCtx, cancelCtx := context.WithCancel(ctx)
	defer cancelCtx()

	flag := &cancelFlag{}
	go func() {
		<-runCtx.Done()
		flag.set()
	}()

	agg := NewAggregator(opts.Interactive, opts.Verbose)
	defer agg.Finish()

	findings := make(chan finding, 256)
	var winnerOnce sync.Once

	declareWinner := func() {
		winnerOnce.Do(cancelCtx)
	}

	current := make([]params.Parameters, len(keys))
	var currentMu sync.Mutex
	for i, k := range keys {
		current[i] = k.Clone()
	}

	// Fast layer: run synchronously per key, but keys themselves run
	// concurrently with each other (spec.md §4.4's "per-key attacks for
	// each P in parallel" in multi-key mode; a single key degenerates to
	// one goroutine here).
	var fastWG sync.WaitGroup
	for i := range keys {
		i := i
		fastWG.Add(1)
		go func() {
			defer fastWG.Done()
			runFastLayer(flag, agg, selected, i, &current[i], &currentMu, findings, declareWinner)
		}()
	}
	fastWG.Wait()

	// Medium/slow layer + cross-key attacks, fanned out over one
	// thread-bounded pool shared across every key.
	g := &errgroup.Group{}
	g.SetLimit(threads)

	for i := range keys {
		i := i
		currentMu.Lock()
		snapshot := current[i].Clone()
		terminal := isTerminal(snapshot)
		currentMu.Unlock()
		if terminal {
			continue
		}
		for _, a := range selected {
			if a.Speed == attack.Fast {
				continue
			}
			a := a
			if !a.Requirements(snapshot) {
				agg.Debugf("skip %s (key %d): requirements not met", a.Name, i)
				continue
			}
			g.Go(func() error {
				if flag.Cancelled() {
					return nil
				}
				res := a.Run(snapshot.Clone(), flag, agg)
				if res.OK && !res.Solution.Empty() {
					findings <- finding{keyIdx: i, name: a.Name, sol: res.Solution}
					declareWinner()
				} else {
					agg.Debugf("%s (key %d): %s", a.Name, i, res.Reason)
				}
				return nil
			})
		}
	}

	if len(keys) >= 1 {
		snapshotAll := make([]params.Parameters, len(keys))
		currentMu.Lock()
		for i := range keys {
			snapshotAll[i] = current[i].Clone()
		}
		currentMu.Unlock()

		for _, ca := range selectedCross {
			ca := ca
			if !ca.Requirements(snapshotAll) {
				agg.Debugf("skip cross-attack %s: requirements not met", ca.Name)
				continue
			}
			g.Go(func() error {
				if flag.Cancelled() {
					return nil
				}
				crossResults := ca.Run(snapshotAll, flag, agg)
				for _, cr := range crossResults {
					if cr.Solution.Empty() {
						continue
					}
					findings <- finding{keyIdx: cr.KeyIndex, name: ca.Name, sol: cr.Solution}
					declareWinner()
				}
				return nil
			})
		}
	}

	_ = g.Wait()
	close(findings)

	results := make([]KeyResult, len(keys))
	for i := range keys {
		results[i].Params = current[i]
		results[i].Plaintexts = map[int]*big.Int{}
	}
	for f := range findings {
		currentMu.Lock()
		current[f.keyIdx] = mergeAndDerive(current[f.keyIdx], f.sol)
		currentMu.Unlock()
		if results[f.keyIdx].SolvedBy == "" {
			results[f.keyIdx].SolvedBy = f.name
		}
		for idx, m := range f.sol.Plaintexts {
			results[f.keyIdx].Plaintexts[idx] = m
		}
	}
	for i := range keys {
		currentMu.Lock()
		results[i].Params = current[i]
		currentMu.Unlock()
		results[i].Solved = isTerminal(results[i].Params) || fullyDecrypted(results[i])
	}

	return results, nil
}

// fullyDecrypted reports whether every ciphertext on r.Params has a
// recovered plaintext, the ciphertext-path completion signal for attacks
// (common_modulus, hastad_broadcast, discrete_log_cipher) that recover
// messages directly without ever producing p, q or d.
func fullyDecrypted(r KeyResult) bool {
	if len(r.Params.C) == 0 {
		return false
	}
	for i := range r.Params.C {
		if _, ok := r.Plaintexts[i]; !ok {
			return false
		}
	}
	return true
}

// runFastLayer runs every selected fast attack against key i in
// registration order, re-deriving the working Parameters after each
// finding so later fast attacks in the same layer see the enriched state
// (spec.md §4.4). Stops early once the key becomes terminal.
func runFastLayer(flag *cancelFlag, agg *Aggregator, selected []attack.Attack, keyIdx int, current *params.Parameters, mu *sync.Mutex, findings chan<- finding, declareWinner func()) {
	for _, a := range selected {
		if a.Speed != attack.Fast {
			continue
		}
		if flag.Cancelled() {
			return
		}

		mu.Lock()
		snapshot := current.Clone()
		mu.Unlock()

		if !a.Requirements(snapshot) {
			agg.Debugf("skip %s (key %d): requirements not met", a.Name, keyIdx)
			continue
		}
		res := a.Run(snapshot, flag, agg)
		if !res.OK || res.Solution.Empty() {
			agg.Debugf("%s (key %d): %s", a.Name, keyIdx, res.Reason)
			continue
		}

		findings <- finding{keyIdx: keyIdx, name: a.Name, sol: res.Solution}

		mu.Lock()
		*current = mergeAndDerive(*current, res.Solution)
		terminal := isTerminal(*current)
		mu.Unlock()

		if terminal {
			declareWinner()
			return
		}
	}
}

// mergeAndDerive folds a Solution's factors, d and phi into p and
// re-runs the derivation closure. Merging is commutative and associative
// so late-arriving findings (from attacks that finished just after
// cancellation) can always be merged in safely.
func mergeAndDerive(p params.Parameters, sol attack.Solution) params.Parameters {
	out := p.Clone()
	for f, m := range sol.Factors {
		if cur, ok := out.Factors[f]; !ok || m > cur {
			out.Factors[f] = m
		}
	}
	if sol.D != nil && out.D == nil {
		out.D = sol.D
	}
	if sol.Phi != nil && out.Phi == nil {
		out.Phi = sol.Phi
	}
	derived, err := params.Derive(out)
	if err == nil {
		out = derived
	}
	return out
}

// isTerminal reports whether p's private-key fields are fully solved per
// spec.md §3's lifecycle: either p, q and d are all known, or the
// recorded factors fully factor n and d is derivable. It does not cover
// the ciphertext-only path (ransacked plaintexts with no key recovered);
// Crack checks that separately via fullyDecrypted.
func isTerminal(p params.Parameters) bool {
	if p.P != nil && p.Q != nil && p.D != nil {
		return true
	}
	if len(p.Factors) > 0 && p.N != nil {
		prod := big.NewInt(1)
		for _, fi := range p.FactorInts() {
			for i := 0; i < fi.M; i++ {
				prod.Mul(prod, fi.F)
			}
		}
		if prod.Cmp(p.N) == 0 && p.D != nil {
			return true
		}
	}
	return false
}

func resolveSelection(opts Options) ([]attack.Attack, []attack.CrossAttack, error) {
	if len(opts.Include) > 0 && len(opts.Exclude) > 0 {
		return nil, nil, fmt.Errorf("orchestrator: --attack and --exclude are mutually exclusive")
	}

	known := map[string]bool{}
	for _, n := range attacks.Names() {
		known[n] = true
	}
	for _, n := range opts.Include {
		if !known[n] {
			return nil, nil, fmt.Errorf("orchestrator: unknown attack %q", n)
		}
	}
	for _, n := range opts.Exclude {
		if !known[n] {
			return nil, nil, fmt.Errorf("orchestrator: unknown attack %q", n)
		}
	}

	include := func(name string) bool {
		if len(opts.Include) > 0 {
			for _, n := range opts.Include {
				if n == name {
					return true
				}
			}
			return false
		}
		for _, n := range opts.Exclude {
			if n == name {
				return false
			}
		}
		return true
	}

	var single []attack.Attack
	for _, a := range attacks.All {
		if include(a.Name) {
			single = append(single, a)
		}
	}
	var cross []attack.CrossAttack
	for _, a := range attacks.AllCross {
		if include(a.Name) {
			cross = append(cross, a)
		}
	}
	return single, cross, nil
}
