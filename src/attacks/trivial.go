package attacks

// Trivial/tabular attacks: cheap enough to run as part of the fast layer
// before anything else gets a chance to touch the parameters.

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"os"
	"time"

	"rsacrack/src/attack"
	"rsacrack/src/params"
)

// smallPrimeBound is the trial-division ceiling; primeTable holds every
// prime up to and including it, sieved once at package init.
const smallPrimeBound = 1_000_000

var primeTable = sieveOfEratosthenes(smallPrimeBound)

func sieveOfEratosthenes(n int) []int64 {
	isComposite := make([]bool, n+1)
	var primes []int64
	for i := 2; i <= n; i++ {
		if isComposite[i] {
			continue
		}
		primes = append(primes, int64(i))
		for j := i * i; j <= n && j > 0; j += i {
			isComposite[j] = true
		}
	}
	return primes
}

// SmallPrime factors n by trial division against a precomputed prime table
// up to smallPrimeBound, recursively applying to the cofactor. It succeeds
// as soon as any factor is found; an attacker pays the sieve cost once,
// amortised across every key this process runs against.
var SmallPrime = attack.Attack{
	Name:  "small_prime",
	Speed: attack.Fast,
	Requirements: func(p params.Parameters) bool {
		return p.N != nil && len(p.Factors) == 0
	},
	Run: func(p params.Parameters, cancel attack.Cancel, progress attack.Progress) attack.Result {
		n := new(big.Int).Set(p.N)
		sol := attack.Solution{Factors: map[string]int{}}
		found := false

		for i, prime := range primeTable {
			if cancel.Cancelled() {
				break
			}
			if i%4096 == 0 {
				progress.Report("small_prime", float64(i)/float64(len(primeTable)), "trial division")
			}
			pb := big.NewInt(prime)
			for {
				q, r := new(big.Int).QuoRem(n, pb, new(big.Int))
				if r.Sign() != 0 {
					break
				}
				sol.Factors[pb.String()]++
				n.Set(q)
				found = true
			}
			if n.Cmp(big1) == 0 {
				break
			}
		}

		if !found {
			return attack.Result{OK: false, Status: attack.Failed, Reason: "no small factor found"}
		}
		if n.Cmp(big1) != 0 {
			sol.Factors[n.String()]++
		}
		return attack.Result{OK: true, Solution: sol}
	},
}

// factorDBEndpoint is the public FactorDB JSON API.
const factorDBEndpoint = "http://factordb.com/api"

type factorDBResponse struct {
	Status  string `json:"status"`
	Factors [][2]json.RawMessage `json:"factors"`
}

// FactorDB queries the public FactorDB database for known factorisations
// of n. It is a pure lookup and never fails the pipeline when offline or
// disabled: both cases come back as Skipped, never Failed.
var FactorDB = attack.Attack{
	Name:  "factordb",
	Speed: attack.Fast,
	Requirements: func(p params.Parameters) bool {
		return p.N != nil && os.Getenv("NO_FACTORDB") != "1"
	},
	Run: func(p params.Parameters, cancel attack.Cancel, progress attack.Progress) attack.Result {
		client := http.Client{Timeout: 10 * time.Second}
		url := fmt.Sprintf("%s?query=%s", factorDBEndpoint, p.N.String())

		resp, err := client.Get(url)
		if err != nil {
			return attack.Result{Status: attack.Skipped, Reason: "factordb unreachable: " + err.Error()}
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return attack.Result{Status: attack.Skipped, Reason: "factordb read error: " + err.Error()}
		}

		var parsed factorDBResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return attack.Result{Status: attack.Skipped, Reason: "factordb malformed response"}
		}

		sol := attack.Solution{Factors: map[string]int{}}
		for _, pair := range parsed.Factors {
			var fStr string
			var mult int
			if err := json.Unmarshal(pair[0], &fStr); err != nil {
				continue
			}
			if err := json.Unmarshal(pair[1], &mult); err != nil {
				mult = 1
			}
			f, ok := new(big.Int).SetString(fStr, 10)
			if !ok || f.Cmp(big1) <= 0 {
				continue
			}
			sol.Factors[f.String()] += mult
		}

		if len(sol.Factors) == 0 {
			return attack.Result{OK: false, Status: attack.Failed, Reason: "factordb has no known factors"}
		}
		return attack.Result{OK: true, Solution: sol}
	},
}
