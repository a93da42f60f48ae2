package cmd

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"fmt"
	"math/big"
	"os"
	"strings"

	"rsacrack/src/attacks"
	"rsacrack/src/codec"
	"rsacrack/src/finalize"
	"rsacrack/src/orchestrator"
	"rsacrack/src/params"
)

// stringList accumulates repeated occurrences of a flag, e.g. -c 17 -c 93.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// CrackCommand handles the crack subcommand: the attack orchestrator's CLI
// front door.
func CrackCommand(args []string) error {
	fs := flag.NewFlagSet("crack", flag.ExitOnError)

	var (
		nLit       = fs.String("n", "", "modulus (decimal or 0x/0b/0o literal)")
		eLit       = fs.String("e", "", "public exponent (default 65537)")
		pLit       = fs.String("p", "", "prime p, full or partial (?/... wildcards)")
		qLit       = fs.String("q", "", "prime q, full or partial (?/... wildcards)")
		dLit       = fs.String("d", "", "private exponent")
		phiLit     = fs.String("phi", "", "phi(n) = (p-1)(q-1)")
		dpLit      = fs.String("dp", "", "d mod (p-1)")
		dqLit      = fs.String("dq", "", "d mod (q-1)")
		qinvLit    = fs.String("qinv", "", "q^-1 mod p")
		pinvLit    = fs.String("pinv", "", "p^-1 mod q")
		sumpqLit   = fs.String("sum-pq", "", "p + q")
		diffpqLit  = fs.String("diff-pq", "", "|p - q|")
		halfsumLit = fs.String("half-sum-pq", "", "(p + q) / 2, rounded down")
		keyFile    = fs.String("key", "", "PEM/OpenSSH key file, or file of raw n=/e=/c= assignments")
		password   = fs.String("password", "", "passphrase for an encrypted --key file")
		raw        = fs.Bool("raw", false, "force --key to be parsed as raw n=/e=/c= text, skipping PEM/OpenSSH detection")
		attackList = fs.String("attack", "", "comma-separated list of attacks to run (default: all)")
		exclude    = fs.String("exclude", "", "comma-separated list of attacks to skip")
		listFlag   = fs.Bool("list", false, "list every attack name and exit")
		outFile    = fs.String("outfile", "", "write the recovered private (or public) key as PEM to this path")
		public     = fs.Bool("public", false, "with --outfile, write the public key instead of the private key")
		_          = fs.Bool("private", false, "with --outfile, write the private key (default behavior; accepted for compatibility)")
		dump       = fs.Bool("dump", false, "print every recovered quantity and plaintext")
		dumpExt    = fs.String("dumpext", "", "dump phi/dP/dQ/qInv and p, q, d to <outfile>.<ext> instead of stdout")
		factorsOnl = fs.Bool("factors", false, "print only the recovered prime factors")
		showInputs = fs.Bool("showinputs", false, "print every supplied input field and exit without attacking")
		addPass    = fs.String("addpassword", "", "encrypt the exported private key PEM with this passphrase (PKCS1 legacy encryption)")
		threads    = fs.Int("threads", 0, "worker pool size for medium/slow attacks (default: number of CPUs)")
		dlog       = fs.Bool("dlog", false, "treat each ciphertext as e^c mod n and solve the discrete log for c, instead of factoring")
		verbose    = fs.Bool("verbose", false, "log skipped/failed attacks to stderr")
		quiet      = fs.Bool("quiet", false, "suppress the live progress display")
	)
	var cipherLits stringList
	fs.Var(&cipherLits, "c", "ciphertext to decrypt once the key is solved (repeatable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s crack [-n N] [-e E] [-p P] [-q Q] [-d D] [flags...]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nRecover an RSA private key and/or plaintext from partial key material\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s crack -n 3233 -e 17 -c 2790\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s crack --key challenge.pem -c 0x1a2b\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s crack --key dump.txt --raw --outfile key.pem\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *listFlag {
		for _, name := range attacks.Names() {
			fmt.Println(name)
		}
		return nil
	}

	keys, err := loadKeys(*keyFile, *raw, []byte(*password))
	if err != nil {
		return err
	}

	if len(keys) == 0 {
		keys = []params.Parameters{params.New()}
	}
	p := &keys[0]

	if err := applyLiteral(nLit, &p.N); err != nil {
		return fmt.Errorf("crack: -n: %w", err)
	}
	if *eLit == "" && p.E == nil {
		p.E = big.NewInt(65537)
	}
	if err := applyLiteral(eLit, &p.E); err != nil {
		return fmt.Errorf("crack: -e: %w", err)
	}
	if err := applyPrimeLiteral(*pLit, &p.P, &p.PPattern, "p"); err != nil {
		return fmt.Errorf("crack: -p: %w", err)
	}
	if err := applyPrimeLiteral(*qLit, &p.Q, &p.PPattern, "q"); err != nil {
		return fmt.Errorf("crack: -q: %w", err)
	}
	if err := applyLiteral(dLit, &p.D); err != nil {
		return fmt.Errorf("crack: -d: %w", err)
	}
	if err := applyLiteral(phiLit, &p.Phi); err != nil {
		return fmt.Errorf("crack: --phi: %w", err)
	}
	if err := applyLiteral(dpLit, &p.DP); err != nil {
		return fmt.Errorf("crack: --dp: %w", err)
	}
	if err := applyLiteral(dqLit, &p.DQ); err != nil {
		return fmt.Errorf("crack: --dq: %w", err)
	}
	if err := applyLiteral(qinvLit, &p.QInv); err != nil {
		return fmt.Errorf("crack: --qinv: %w", err)
	}
	if err := applyLiteral(pinvLit, &p.PInv); err != nil {
		return fmt.Errorf("crack: --pinv: %w", err)
	}
	if err := applyLiteral(sumpqLit, &p.SumPQ); err != nil {
		return fmt.Errorf("crack: --sum-pq: %w", err)
	}
	if err := applyLiteral(diffpqLit, &p.DiffPQ); err != nil {
		return fmt.Errorf("crack: --diff-pq: %w", err)
	}
	if err := applyLiteral(halfsumLit, &p.HalfSumPQ); err != nil {
		return fmt.Errorf("crack: --half-sum-pq: %w", err)
	}
	for _, lit := range cipherLits {
		v, err := codec.ParseNumericLiteral(lit)
		if err != nil {
			return fmt.Errorf("crack: -c %q: %w", lit, err)
		}
		p.C = append(p.C, v)
	}

	if *showInputs {
		fmt.Print(finalize.ShowInputs(finalize.Key{Params: *p}))
		return nil
	}

	var include, excl []string
	if *attackList != "" {
		include = strings.Split(*attackList, ",")
	}
	if *exclude != "" {
		excl = strings.Split(*exclude, ",")
	}
	if *dlog {
		include = []string{"discrete_log_cipher"}
	}

	results, err := orchestrator.Crack(context.Background(), keys, orchestrator.Options{
		Include:     include,
		Exclude:     excl,
		Threads:     *threads,
		Interactive: !*quiet,
		Verbose:     *verbose,
	})
	if err != nil {
		return fmt.Errorf("crack: %w", err)
	}

	anySolved := false
	for i, r := range results {
		if len(results) > 1 {
			fmt.Printf("=== key %d ===\n", i)
		}
		if !r.Solved {
			fmt.Println("no attack succeeded")
			continue
		}
		anySolved = true
		if err := reportResult(r, *dump, *dumpExt, *factorsOnl, *outFile, *public, *addPass); err != nil {
			return err
		}
	}
	if !anySolved {
		return fmt.Errorf("crack: no attack succeeded")
	}
	return nil
}

func loadKeys(keyFile string, raw bool, password []byte) ([]params.Parameters, error) {
	if keyFile == "" {
		return nil, nil
	}
	if raw {
		data, err := os.ReadFile(keyFile)
		if err != nil {
			return nil, fmt.Errorf("crack: reading --key: %w", err)
		}
		sets, err := codec.ExtractRawParameters(string(data))
		if err != nil {
			return nil, fmt.Errorf("crack: --raw: %w", err)
		}
		return sets, nil
	}
	return codec.LoadKeyFileMulti(keyFile, password)
}

// applyLiteral parses *lit (if non-empty) as a numeric literal into *dst.
func applyLiteral(lit *string, dst **big.Int) error {
	if *lit == "" {
		return nil
	}
	v, err := codec.ParseNumericLiteral(*lit)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// applyPrimeLiteral handles -p/-q, which may be a full literal or a partial
// pattern containing '?' or '...' wildcards.
func applyPrimeLiteral(lit string, dst **big.Int, patterns *map[string]*params.PartialPrimePattern, side string) error {
	if lit == "" {
		return nil
	}
	if strings.ContainsAny(lit, "?") || strings.Contains(lit, "...") || strings.Contains(lit, "…") {
		pat, err := codec.ParsePartialPrimePattern(lit)
		if err != nil {
			return err
		}
		if *patterns == nil {
			*patterns = map[string]*params.PartialPrimePattern{}
		}
		(*patterns)[side] = pat
		return nil
	}
	v, err := codec.ParseNumericLiteral(lit)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// saveEncryptedPrivateKeyPEM writes a passphrase-protected PKCS1 PEM using
// the legacy RFC 1423 encryption scheme, for challenge authors who expect
// an --addpassword-protected key out the other end.
func saveEncryptedPrivateKeyPEM(path string, p params.Parameters, passphrase string) error {
	if p.N == nil || p.E == nil || p.P == nil || p.Q == nil || p.D == nil {
		return fmt.Errorf("cannot export PEM: key is not fully solved")
	}
	key := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{N: p.N, E: int(p.E.Int64())},
		D:         p.D,
		Primes:    []*big.Int{p.P, p.Q},
	}
	key.Precompute()

	der := x509.MarshalPKCS1PrivateKey(key)
	//nolint:staticcheck // legacy PEM encryption is what CTF tooling expects here
	block, err := x509.EncryptPEMBlock(rand.Reader, "RSA PRIVATE KEY", der, []byte(passphrase), x509.PEMCipherAES256)
	if err != nil {
		return fmt.Errorf("encrypting PEM: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return pem.Encode(f, block)
}

func reportResult(r orchestrator.KeyResult, dump bool, dumpExt string, factorsOnly bool, outFile string, public bool, addPass string) error {
	fk, err := finalize.Finalize(r.Params, finalize.Options{DecryptCiphertexts: true, ExtraPlaintexts: r.Plaintexts})
	if err != nil {
		return fmt.Errorf("crack: %w", err)
	}

	switch {
	case factorsOnly:
		for _, fi := range fk.Params.FactorInts() {
			fmt.Printf("%s^%d\n", fi.F, fi.M)
		}
	case dumpExt != "":
		if outFile == "" {
			return fmt.Errorf("crack: --dumpext requires --outfile")
		}
		sidePath := outFile + "." + dumpExt
		if err := os.WriteFile(sidePath, []byte(finalize.SummarizeKey(fk, true)), 0o644); err != nil {
			return fmt.Errorf("crack: writing %s: %w", sidePath, err)
		}
	case dump:
		fmt.Print(finalize.SummarizeKey(fk, true))
	default:
		if r.SolvedBy != "" {
			fmt.Printf("solved by: %s\n", r.SolvedBy)
		}
		fmt.Print(finalize.SummarizeKey(fk, false))
	}

	if outFile != "" {
		if public {
			if err := codec.SavePublicKeyPEM(outFile, fk.Params); err != nil {
				return fmt.Errorf("crack: %w", err)
			}
			return nil
		}
		if addPass != "" {
			if err := saveEncryptedPrivateKeyPEM(outFile, fk.Params, addPass); err != nil {
				return fmt.Errorf("crack: %w", err)
			}
			return nil
		}
		if err := codec.SavePrivateKeyPEM(outFile, fk.Params); err != nil {
			return fmt.Errorf("crack: %w", err)
		}
	}
	return nil
}
