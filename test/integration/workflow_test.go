package integration

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"rsacrack/src/codec"
	"rsacrack/src/finalize"
	"rsacrack/src/orchestrator"
	"rsacrack/src/params"
)

// TestEndToEndPublicKeyFileToExportedPrivateKey exercises the full
// pipeline a CTF player drives from the CLI: load a public key file,
// crack it, finalize the recovered key, and export it back out as a
// private-key PEM that re-loads to the same n and d.
func TestEndToEndPublicKeyFileToExportedPrivateKey(t *testing.T) {
	realP := big.NewInt(10007)
	realQ := big.NewInt(10009)
	n := new(big.Int).Mul(realP, realQ)
	e := big.NewInt(65537)

	pubDER := x509.MarshalPKCS1PublicKey(&rsa.PublicKey{N: n, E: int(e.Int64())})
	dir := t.TempDir()
	pubPath := filepath.Join(dir, "pub.pem")
	f, err := os.Create(pubPath)
	if err != nil {
		t.Fatalf("creating %s: %v", pubPath, err)
	}
	if err := pem.Encode(f, &pem.Block{Type: "RSA PUBLIC KEY", Bytes: pubDER}); err != nil {
		t.Fatalf("pem.Encode: %v", err)
	}
	f.Close()

	loaded, err := codec.LoadKeyFile(pubPath, nil)
	if err != nil {
		t.Fatalf("LoadKeyFile: %v", err)
	}
	loaded.C = []*big.Int{new(big.Int).Exp(big.NewInt(7), e, n)}

	results, err := orchestrator.Crack(context.Background(), []params.Parameters{loaded}, orchestrator.Options{
		Include: []string{"small_prime", "fermat"},
	})
	if err != nil {
		t.Fatalf("Crack: %v", err)
	}
	if !results[0].Solved {
		t.Fatalf("expected a small two-prime modulus to be solved")
	}

	fk, err := finalize.Finalize(results[0].Params, finalize.Options{DecryptCiphertexts: true})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if m := fk.Plaintexts[0]; m == nil || m.Int64() != 7 {
		t.Fatalf("recovered plaintext = %v, want 7", m)
	}

	outPath := filepath.Join(dir, "priv.pem")
	if err := codec.SavePrivateKeyPEM(outPath, fk.Params); err != nil {
		t.Fatalf("SavePrivateKeyPEM: %v", err)
	}

	reloaded, err := codec.LoadKeyFile(outPath, nil)
	if err != nil {
		t.Fatalf("reloading exported private key: %v", err)
	}
	if reloaded.N.Cmp(n) != 0 {
		t.Fatalf("reloaded n = %s, want %s", reloaded.N, n)
	}
	if reloaded.D.Cmp(fk.Params.D) != 0 {
		t.Fatalf("reloaded d = %s, want %s", reloaded.D, fk.Params.D)
	}
}

// TestRawParameterFileRoundTrip exercises the raw-text key-file path
// (n=/e=/c= lines) end to end, independent of PEM.
func TestRawParameterFileRoundTrip(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 256)
	if err != nil {
		t.Fatalf("rsa.GenerateKey: %v", err)
	}
	key.Precompute()

	path := filepath.Join(t.TempDir(), "raw.txt")
	content := "n = " + key.N.String() + "\ne = 65537\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	sets, err := codec.LoadKeyFileMulti(path, nil)
	if err != nil {
		t.Fatalf("LoadKeyFileMulti: %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("expected one parsed key, got %d", len(sets))
	}
	if sets[0].N.Cmp(key.N) != 0 {
		t.Fatalf("parsed n = %s, want %s", sets[0].N, key.N)
	}
}
