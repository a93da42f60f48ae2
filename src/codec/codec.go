// Package codec is the external-format collaborator (component H): it
// turns on-disk key/ciphertext material into params.Parameters, and turns a
// finalized Key back into PEM for export. Grounded on the PKCS1/x509
// handling in the retrieved pack's cryptopuff factorkey tool, generalised
// from "one public key in, one private key out" to the fuller set of
// formats RSA CTF challenges actually hand out.
package codec

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"

	"golang.org/x/crypto/ssh"

	"rsacrack/src/params"
)

// LoadKeyFile reads a key material file and extracts whatever RSA
// quantities it contains. It tries, in order: PEM (PKCS1/PKCS8 private,
// PKCS1/PKIX public), OpenSSH private key, then raw-parameter text (see
// ExtractRawParameters). password is only used for encrypted OpenSSH keys;
// pass nil when the key isn't password-protected.
func LoadKeyFile(path string, password []byte) (params.Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return params.Parameters{}, fmt.Errorf("codec: reading %s: %w", path, err)
	}

	if block, _ := pem.Decode(data); block != nil {
		p, err := fromPEMBlock(block, password)
		if err == nil {
			return p, nil
		}
		return params.Parameters{}, fmt.Errorf("codec: %s: %w", path, err)
	}

	if p, ok := fromOpenSSH(data, password); ok {
		return p, nil
	}

	sets, err := ExtractRawParameters(string(data))
	if err != nil {
		return params.Parameters{}, fmt.Errorf("codec: %s: %w", path, err)
	}
	if len(sets) == 0 {
		return params.Parameters{}, fmt.Errorf("codec: %s: not a recognised key format and no n=/e=/c= lines found", path)
	}
	return sets[0], nil
}

// LoadKeyFileMulti is LoadKeyFile generalised to a file holding more than
// one key's worth of raw parameters (SPEC_FULL.md §6's multi-key mode).
// PEM/OpenSSH files always yield exactly one key.
func LoadKeyFileMulti(path string, password []byte) ([]params.Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("codec: reading %s: %w", path, err)
	}
	if block, _ := pem.Decode(data); block != nil {
		p, err := fromPEMBlock(block, password)
		if err != nil {
			return nil, fmt.Errorf("codec: %s: %w", path, err)
		}
		return []params.Parameters{p}, nil
	}
	if p, ok := fromOpenSSH(data, password); ok {
		return []params.Parameters{p}, nil
	}
	sets, err := ExtractRawParameters(string(data))
	if err != nil {
		return nil, fmt.Errorf("codec: %s: %w", path, err)
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("codec: %s: not a recognised key format and no n=/e=/c= lines found", path)
	}
	return sets, nil
}

func fromPEMBlock(block *pem.Block, password []byte) (params.Parameters, error) {
	p := params.New()

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return params.Parameters{}, fmt.Errorf("parsing PKCS1 private key: %w", err)
		}
		fillFromPrivateKey(&p, key)
		return p, nil

	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return params.Parameters{}, fmt.Errorf("parsing PKCS8 private key: %w", err)
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return params.Parameters{}, fmt.Errorf("PKCS8 key is not RSA")
		}
		fillFromPrivateKey(&p, rsaKey)
		return p, nil

	case "RSA PUBLIC KEY":
		pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return params.Parameters{}, fmt.Errorf("parsing PKCS1 public key: %w", err)
		}
		fillFromPublicKey(&p, pub)
		return p, nil

	case "PUBLIC KEY":
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return params.Parameters{}, fmt.Errorf("parsing PKIX public key: %w", err)
		}
		pub, ok := key.(*rsa.PublicKey)
		if !ok {
			return params.Parameters{}, fmt.Errorf("PKIX key is not RSA")
		}
		fillFromPublicKey(&p, pub)
		return p, nil

	case "ENCRYPTED PRIVATE KEY":
		return params.Parameters{}, fmt.Errorf("PKCS8-encrypted keys are not supported; decrypt with openssl first")

	default:
		return params.Parameters{}, fmt.Errorf("unrecognised PEM block type %q", block.Type)
	}
}

func fromOpenSSH(data []byte, password []byte) (params.Parameters, bool) {
	var signer any
	var err error
	if len(password) > 0 {
		signer, err = ssh.ParseRawPrivateKeyWithPassphrase(data, password)
	} else {
		signer, err = ssh.ParseRawPrivateKey(data)
	}
	if err != nil {
		return params.Parameters{}, false
	}
	key, ok := signer.(*rsa.PrivateKey)
	if !ok {
		return params.Parameters{}, false
	}
	p := params.New()
	fillFromPrivateKey(&p, key)
	return p, true
}

func fillFromPrivateKey(p *params.Parameters, key *rsa.PrivateKey) {
	key.Precompute()
	p.N = key.N
	p.E = big.NewInt(int64(key.E))
	p.D = key.D
	if len(key.Primes) == 2 {
		p.P = key.Primes[0]
		p.Q = key.Primes[1]
	}
	p.DP = key.Precomputed.Dp
	p.DQ = key.Precomputed.Dq
	p.QInv = key.Precomputed.Qinv
}

func fillFromPublicKey(p *params.Parameters, key *rsa.PublicKey) {
	p.N = key.N
	p.E = big.NewInt(int64(key.E))
}

// SavePrivateKeyPEM writes a PKCS1 "RSA PRIVATE KEY" PEM block for a fully
// solved key (n, e, p, q, d all known) to path.
func SavePrivateKeyPEM(path string, p params.Parameters) error {
	if p.N == nil || p.E == nil || p.P == nil || p.Q == nil || p.D == nil {
		return fmt.Errorf("codec: cannot export PEM: key is not fully solved")
	}
	key := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{N: p.N, E: int(p.E.Int64())},
		D:         p.D,
		Primes:    []*big.Int{p.P, p.Q},
	}
	key.Precompute()

	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("codec: creating %s: %w", path, err)
	}
	defer f.Close()
	if err := pem.Encode(f, block); err != nil {
		return fmt.Errorf("codec: encoding PEM to %s: %w", path, err)
	}
	return nil
}

// SavePublicKeyPEM writes a PKCS1 "RSA PUBLIC KEY" PEM block.
func SavePublicKeyPEM(path string, p params.Parameters) error {
	if p.N == nil || p.E == nil {
		return fmt.Errorf("codec: cannot export public PEM: n/e unknown")
	}
	pub := &rsa.PublicKey{N: p.N, E: int(p.E.Int64())}
	block := &pem.Block{Type: "RSA PUBLIC KEY", Bytes: x509.MarshalPKCS1PublicKey(pub)}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("codec: creating %s: %w", path, err)
	}
	defer f.Close()
	if err := pem.Encode(f, block); err != nil {
		return fmt.Errorf("codec: encoding PEM to %s: %w", path, err)
	}
	return nil
}
