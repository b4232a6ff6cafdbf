// Package wallet holds the operator's long-lived secp256k1 identity and signs
// the challenge messages used to authenticate against xnode managers.
package wallet

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"
)

const keyFile = "secret.key"

// Signature is a recoverable ECDSA signature in the (v, r, s) layout expected
// by the xnode manager's wallet login. V is the recovery id (0 or 1).
type Signature struct {
	V byte     `json:"v"`
	R [32]byte `json:"r"`
	S [32]byte `json:"s"`
}

// Wallet wraps the operator's private key. Obtain it through Signer; the key
// is loaded once per process and never mutated afterward.
type Wallet struct {
	priv *secp256k1.PrivateKey
}

var (
	once   sync.Once
	shared *Wallet
)

// Signer returns the process-wide operator wallet, loading the key from
// dataDir/secret.key on first use. A missing or malformed key file is
// replaced by a freshly generated key, persisted best-effort; losing the file
// loses the operator identity but is not fatal.
func Signer(dataDir string) *Wallet {
	once.Do(func() {
		shared = &Wallet{priv: loadOrGenerate(dataDir)}
	})
	return shared
}

func loadOrGenerate(dataDir string) *secp256k1.PrivateKey {
	path := filepath.Join(dataDir, keyFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Printf("could not read private key %s: %v", path, err)
		return generate(path)
	}
	if len(raw) != 32 {
		log.Printf("private key %s has %d bytes, expected 32", path, len(raw))
		return generate(path)
	}
	return secp256k1.PrivKeyFromBytes(raw)
}

func generate(path string) *secp256k1.PrivateKey {
	log.Printf("generating new secret key")
	var raw [32]byte
	if _, err := rand.Read(raw[:]); err != nil {
		// crypto/rand failing means the platform entropy source is broken.
		log.Fatalf("could not generate private key: %v", err)
	}
	if err := os.WriteFile(path, raw[:], 0o600); err != nil {
		log.Printf("could not save private key %s: %v", path, err)
	}
	return secp256k1.PrivKeyFromBytes(raw[:])
}

// Address returns the operator's public identity: the last 20 bytes of the
// keccak256 hash of the uncompressed public key, hex encoded.
func (w *Wallet) Address() string {
	pub := w.priv.PubKey().SerializeUncompressed()
	sum := keccak256(pub[1:])
	return hex.EncodeToString(sum[12:])
}

// SignPersonal signs msg with the prefixed personal-message hashing scheme the
// manager's verifier expects, so a raw transaction can never be smuggled in as
// a login challenge.
func (w *Wallet) SignPersonal(msg []byte) Signature {
	hash := personalHash(msg)
	// SignCompact yields [v+27, r, s] for uncompressed recovery.
	compact := secpecdsa.SignCompact(w.priv, hash, false)
	var sig Signature
	sig.V = compact[0] - 27
	copy(sig.R[:], compact[1:33])
	copy(sig.S[:], compact[33:65])
	return sig
}

func personalHash(msg []byte) []byte {
	prefixed := append([]byte("\x19Ethereum Signed Message:\n"+strconv.Itoa(len(msg))), msg...)
	return keccak256(prefixed)
}

func keccak256(b []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(b)
	return h.Sum(nil)
}
