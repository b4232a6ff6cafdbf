package wallet

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

func TestGeneratePersistsKey(t *testing.T) {
	dir := t.TempDir()
	w := &Wallet{priv: loadOrGenerate(dir)}

	raw, err := os.ReadFile(filepath.Join(dir, keyFile))
	if err != nil {
		t.Fatalf("key file not persisted: %v", err)
	}
	if len(raw) != 32 {
		t.Fatalf("key file has %d bytes, want 32", len(raw))
	}

	// Reloading from the same file yields the same identity.
	again := &Wallet{priv: loadOrGenerate(dir)}
	if w.Address() != again.Address() {
		t.Fatalf("address changed across reloads: %s vs %s", w.Address(), again.Address())
	}
}

func TestMalformedKeyReplaced(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, keyFile), []byte("short"), 0o600); err != nil {
		t.Fatal(err)
	}
	w := &Wallet{priv: loadOrGenerate(dir)}
	if w.Address() == "" {
		t.Fatal("no identity generated")
	}
	raw, err := os.ReadFile(filepath.Join(dir, keyFile))
	if err != nil || len(raw) != 32 {
		t.Fatalf("malformed key not replaced: %v (%d bytes)", err, len(raw))
	}
}

func TestAddressShape(t *testing.T) {
	w := &Wallet{priv: loadOrGenerate(t.TempDir())}
	addr := w.Address()
	if len(addr) != 40 {
		t.Fatalf("address %q has length %d, want 40 hex chars", addr, len(addr))
	}
}

func TestSignPersonalRecoversToSigner(t *testing.T) {
	w := &Wallet{priv: loadOrGenerate(t.TempDir())}
	msg := []byte("Create Xnode Manager session\nhttps://node.example\n1234567890")

	sig := w.SignPersonal(msg)
	if sig.V > 1 {
		t.Fatalf("recovery id %d out of range", sig.V)
	}

	compact := make([]byte, 65)
	compact[0] = sig.V + 27
	copy(compact[1:33], sig.R[:])
	copy(compact[33:65], sig.S[:])

	pub, _, err := secpecdsa.RecoverCompact(compact, personalHash(msg))
	if err != nil {
		t.Fatalf("could not recover public key: %v", err)
	}
	if !bytes.Equal(pub.SerializeUncompressed(), w.priv.PubKey().SerializeUncompressed()) {
		t.Fatal("recovered key does not match the signer")
	}
}

func TestPersonalHashBindsLength(t *testing.T) {
	a := personalHash([]byte("ab"))
	b := personalHash([]byte("ab "))
	if bytes.Equal(a, b) {
		t.Fatal("hashes of different messages collide")
	}
}
