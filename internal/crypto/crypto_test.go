package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt: %v", err)
	}
	key, err := DeriveKey([]byte("master-password"), salt, fastParams())
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	return key
}

// fastParams keeps Argon2id cheap in tests.
func fastParams() Params {
	return Params{Time: 1, Memory: 8 * 1024, Threads: 1}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key := testKey(t)
	plaintext := []byte("hunter22")

	ciphertext, err := Encrypt(key, plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Contains(ciphertext, plaintext) {
		t.Fatal("ciphertext contains plaintext")
	}

	got, err := Decrypt(key, ciphertext)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("got %q, want %q", got, plaintext)
	}
}

func TestEncrypt_UniqueNonces(t *testing.T) {
	key := testKey(t)

	a, err := Encrypt(key, []byte("same"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	b, err := Encrypt(key, []byte("same"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatal("two encryptions of the same plaintext produced identical ciphertexts")
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	key := testKey(t)
	other := testKey(t)

	ciphertext, err := Encrypt(key, []byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := Decrypt(other, ciphertext); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	key := testKey(t)

	ciphertext, err := Encrypt(key, []byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	ciphertext[len(ciphertext)-1] ^= 0xff

	if _, err := Decrypt(key, ciphertext); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestDecrypt_TooShort(t *testing.T) {
	key := testKey(t)
	if _, err := Decrypt(key, make([]byte, NonceSize)); !errors.Is(err, ErrInvalidCiphertext) {
		t.Fatalf("expected ErrInvalidCiphertext, got %v", err)
	}
}

func TestEncrypt_BadKeySize(t *testing.T) {
	if _, err := Encrypt(make([]byte, 16), []byte("x")); !errors.Is(err, ErrInvalidKeySize) {
		t.Fatalf("expected ErrInvalidKeySize, got %v", err)
	}
}

func TestDeriveKey_Deterministic(t *testing.T) {
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt: %v", err)
	}

	a, err := DeriveKey([]byte("password"), salt, fastParams())
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	b, err := DeriveKey([]byte("password"), salt, fastParams())
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("same password and salt produced different keys")
	}

	other, err := DeriveKey([]byte("password"), salt, Params{Time: 2, Memory: 8 * 1024, Threads: 1})
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	if bytes.Equal(a, other) {
		t.Fatal("different params produced the same key")
	}
}

func TestDeriveKey_BadSalt(t *testing.T) {
	if _, err := DeriveKey([]byte("password"), []byte("short"), fastParams()); !errors.Is(err, ErrInvalidSaltSize) {
		t.Fatalf("expected ErrInvalidSaltSize, got %v", err)
	}
}

func TestZeroBytes(t *testing.T) {
	b := []byte{1, 2, 3}
	ZeroBytes(b)
	for i, v := range b {
		if v != 0 {
			t.Fatalf("byte %d not zeroed", i)
		}
	}
}

func TestParams_Valid(t *testing.T) {
	if !DefaultParams().Valid() {
		t.Fatal("default params should be valid")
	}
	if (Params{}).Valid() {
		t.Fatal("zero params should be invalid")
	}
}
