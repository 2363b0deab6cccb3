package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/persistence/middleware"
	"github.com/aretw0/concierge/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func secure(t *testing.T, next ports.KVStore, cfg middleware.EncryptionConfig) ports.KVStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	if err != nil {
		t.Fatalf("NewEncryptionMiddleware failed: %v", err)
	}
	return mw(next)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunKVStoreContract(t, secure(t, NewMockStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := NewMockStore()
	secureStore := secure(t, underlyingStore, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	if err := secureStore.Set(ctx, domain.KeyCredential, "tok-secret"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// The underlying store must only ever see ciphertext.
	stored := underlyingStore.data[domain.KeyCredential]
	if strings.Contains(stored, "tok-secret") {
		t.Fatalf("Expected credential to be hidden, found: %v", stored)
	}
	if !strings.HasPrefix(stored, "enc:v1:") {
		t.Fatalf("Expected envelope prefix, got %q", stored)
	}

	got, err := secureStore.Get(ctx, domain.KeyCredential)
	if err != nil {
		t.Fatalf("Get via middleware failed: %v", err)
	}
	if got != "tok-secret" {
		t.Errorf("Expected 'tok-secret', got %v", got)
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := NewMockStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	secureStoreOld := secure(t, underlyingStore, middleware.EncryptionConfig{ActiveKey: oldKey})
	if err := secureStoreOld.Set(ctx, domain.KeyRole, "admin"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	secureStoreNew := secure(t, underlyingStore, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})

	got, err := secureStoreNew.Get(ctx, domain.KeyRole)
	if err != nil {
		t.Fatalf("Get with rotated key failed: %v", err)
	}
	if got != "admin" {
		t.Errorf("Decryption with fallback key failed, got %q", got)
	}

	if err := secureStoreNew.Set(ctx, domain.KeyRole, "cleaner"); err != nil {
		t.Fatalf("Set with new key failed: %v", err)
	}

	if _, err := secureStoreOld.Get(ctx, domain.KeyRole); err == nil {
		t.Error("Expected failure when reading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_RejectsPlaintext(t *testing.T) {
	underlyingStore := NewMockStore()
	underlyingStore.data[domain.KeyCredential] = "tok-plain"

	secureStore := secure(t, underlyingStore, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	if _, err := secureStore.Get(context.Background(), domain.KeyCredential); err == nil {
		t.Error("Expected plaintext entry to be rejected")
	}
}

func TestEncryptionMiddleware_PassesNotFound(t *testing.T) {
	secureStore := secure(t, NewMockStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	_, err := secureStore.Get(context.Background(), domain.KeyCredential)
	if err != domain.ErrKeyNotFound {
		t.Errorf("Expected ErrKeyNotFound, got %v", err)
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	if err != middleware.ErrKeySize {
		t.Errorf("Expected ErrKeySize, got %v", err)
	}

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	if err != middleware.ErrKeySize {
		t.Errorf("Expected ErrKeySize for fallback key, got %v", err)
	}
}
