package credstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetGetRoundTrip(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "creds"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := s.Set(TokenKey, "secret-token"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok, err := s.Get(TokenKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || got != "secret-token" {
		t.Errorf("Get = (%q, %v)", got, ok)
	}
}

func TestGetMissingIsNotError(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "creds"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	got, ok, err := s.Get(TokenKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok || got != "" {
		t.Errorf("Get = (%q, %v), want absent", got, ok)
	}
}

func TestSecretNotStoredInPlaintext(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "creds")
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Set(TokenKey, "super-secret-value"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, TokenKey+".cred"))
	if err != nil {
		t.Fatalf("read credential file: %v", err)
	}
	if strings.Contains(string(raw), "super-secret-value") {
		t.Error("credential file contains plaintext secret")
	}
}

func TestDeleteThenToken(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "creds"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Set(TokenKey, "tok"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Delete(TokenKey); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(TokenKey); err != nil {
		t.Errorf("second Delete: %v", err)
	}

	tok, err := s.Token()
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "" {
		t.Errorf("Token = %q, want empty after delete", tok)
	}
}

func TestReopenKeepsKey(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "creds")
	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s1.Set(TokenKey, "persisted"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, ok, err := s2.Get(TokenKey)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if !ok || got != "persisted" {
		t.Errorf("Get after reopen = (%q, %v)", got, ok)
	}
}
