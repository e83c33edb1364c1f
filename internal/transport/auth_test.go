package transport

import "testing"

func TestTokenAuth_EmptyTokenDisablesAuth(t *testing.T) {
	auth, err := NewTokenAuth("")
	if err != nil {
		t.Fatalf("NewTokenAuth: %v", err)
	}

	if auth.Enabled() {
		t.Fatal("expected auth to be disabled for an empty token")
	}

	if !auth.Verify("anything") {
		t.Fatal("expected Verify to pass through when auth is disabled")
	}
}

func TestTokenAuth_VerifyAcceptsMatchingToken(t *testing.T) {
	auth, err := NewTokenAuth("s3cr3t")
	if err != nil {
		t.Fatalf("NewTokenAuth: %v", err)
	}

	if !auth.Enabled() {
		t.Fatal("expected auth to be enabled for a non-empty token")
	}

	if !auth.Verify("s3cr3t") {
		t.Fatal("expected Verify to accept the configured token")
	}
}

func TestTokenAuth_VerifyRejectsWrongToken(t *testing.T) {
	auth, err := NewTokenAuth("s3cr3t")
	if err != nil {
		t.Fatalf("NewTokenAuth: %v", err)
	}

	if auth.Verify("wrong") {
		t.Fatal("expected Verify to reject a mismatched token")
	}

	if auth.Verify("") {
		t.Fatal("expected Verify to reject an empty presented token")
	}
}

func TestTokenAuth_VerifyAcceptsLongToken(t *testing.T) {
	long := ""
	for i := 0; i < 100; i++ {
		long += "a"
	}

	auth, err := NewTokenAuth(long)
	if err != nil {
		t.Fatalf("NewTokenAuth: %v", err)
	}

	if !auth.Verify(long) {
		t.Fatal("expected Verify to accept a token over the bcrypt input limit")
	}
}
