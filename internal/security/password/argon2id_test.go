package password

import (
	"strings"
	"testing"
)

func TestHashAndVerify(t *testing.T) {
	phc, err := Hash(Default, "s3rvice-secret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(phc, "$argon2id$v=19$") {
		t.Fatalf("unexpected PHC prefix: %s", phc)
	}
	if !Verify("s3rvice-secret", phc) {
		t.Fatal("Verify should accept the original secret")
	}
	if Verify("wrong", phc) {
		t.Fatal("Verify should reject a wrong secret")
	}
}

func TestVerifyMalformed(t *testing.T) {
	for _, phc := range []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=65536,t=3,p=1$abc$def",
		"$argon2id$v=18$m=65536,t=3,p=1$abc$def",
		"$argon2id$v=19$m=65536,t=3,p=1$not-base64!$def",
	} {
		if Verify("x", phc) {
			t.Errorf("Verify accepted malformed hash %q", phc)
		}
	}
}

func TestHashRejectsEmpty(t *testing.T) {
	if _, err := Hash(Default, ""); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
