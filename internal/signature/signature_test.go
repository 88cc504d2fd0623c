package signature

import (
	"strings"
	"testing"
)

const testBody = `{"action_run_link":"https://github.com/o/repo/actions/runs/42","email":"ada@example.com","name":"Ada","repository_link":"https://github.com/o/repo","resume_link":"https://x/r.pdf","timestamp":"2024-01-02T03:04:05.123456+00:00"}`

func TestSign_KnownVectors(t *testing.T) {
	testCases := []struct {
		name   string
		body   string
		secret string
		want   string
	}{
		// echo -n '{}' | openssl dgst -sha256 -hmac k
		{"empty object", "{}", "k", "sha256=add853b103fbcc936a194f9eb15e29c4ff08af6e47d5d1bca4f20218e31e4fff"},
		{"submission body", testBody, "s3cr3t", "sha256=e2eaed5e398291e00e0ad210873e0941dc9bb96f1bc0aa58725014e1de31620a"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Sign([]byte(tc.body), tc.secret)
			if got != tc.want {
				t.Errorf("Sign() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestSign_Format(t *testing.T) {
	got := Sign([]byte(testBody), "s3cr3t")

	if !strings.HasPrefix(got, Prefix) {
		t.Fatalf("Expected prefix %q, got %s", Prefix, got)
	}
	digest := strings.TrimPrefix(got, Prefix)
	if len(digest) != 64 {
		t.Errorf("Expected 64 hex characters, got %d", len(digest))
	}
	if strings.ToLower(digest) != digest {
		t.Errorf("Expected lowercase hex, got %s", digest)
	}
}

func TestSign_Deterministic(t *testing.T) {
	first := Sign([]byte(testBody), "s3cr3t")
	for i := 0; i < 10; i++ {
		if got := Sign([]byte(testBody), "s3cr3t"); got != first {
			t.Fatalf("Sign() not deterministic: %s != %s", got, first)
		}
	}
}

func TestSign_TamperSensitivity(t *testing.T) {
	base := Sign([]byte(testBody), "s3cr3t")

	for i := 0; i < len(testBody); i++ {
		tampered := []byte(testBody)
		tampered[i] ^= 0x01
		if Sign(tampered, "s3cr3t") == base {
			t.Fatalf("Flipping byte %d did not change the signature", i)
		}
	}

	if Sign([]byte(testBody), "s3cr3T") == base {
		t.Error("Changing the secret did not change the signature")
	}
}

func TestVerify_Valid(t *testing.T) {
	body := []byte(testBody)
	secret := "s3cr3t"

	if !Verify(body, Sign(body, secret), secret) {
		t.Error("Expected valid signature to be accepted")
	}
}

func TestVerify_Invalid(t *testing.T) {
	body := []byte(testBody)

	if Verify(body, Sign(body, "wrong-secret"), "s3cr3t") {
		t.Error("Expected signature with wrong secret to be rejected")
	}

	tampered := []byte(strings.Replace(testBody, "Ada", "Eve", 1))
	if Verify(tampered, Sign(body, "s3cr3t"), "s3cr3t") {
		t.Error("Expected tampered body to be rejected")
	}
}

func TestVerify_MalformedSignature(t *testing.T) {
	body := []byte(testBody)
	secret := "s3cr3t"
	digest := strings.TrimPrefix(Sign(body, secret), Prefix)

	testCases := []struct {
		name      string
		signature string
	}{
		{"missing", ""},
		{"no prefix", digest},
		{"wrong prefix", "sha1=" + digest},
		{"no equals", "sha256" + digest},
		{"empty after prefix", Prefix},
		{"uppercase hex", Prefix + strings.ToUpper(digest)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if Verify(body, tc.signature, secret) {
				t.Errorf("Expected malformed signature '%s' to be rejected", tc.signature)
			}
		})
	}
}
