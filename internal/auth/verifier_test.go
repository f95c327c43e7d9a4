package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"
)

func hs256Token(t *testing.T, secret string, claims string) string {
	t.Helper()
	enc := base64.RawURLEncoding
	header := enc.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload := enc.EncodeToString([]byte(claims))
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(header + "." + payload))
	return header + "." + payload + "." + enc.EncodeToString(mac.Sum(nil))
}

func TestVerifyDevToken(t *testing.T) {
	v := &Verifier{Mode: "dev"}
	p, err := v.Verify("technician:tech-7")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if p.Role != "technician" || p.TechnicianID != "tech-7" {
		t.Fatalf("principal = %+v", p)
	}
	if p, err := v.Verify("admin"); err != nil || p.Role != "admin" {
		t.Fatalf("role-only token: %+v %v", p, err)
	}
	if _, err := v.Verify(":x"); err == nil {
		t.Fatal("empty role accepted")
	}
}

func TestVerifyHS256(t *testing.T) {
	v := &Verifier{Mode: "hmac", HMACSecret: []byte("s"), RoleClaim: "role", TechnicianClaim: "sub"}
	tok := hs256Token(t, "s", `{"role":"Dispatcher","sub":"tech-1"}`)
	p, err := v.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if p.Role != "dispatcher" || p.TechnicianID != "tech-1" {
		t.Fatalf("principal = %+v", p)
	}
}

func TestVerifyHS256BadSignature(t *testing.T) {
	v := &Verifier{Mode: "hmac", HMACSecret: []byte("s"), RoleClaim: "role", TechnicianClaim: "sub"}
	tok := hs256Token(t, "wrong", `{"role":"admin"}`)
	if _, err := v.Verify(tok); err == nil {
		t.Fatal("token signed with wrong secret accepted")
	}
}
