package crypto

import "testing"

func TestSigner_OperationRoundTrip(t *testing.T) {
	s := NewSigner("test-secret", nil)

	sig := s.SignOperation(1001, 250.00, 1700000000)
	ok, err := s.VerifyOperation(1001, 250.00, 1700000000, sig)
	if !ok || err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}

	if ok, _ := s.VerifyOperation(1002, 250.00, 1700000000, sig); ok {
		t.Error("signature verified against a different account")
	}
	if ok, _ := s.VerifyOperation(1001, 251.00, 1700000000, sig); ok {
		t.Error("signature verified against a different amount")
	}
}

func TestSigner_DifferentSecrets(t *testing.T) {
	a := NewSigner("secret-a", nil)
	b := NewSigner("secret-b", nil)

	sig := a.SignOperation(1001, 10, 0)
	if ok, _ := b.VerifyOperation(1001, 10, 0, sig); ok {
		t.Error("signature verified under a different secret")
	}
}
