package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// Signer authenticates money-movement requests with HMAC-SHA256. Clients
// that share the secret may attach a signature over the operation fields;
// unsigned requests are still accepted.
type Signer struct {
	secretKey []byte
	logger    *slog.Logger
}

func NewSigner(secretKey string, logger *slog.Logger) *Signer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Signer{
		secretKey: []byte(secretKey),
		logger:    logger,
	}
}

func (s *Signer) Sign(data []byte) string {
	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Signer) Verify(data []byte, signature string) (bool, error) {
	expected := s.Sign(data)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		s.logger.Warn("Signature verification failed",
			slog.String("received", signature))
		return false, fmt.Errorf("invalid signature")
	}
	return true, nil
}

// SignOperation produces the canonical signature for a balance operation.
func (s *Signer) SignOperation(accountNumber int, amount float64, timestamp int64) string {
	data := fmt.Sprintf("%d:%.2f:%d", accountNumber, amount, timestamp)
	return s.Sign([]byte(data))
}

// VerifyOperation checks a signature produced by SignOperation.
func (s *Signer) VerifyOperation(accountNumber int, amount float64, timestamp int64, signature string) (bool, error) {
	data := fmt.Sprintf("%d:%.2f:%d", accountNumber, amount, timestamp)
	return s.Verify([]byte(data), signature)
}
