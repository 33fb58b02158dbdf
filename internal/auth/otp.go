package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
)

const (
	codeDigits = 6
	// MaxCodeAttempts is how many wrong guesses burn a phone code
	MaxCodeAttempts = 5
)

// CodeSender delivers one-time codes to a phone number
type CodeSender interface {
	SendCode(ctx context.Context, phone, code string) error
}

// LogSender writes codes to the log. Used when no SMS gateway is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender logging through logger (slog.Default when nil)
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// SendCode implements CodeSender
func (s *LogSender) SendCode(ctx context.Context, phone, code string) error {
	s.logger.InfoContext(ctx, "phone code issued", "phone", maskPhone(phone), "code", code)
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return "****" + phone[len(phone)-4:]
}
