package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/KenzieRafa/TST-Reservation-API/internal/domain"
	"github.com/google/uuid"
)

// IDGenerator mints aggregate ids and guest-facing confirmation codes.
type IDGenerator interface {
	NewID() string
	NewConfirmationCode() (string, error)
}

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 8
	// Bytes at or above codeByteLimit are redrawn so every symbol is equally likely.
	codeByteLimit = 256 - 256%len(codeAlphabet)
	codeAttempts  = 5
)

var ErrConfirmationCodeExhausted = errors.New("no unused confirmation code found")

type randomIDs struct {
	// source defaults to crypto/rand.
	source io.Reader
}

func (randomIDs) NewID() string {
	return uuid.NewString()
}

func (g randomIDs) NewConfirmationCode() (string, error) {
	src := g.source
	if src == nil {
		src = rand.Reader
	}

	code := make([]byte, 0, codeLength)
	buf := make([]byte, codeLength)
	for len(code) < codeLength {
		if _, err := io.ReadFull(src, buf); err != nil {
			return "", fmt.Errorf("read confirmation code entropy: %w", err)
		}
		for _, b := range buf {
			if int(b) >= codeByteLimit {
				continue
			}
			code = append(code, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(code) == codeLength {
				break
			}
		}
	}
	return string(code), nil
}

// unusedConfirmationCode draws codes until one is not taken by a stored
// reservation. The unique constraint on the column still backs it up.
func unusedConfirmationCode(ctx context.Context, repo ReservationRepository, ids IDGenerator) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := ids.NewConfirmationCode()
		if err != nil {
			return "", err
		}
		_, err = repo.GetReservationByCode(ctx, code)
		if errors.Is(err, domain.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", ErrConfirmationCodeExhausted
}
