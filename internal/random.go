package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

type TicketID [16]byte

const (
	ticketTokenRawSize = 48
	ticketSecretSize   = 32
)

func NewTicketID() (TicketID, error) {
	var tid TicketID
	_, err := rand.Read(tid[:])
	return tid, err
}

func (t TicketID) Bytes() []byte {
	return t[:]
}

func (t TicketID) String() string {
	// base64url, no padding, compact
	return base64.RawURLEncoding.EncodeToString(t[:])
}

func ParseTicketID(ticketID string) (TicketID, error) {
	var tid TicketID

	raw, err := base64.RawURLEncoding.DecodeString(ticketID)
	if err != nil {
		return tid, err
	}
	if len(raw) != len(tid) {
		return tid, errors.New("invalid ticket id size")
	}

	copy(tid[:], raw)
	return tid, nil
}

func NewTicketSecret() ([ticketSecretSize]byte, error) {
	var secret [ticketSecretSize]byte
	_, err := rand.Read(secret[:])
	return secret, err
}

func HashTicketSecret(secret [ticketSecretSize]byte) [32]byte {
	return sha256.Sum256(secret[:])
}

func HashBytes(b []byte) [32]byte {
	return sha256.Sum256(b)
}

func EncodeTicketToken(ticketID string, secret [ticketSecretSize]byte) (string, error) {
	tid, err := ParseTicketID(ticketID)
	if err != nil {
		return "", err
	}

	var raw [ticketTokenRawSize]byte
	copy(raw[:len(tid)], tid[:])
	copy(raw[len(tid):], secret[:])

	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

func DecodeTicketToken(token string) (string, [ticketSecretSize]byte, error) {
	var secret [ticketSecretSize]byte

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", secret, err
	}
	if len(raw) != ticketTokenRawSize {
		return "", secret, errors.New("invalid ticket token size")
	}

	var tid TicketID
	copy(tid[:], raw[:len(tid)])
	copy(secret[:], raw[len(tid):])

	return tid.String(), secret, nil
}

func NewOTP(digits int) (string, error) {
	if digits < 4 || digits > 10 {
		return "", errors.New("invalid otp digits")
	}

	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	otp := b.String()
	if len(otp) != digits {
		return "", fmt.Errorf("invalid otp generation length")
	}
	return otp, nil
}
