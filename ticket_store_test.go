package goAccount

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goAccount/internal"
	"github.com/redis/go-redis/v9"
)

func newTestTicketStore(t *testing.T) *ticketStore {
	t.Helper()
	_, rdb := newTestRedis(t)
	return newTicketStore(rdb, "tkt")
}

func saveTestTicket(t *testing.T, s *ticketStore, userID string, ttl time.Duration) (string, [32]byte) {
	t.Helper()
	tid, err := internal.NewTicketID()
	if err != nil {
		t.Fatalf("NewTicketID: %v", err)
	}
	secret, err := internal.NewTicketSecret()
	if err != nil {
		t.Fatalf("NewTicketSecret: %v", err)
	}
	record := &ticketRecord{
		UserID:     userID,
		SecretHash: internal.HashTicketSecret(secret),
		ExpiresAt:  time.Now().Add(ttl).Unix(),
	}
	if err := s.Save(context.Background(), tid.String(), record, ttl); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return tid.String(), internal.HashTicketSecret(secret)
}

func TestTicketConsumeSingleUse(t *testing.T) {
	s := newTestTicketStore(t)
	ctx := context.Background()

	id, hash := saveTestTicket(t, s, "u1", time.Minute)

	record, err := s.Consume(ctx, id, hash, 5)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if record.UserID != "u1" {
		t.Fatalf("unexpected user id %q", record.UserID)
	}

	if _, err := s.Consume(ctx, id, hash, 5); !errors.Is(err, redis.Nil) && !errors.Is(err, errTicketNotFound) {
		t.Fatalf("expected not-found on replay, got %v", err)
	}
}

func TestTicketWrongSecretCountsAttempts(t *testing.T) {
	s := newTestTicketStore(t)
	ctx := context.Background()

	id, hash := saveTestTicket(t, s, "u1", time.Minute)
	wrong := internal.HashBytes([]byte("wrong"))

	for i := 0; i < 2; i++ {
		if _, err := s.Consume(ctx, id, wrong, 3); !errors.Is(err, errTicketSecretMismatch) {
			t.Fatalf("attempt %d: expected mismatch, got %v", i, err)
		}
	}

	// The correct secret still works below the cap.
	if _, err := s.Consume(ctx, id, hash, 3); err != nil {
		t.Fatalf("Consume after mismatches: %v", err)
	}
}

func TestTicketAttemptsCapDestroysRecord(t *testing.T) {
	s := newTestTicketStore(t)
	ctx := context.Background()

	id, hash := saveTestTicket(t, s, "u1", time.Minute)
	wrong := internal.HashBytes([]byte("wrong"))

	for i := 0; i < 2; i++ {
		if _, err := s.Consume(ctx, id, wrong, 3); !errors.Is(err, errTicketSecretMismatch) {
			t.Fatalf("attempt %d: expected mismatch, got %v", i, err)
		}
	}
	if _, err := s.Consume(ctx, id, wrong, 3); !errors.Is(err, errTicketAttemptsExceeded) {
		t.Fatalf("expected attempts exceeded, got %v", err)
	}

	// Record is gone, even for the right secret.
	if _, err := s.Consume(ctx, id, hash, 3); err == nil {
		t.Fatal("expected destroyed record")
	}
}

func TestTicketExpiry(t *testing.T) {
	s := newTestTicketStore(t)
	ctx := context.Background()

	// Record whose embedded expiry is already in the past.
	tid, err := internal.NewTicketID()
	if err != nil {
		t.Fatalf("NewTicketID: %v", err)
	}
	secret, err := internal.NewTicketSecret()
	if err != nil {
		t.Fatalf("NewTicketSecret: %v", err)
	}
	record := &ticketRecord{
		UserID:     "u1",
		SecretHash: internal.HashTicketSecret(secret),
		ExpiresAt:  time.Now().Add(-time.Minute).Unix(),
	}
	if err := s.Save(ctx, tid.String(), record, time.Minute); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := s.Consume(ctx, tid.String(), internal.HashTicketSecret(secret), 5); !errors.Is(err, errTicketNotFound) {
		t.Fatalf("expected not-found for expired record, got %v", err)
	}
}

func TestTicketRecordRoundTrip(t *testing.T) {
	secret, err := internal.NewTicketSecret()
	if err != nil {
		t.Fatalf("NewTicketSecret: %v", err)
	}
	in := &ticketRecord{
		UserID:     "user-123",
		SecretHash: internal.HashTicketSecret(secret),
		ExpiresAt:  time.Now().Add(time.Hour).Unix(),
		Attempts:   2,
	}

	encoded, err := encodeTicketRecord(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := decodeTicketRecord(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.UserID != in.UserID || out.SecretHash != in.SecretHash || out.ExpiresAt != in.ExpiresAt || out.Attempts != in.Attempts {
		t.Fatalf("round trip mismatch: %+v vs %+v", in, out)
	}

	if _, err := decodeTicketRecord([]byte{0xFF}); err == nil {
		t.Fatal("expected version rejection")
	}
}
