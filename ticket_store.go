package goAccount

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	verificationTicketPrefix = "avt"
	resetTicketPrefix        = "art"
	ticketRecordVersionV1    = 1
)

var (
	errTicketNotFound         = errors.New("ticket not found")
	errTicketSecretMismatch   = errors.New("ticket secret mismatch")
	errTicketAttemptsExceeded = errors.New("ticket attempts exceeded")
	errTicketRedisUnavailable = errors.New("ticket redis unavailable")
)

// ticketRecord is the single-use challenge record shared by the email
// verification and password reset flows. The secret is stored as a SHA-256
// digest only.
type ticketRecord struct {
	UserID     string
	SecretHash [32]byte
	ExpiresAt  int64
	Attempts   uint16
}

type ticketStore struct {
	redis  *redis.Client
	prefix string
}

func newTicketStore(redisClient *redis.Client, prefix string) *ticketStore {
	return &ticketStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *ticketStore) key(ticketID string) string {
	return s.prefix + ":" + ticketID
}

// Save describes the save operation and its observable behavior.
//
// Save may return an error when input validation, dependency calls, or security checks fail.
// Save does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *ticketStore) Save(
	ctx context.Context,
	ticketID string,
	record *ticketRecord,
	ttl time.Duration,
) error {
	encoded, err := encodeTicketRecord(record)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(ticketID), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", errTicketRedisUnavailable, err)
	}

	return nil
}

// Consume atomically validates the provided secret hash against the stored
// record and deletes it. A mismatch increments the attempt counter; the
// record is destroyed when the cap is reached. Optimistic locking retries up
// to four times on concurrent modification.
func (s *ticketStore) Consume(
	ctx context.Context,
	ticketID string,
	providedHash [32]byte,
	maxAttempts int,
) (*ticketRecord, error) {
	const maxRetries = 4
	key := s.key(ticketID)

	for i := 0; i < maxRetries; i++ {
		var matched *ticketRecord

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeTicketRecord(data)
			if err != nil {
				return err
			}

			now := time.Now()
			if now.Unix() > record.ExpiresAt {
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if err != nil {
					return err
				}
				return errTicketNotFound
			}

			if subtle.ConstantTimeCompare(record.SecretHash[:], providedHash[:]) != 1 {
				record.Attempts++
				if int(record.Attempts) >= maxAttempts {
					_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
						pipe.Del(ctx, key)
						return nil
					})
					if err != nil {
						return err
					}
					return errTicketAttemptsExceeded
				}

				ttl := time.Until(time.Unix(record.ExpiresAt, 0))
				if ttl <= 0 {
					_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
						pipe.Del(ctx, key)
						return nil
					})
					if err != nil {
						return err
					}
					return errTicketNotFound
				}

				updated, err := encodeTicketRecord(record)
				if err != nil {
					return err
				}

				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Set(ctx, key, updated, ttl)
					return nil
				})
				if err != nil {
					return err
				}
				return errTicketSecretMismatch
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			if err != nil {
				return err
			}

			matched = record
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil), errors.Is(err, errTicketNotFound), errors.Is(err, errTicketSecretMismatch), errors.Is(err, errTicketAttemptsExceeded):
				return nil, err
			default:
				return nil, fmt.Errorf("%w: %v", errTicketRedisUnavailable, err)
			}
		}

		return matched, nil
	}

	return nil, errTicketNotFound
}

func encodeTicketRecord(record *ticketRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(ticketRecordVersionV1)

	if err := binary.Write(&buf, binary.BigEndian, record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}

	if len(record.UserID) > 65535 {
		return nil, errors.New("ticket record user id too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.UserID))); err != nil {
		return nil, err
	}
	buf.WriteString(record.UserID)
	buf.Write(record.SecretHash[:])

	return buf.Bytes(), nil
}

func decodeTicketRecord(data []byte) (*ticketRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != ticketRecordVersionV1 {
		return nil, errors.New("invalid ticket record version")
	}

	record := &ticketRecord{}

	if err := binary.Read(reader, binary.BigEndian, &record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}

	var userIDLen uint16
	if err := binary.Read(reader, binary.BigEndian, &userIDLen); err != nil {
		return nil, err
	}

	userID := make([]byte, userIDLen)
	if _, err := io.ReadFull(reader, userID); err != nil {
		return nil, err
	}
	record.UserID = string(userID)

	if _, err := io.ReadFull(reader, record.SecretHash[:]); err != nil {
		return nil, err
	}

	return record, nil
}
