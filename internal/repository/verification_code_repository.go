package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const verificationCodePrefix = "verificationCode:"

// VerificationCodeRepository stores short-lived email verification codes.
type VerificationCodeRepository interface {
	Save(ctx context.Context, email, code string, ttl time.Duration) error
	// Get returns "" when no code is pending for email.
	Get(ctx context.Context, email string) (string, error)
	Delete(ctx context.Context, email string) error
}

type verificationCodeRepository struct {
	client redis.Cmdable
}

// NewVerificationCodeRepository returns a Redis-backed implementation.
func NewVerificationCodeRepository(client redis.Cmdable) VerificationCodeRepository {
	return &verificationCodeRepository{client: client}
}

func (r *verificationCodeRepository) Save(ctx context.Context, email, code string, ttl time.Duration) error {
	return r.client.Set(ctx, verificationCodePrefix+email, code, ttl).Err()
}

func (r *verificationCodeRepository) Get(ctx context.Context, email string) (string, error) {
	code, err := r.client.Get(ctx, verificationCodePrefix+email).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return code, err
}

func (r *verificationCodeRepository) Delete(ctx context.Context, email string) error {
	return r.client.Del(ctx, verificationCodePrefix+email).Err()
}
