package retriever

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"doc-retriever/domain"
	"doc-retriever/port"
)

// RetryPolicy bounds the exponential backoff applied around a retriever.
type RetryPolicy struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxTries:        4,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2,
	}
}

func (p RetryPolicy) newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.InitialInterval
	bo.MaxInterval = p.MaxInterval
	bo.Multiplier = p.Multiplier
	return bo
}

// RetryingRetriever retries transient backend failures of another retriever.
// Only *domain.RetrievalBackendError is retried; rejected bulk entries and
// caller cancellation are returned at once.
type RetryingRetriever struct {
	next   port.Retriever
	policy RetryPolicy
	logger *slog.Logger
}

func WithRetry(next port.Retriever, policy RetryPolicy, logger *slog.Logger) *RetryingRetriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryingRetriever{next: next, policy: policy, logger: logger}
}

// AddDocuments assigns ids before the first attempt so a retried bulk write
// overwrites the same entries instead of creating new ones.
func (r *RetryingRetriever) AddDocuments(ctx context.Context, docs []domain.Document, opts ...port.AddOption) ([]string, error) {
	prepared, _, err := AssignIDs(docs, uuid.NewString)
	if err != nil {
		return nil, err
	}
	return retry(ctx, r, "AddDocuments", func() ([]string, error) {
		return r.next.AddDocuments(ctx, prepared, opts...)
	})
}

func (r *RetryingRetriever) GetRelevantDocuments(ctx context.Context, query string) ([]domain.Document, error) {
	return retry(ctx, r, "GetRelevantDocuments", func() ([]domain.Document, error) {
		return r.next.GetRelevantDocuments(ctx, query)
	})
}

func retry[T any](ctx context.Context, r *RetryingRetriever, op string, fn func() (T, error)) (T, error) {
	attempt := 0
	return backoff.Retry(ctx, func() (T, error) {
		attempt++
		res, err := fn()
		if err == nil || !Retryable(ctx, err) {
			if err != nil {
				return res, backoff.Permanent(err)
			}
			return res, nil
		}
		return res, err
	},
		backoff.WithBackOff(r.policy.newBackOff()),
		backoff.WithMaxTries(r.policy.MaxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			r.logger.WarnContext(ctx, "retriever call failed, retrying",
				"op", op, "attempt", attempt, "retry_in", next, "err", err)
		}),
	)
}

// Retryable reports whether err is a backend failure worth another attempt.
func Retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var backendErr *domain.RetrievalBackendError
	if !errors.As(err, &backendErr) {
		return false
	}
	var bulkErr *domain.BulkIndexError
	return !errors.As(err, &bulkErr)
}
