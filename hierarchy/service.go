// Package hierarchy owns the ServiceOrder -> Item -> Job -> JobPart tree:
// atomic creation, smart reconciliation, direct child operations and job costing.
package hierarchy

import (
	"context"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/go-faster/errors"
	"github.com/mmdatafocus/servicecenter_backend/config"
	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/store"
	"github.com/mmdatafocus/servicecenter_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Locker serializes writers of one service order across processes.
type Locker interface {
	Lock(ctx context.Context, serviceOrderId int) (unlock func(), err error)
}

type noopLocker struct{}

func (noopLocker) Lock(context.Context, int) (func(), error) {
	return func() {}, nil
}

// RedisLocker holds a redislock lease for the duration of one operation.
type RedisLocker struct {
	client  *redislock.Client
	TTL     time.Duration
	Retries int
	Backoff time.Duration
}

func NewRedisLocker(client *redislock.Client) *RedisLocker {
	return &RedisLocker{
		client:  client,
		TTL:     30 * time.Second,
		Retries: 20,
		Backoff: 100 * time.Millisecond,
	}
}

func serviceOrderLockKey(serviceOrderId int) string {
	return fmt.Sprintf("lock:service_order:%d", serviceOrderId)
}

func (l *RedisLocker) Lock(ctx context.Context, serviceOrderId int) (func(), error) {
	lock, err := l.client.Obtain(ctx, serviceOrderLockKey(serviceOrderId), l.TTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.Backoff), l.Retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, utils.NewConflictError(fmt.Sprintf("service order %d is being modified by another request", serviceOrderId), err)
	}
	if err != nil {
		return nil, errors.Wrap(err, "obtain service order lock")
	}
	return func() {
		// release with a fresh context: the request context may already be cancelled
		_ = lock.Release(context.Background())
	}, nil
}

type Service struct {
	store  store.Store
	locker Locker
	logger *logrus.Logger
	now    func() time.Time
	tracer trace.Tracer
}

type Option func(*Service)

func WithLocker(l Locker) Option {
	return func(s *Service) {
		if l != nil {
			s.locker = l
		}
	}
}

func WithLogger(l *logrus.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now for derived dates (received, diagnosis, completion, deleted-at).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		locker: noopLocker{},
		logger: config.GetLogger(),
		now:    time.Now,
		tracer: otel.Tracer("servicecenter/hierarchy"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "hierarchy."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// withServiceOrder runs fn in one transaction while holding the service order's lock.
func (s *Service) withServiceOrder(ctx context.Context, serviceOrderId int, fn func(tx store.Tx) error) error {
	unlock, err := s.locker.Lock(ctx, serviceOrderId)
	if err != nil {
		return err
	}
	defer unlock()
	return store.InTransaction(ctx, s.store, fn)
}

// touchServiceOrder loads the live owner inside tx and bumps its version.
func (s *Service) touchServiceOrder(ctx context.Context, tx store.Session, serviceOrderId int) (*models.ServiceOrder, error) {
	so, err := liveByID[models.ServiceOrder](ctx, tx, "ServiceOrder", serviceOrderId)
	if err != nil {
		return nil, err
	}
	if err := tx.UpdateVersioned(ctx, so, so.Version); err != nil {
		return nil, err
	}
	return so, nil
}

func (s *Service) addHistory(ctx context.Context, tx store.Session, actionType string, refType string, refId int, before any, after any, description string) error {
	userId, userName := utils.Actor(ctx)
	return tx.Add(ctx, models.NewHistory(actionType, refId, refType, before, after, description, userId, userName))
}

func (s *Service) addEvent(ctx context.Context, tx store.Session, serviceOrderId int, action string, payload any) error {
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	return tx.Add(ctx, models.NewServiceOrderEvent(serviceOrderId, action, payload, correlationId))
}
