// Package workflow holds the background outbox dispatcher that publishes committed service order events.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/servicecenter_backend/config"
	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Publisher delivers one event and returns the broker-assigned message id.
type Publisher interface {
	Publish(ctx context.Context, msg config.ServiceOrderEventMessage) (string, error)
}

type PublisherFunc func(ctx context.Context, msg config.ServiceOrderEventMessage) (string, error)

func (f PublisherFunc) Publish(ctx context.Context, msg config.ServiceOrderEventMessage) (string, error) {
	return f(ctx, msg)
}

// PubSubPublisher publishes to PUBSUB_TOPIC.
var PubSubPublisher Publisher = PublisherFunc(config.PublishServiceOrderEvent)

type OutboxDispatcher struct {
	DB           *gorm.DB
	Logger       *logrus.Logger
	Publisher    Publisher
	DispatcherID string

	BatchSize      int
	PollInterval   time.Duration
	LockTimeout    time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	now func() time.Time
}

func NewOutboxDispatcher(db *gorm.DB, logger *logrus.Logger, pub Publisher) *OutboxDispatcher {
	return &OutboxDispatcher{
		DB:             db,
		Logger:         logger,
		Publisher:      pub,
		DispatcherID:   uuid.NewString(),
		BatchSize:      50,
		PollInterval:   500 * time.Millisecond,
		LockTimeout:    30 * time.Second,
		MaxAttempts:    20,
		InitialBackoff: 5 * time.Second,
		MaxBackoff:     10 * time.Minute,
		now:            time.Now,
	}
}

// WithClock replaces the time source used for claims and retry schedules.
func (d *OutboxDispatcher) WithClock(now func() time.Time) *OutboxDispatcher {
	d.now = now
	return d
}

func (d *OutboxDispatcher) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if _, err := d.DispatchOnce(ctx); err != nil {
			config.LogError(d.Logger, "workflow", "OutboxDispatcher.Run", "dispatch batch", d.DispatcherID, err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.PollInterval):
		}
	}
}

// DispatchOnce claims one batch and publishes it, returning how many events were sent.
func (d *OutboxDispatcher) DispatchOnce(ctx context.Context) (int, error) {
	if d.DB == nil || d.Publisher == nil {
		return 0, nil
	}
	now := d.now().UTC()
	claimed, err := d.claim(ctx, now)
	if err != nil || len(claimed) == 0 {
		return 0, err
	}

	sent := 0
	for _, ev := range claimed {
		// rows marked DEAD in the claim transaction are not published
		if ev.PublishStatus == models.OutboxPublishStatusDead {
			continue
		}
		msgId, pubErr := d.Publisher.Publish(ctx, ev.ToMessage())
		if pubErr != nil {
			d.markPublishFailed(ctx, &ev, pubErr)
			continue
		}
		d.markPublishSent(ctx, ev.ID, msgId, now)
		sent++
	}
	return sent, nil
}

func (d *OutboxDispatcher) claim(ctx context.Context, now time.Time) ([]models.ServiceOrderEvent, error) {
	staleBefore := now.Add(-d.LockTimeout)
	var claimed []models.ServiceOrderEvent
	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Eligible:
		// - PENDING / FAILED and due
		// - PROCESSING with a stale lock (dispatcher died mid-batch)
		q := tx.
			Where(`
				(
					publish_status IN ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
				)
				OR
				(
					publish_status = ? AND locked_at IS NOT NULL AND locked_at <= ?
				)
			`, []string{models.OutboxPublishStatusPending, models.OutboxPublishStatusFailed}, now, models.OutboxPublishStatusProcessing, staleBefore).
			Order("id ASC").
			Limit(d.BatchSize).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		if err := q.Find(&claimed).Error; err != nil {
			return err
		}
		for i := range claimed {
			if d.MaxAttempts > 0 && claimed[i].PublishAttempts >= d.MaxAttempts {
				msg := fmt.Sprintf("max publish attempts exceeded (%d)", d.MaxAttempts)
				claimed[i].PublishStatus = models.OutboxPublishStatusDead
				if err := tx.Model(&models.ServiceOrderEvent{}).Where("id = ?", claimed[i].ID).Updates(map[string]interface{}{
					"publish_status":     models.OutboxPublishStatusDead,
					"last_publish_error": &msg,
					"next_attempt_at":    nil,
					"locked_at":          nil,
					"locked_by":          nil,
				}).Error; err != nil {
					return err
				}
				continue
			}

			claimed[i].PublishStatus = models.OutboxPublishStatusProcessing
			claimed[i].LockedAt = &now
			claimed[i].LockedBy = &d.DispatcherID
			claimed[i].PublishAttempts++
			claimed[i].LastPublishError = nil
			if err := tx.Model(&models.ServiceOrderEvent{}).Where("id = ?", claimed[i].ID).Updates(map[string]interface{}{
				"publish_status":     claimed[i].PublishStatus,
				"locked_at":          claimed[i].LockedAt,
				"locked_by":          claimed[i].LockedBy,
				"publish_attempts":   gorm.Expr("publish_attempts + 1"),
				"last_publish_error": nil,
				"next_attempt_at":    nil,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (d *OutboxDispatcher) markPublishSent(ctx context.Context, eventId int, msgId string, now time.Time) {
	err := d.DB.WithContext(ctx).Model(&models.ServiceOrderEvent{}).
		Where("id = ?", eventId).
		Updates(map[string]interface{}{
			"publish_status":     models.OutboxPublishStatusSent,
			"published_at":       &now,
			"pub_sub_message_id": &msgId,
			"locked_at":          nil,
			"locked_by":          nil,
			"next_attempt_at":    nil,
		}).Error
	if err != nil {
		config.LogError(d.Logger, "workflow", "markPublishSent", "update event", eventId, err)
	}
}

// backoff doubles from InitialBackoff per attempt and is capped at MaxBackoff.
func (d *OutboxDispatcher) backoff(attempt int) time.Duration {
	b := d.InitialBackoff
	for i := 1; i < attempt; i++ {
		b *= 2
		if d.MaxBackoff > 0 && b > d.MaxBackoff {
			return d.MaxBackoff
		}
	}
	return b
}

func (d *OutboxDispatcher) markPublishFailed(ctx context.Context, ev *models.ServiceOrderEvent, pubErr error) {
	db := d.DB.WithContext(ctx)
	now := d.now().UTC()
	msg := pubErr.Error()
	attempt := ev.PublishAttempts

	if d.MaxAttempts > 0 && attempt >= d.MaxAttempts {
		if err := db.Model(&models.ServiceOrderEvent{}).
			Where("id = ?", ev.ID).
			Updates(map[string]interface{}{
				"publish_status":     models.OutboxPublishStatusDead,
				"last_publish_error": &msg,
				"next_attempt_at":    nil,
				"locked_at":          nil,
				"locked_by":          nil,
			}).Error; err != nil {
			config.LogError(d.Logger, "workflow", "markPublishFailed", "mark dead", ev.ID, err)
		}
		if d.Logger != nil {
			d.Logger.WithFields(logrus.Fields{
				"field":            "OutboxDispatcher",
				"service_order_id": ev.ServiceOrderId,
				"event_id":         ev.ID,
				"attempt":          attempt,
			}).Error("outbox publish moved to DEAD after max attempts: " + msg)
		}
		return
	}

	next := now.Add(d.backoff(attempt))
	if err := db.Model(&models.ServiceOrderEvent{}).
		Where("id = ?", ev.ID).
		Updates(map[string]interface{}{
			"publish_status":     models.OutboxPublishStatusFailed,
			"last_publish_error": &msg,
			"next_attempt_at":    &next,
			"locked_at":          nil,
			"locked_by":          nil,
		}).Error; err != nil {
		config.LogError(d.Logger, "workflow", "markPublishFailed", "schedule retry", ev.ID, err)
	}
	if d.Logger != nil {
		d.Logger.WithFields(logrus.Fields{
			"field":            "OutboxDispatcher",
			"service_order_id": ev.ServiceOrderId,
			"event_id":         ev.ID,
			"attempt":          attempt,
			"next_attempt_at":  next.Format(time.RFC3339Nano),
		}).Error("outbox publish failed: " + msg)
	}
}
