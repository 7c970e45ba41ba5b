package models

import "time"

// OutboxStatus summarises event delivery for one service order.
type OutboxStatus struct {
	ServiceOrderId int                 `json:"service_order_id"`
	Counts         map[string]int64    `json:"counts"`
	Events         []ServiceOrderEvent `json:"events"`
}

// Undelivered reports whether any event is still waiting or has been given up on.
func (s OutboxStatus) Undelivered() int64 {
	var n int64
	for status, c := range s.Counts {
		if status != OutboxPublishStatusSent {
			n += c
		}
	}
	return n
}

// OutboxRequeueResult is returned after DEAD/FAILED events are put back in the queue.
type OutboxRequeueResult struct {
	ServiceOrderId int       `json:"service_order_id"`
	Requeued       int64     `json:"requeued"`
	RequeuedAt     time.Time `json:"requeued_at"`
}
