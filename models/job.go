package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Job struct {
	ID                   int             `gorm:"primary_key" json:"id"`
	ItemId               int             `gorm:"index;not null" json:"item_id"`
	ServiceType          string          `gorm:"size:50" json:"service_type"`
	ReceivedDate         time.Time       `gorm:"not null" json:"received_date"`
	AssignedTo           int             `gorm:"index" json:"assigned_to"`
	Priority             JobPriority     `gorm:"size:10;not null;default:Normal" json:"priority"`
	EstimatedCost        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"estimated_cost"`
	ActualCost           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"actual_cost"`
	Diagnosis            string          `gorm:"type:text" json:"diagnosis"`
	DiagnosisDate        *time.Time      `json:"diagnosis_date"`
	TargetCompletionDate *time.Time      `json:"target_completion_date"`
	CompletionDate       *time.Time      `json:"completion_date"`
	Notes                string          `gorm:"type:text" json:"notes"`
	Status               JobStatus       `gorm:"size:20;not null;default:Pending" json:"status"`
	Lifecycle
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	JobParts  []JobPart `gorm:"foreignKey:JobId" json:"job_parts"`
}

func (job Job) GetId() int {
	return job.ID
}

type JobPatch struct {
	ServiceType          string           `json:"service_type" validate:"max=50"`
	AssignedTo           int              `json:"assigned_to" validate:"gte=0"`
	Priority             JobPriority      `json:"priority" validate:"omitempty,oneof=Low Normal High Urgent"`
	EstimatedCost        *decimal.Decimal `json:"estimated_cost"`
	Diagnosis            string           `json:"diagnosis"`
	TargetCompletionDate *time.Time       `json:"target_completion_date"`
	Notes                string           `json:"notes"`
	Status               JobStatus        `json:"status" validate:"omitempty,oneof=Pending Diagnosing InProgress WaitingParts Completed Cancelled"`
}

type NewJob struct {
	JobPatch
	JobParts []NewJobPart `json:"job_parts" validate:"dive"`
}

// JobUpdate with JobId 0 creates a new job. For an existing job JobParts is required.
type JobUpdate struct {
	JobId int `json:"job_id" validate:"gte=0"`
	JobPatch
	JobParts []JobPartUpdate `json:"job_parts" validate:"dive"`
}
