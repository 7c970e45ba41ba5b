package models

import (
	"encoding/json"
	"time"
)

type History struct {
	ID            int       `gorm:"primary_key" json:"id"`
	ActionType    string    `gorm:"size:10;not null" json:"action_type"`
	Before        string    `gorm:"type:text" json:"before"`
	After         string    `gorm:"type:text" json:"after"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	ReferenceID   int       `gorm:"index" json:"reference_id"`
	ReferenceType string    `gorm:"size:50;index" json:"reference_type"`
	UserId        int       `gorm:"index;not null" json:"user_id"`
	UserName      string    `gorm:"size:100" json:"user_name"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// NewHistory snapshots before/after as JSON. Marshal failures fall back to an empty document.
func NewHistory(actionType string, referenceId int, referenceType string, before any, after any, description string, userId int, userName string) *History {
	return &History{
		ActionType:    actionType,
		ReferenceID:   referenceId,
		ReferenceType: referenceType,
		Before:        snapshot(before),
		After:         snapshot(after),
		Description:   description,
		UserId:        userId,
		UserName:      userName,
	}
}

func snapshot(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
