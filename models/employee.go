package models

import "time"

type Employee struct {
	ID           int          `gorm:"primary_key" json:"id"`
	EmployeeName string       `gorm:"size:255;not null" json:"employee_name"`
	Role         EmployeeRole `gorm:"size:20;not null" json:"role"`
	Phone        string       `gorm:"size:30" json:"phone"`
	Email        string       `gorm:"size:255;index" json:"email"`
	IsActive     *bool        `gorm:"not null;default:true" json:"is_active"`
	Lifecycle
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e Employee) GetId() int {
	return e.ID
}

type NewEmployee struct {
	EmployeeName string       `json:"employee_name" validate:"required,max=255"`
	Role         EmployeeRole `json:"role" validate:"omitempty,oneof=Technician Receptionist Manager"`
	Phone        string       `json:"phone" validate:"max=30"`
	Email        string       `json:"email" validate:"omitempty,email,max=255"`
	IsActive     *bool        `json:"is_active"`
}

type EmployeePatch struct {
	EmployeeName string       `json:"employee_name" validate:"max=255"`
	Role         EmployeeRole `json:"role" validate:"omitempty,oneof=Technician Receptionist Manager"`
	Phone        string       `json:"phone" validate:"max=30"`
	Email        string       `json:"email" validate:"omitempty,email,max=255"`
	IsActive     *bool        `json:"is_active"`
}
