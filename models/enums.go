package models

type LifecycleState string

const (
	LifecycleActive  LifecycleState = "Active"
	LifecycleDeleted LifecycleState = "Deleted"
)

type ServiceOrderStatus string

const (
	ServiceOrderStatusReceived   ServiceOrderStatus = "Received"
	ServiceOrderStatusInProgress ServiceOrderStatus = "InProgress"
	ServiceOrderStatusReady      ServiceOrderStatus = "Ready"
	ServiceOrderStatusDelivered  ServiceOrderStatus = "Delivered"
	ServiceOrderStatusCancelled  ServiceOrderStatus = "Cancelled"
)

func (s ServiceOrderStatus) IsValid() bool {
	switch s {
	case ServiceOrderStatusReceived, ServiceOrderStatusInProgress, ServiceOrderStatusReady,
		ServiceOrderStatusDelivered, ServiceOrderStatusCancelled:
		return true
	}
	return false
}

type InspectionStatus string

const (
	InspectionStatusPending   InspectionStatus = "Pending"
	InspectionStatusInspected InspectionStatus = "Inspected"
	InspectionStatusRejected  InspectionStatus = "Rejected"
)

func (s InspectionStatus) IsValid() bool {
	switch s {
	case InspectionStatusPending, InspectionStatusInspected, InspectionStatusRejected:
		return true
	}
	return false
}

type JobPriority string

const (
	JobPriorityLow    JobPriority = "Low"
	JobPriorityNormal JobPriority = "Normal"
	JobPriorityHigh   JobPriority = "High"
	JobPriorityUrgent JobPriority = "Urgent"
)

func (p JobPriority) IsValid() bool {
	switch p {
	case JobPriorityLow, JobPriorityNormal, JobPriorityHigh, JobPriorityUrgent:
		return true
	}
	return false
}

type JobStatus string

const (
	JobStatusPending      JobStatus = "Pending"
	JobStatusDiagnosing   JobStatus = "Diagnosing"
	JobStatusInProgress   JobStatus = "InProgress"
	JobStatusWaitingParts JobStatus = "WaitingParts"
	JobStatusCompleted    JobStatus = "Completed"
	JobStatusCancelled    JobStatus = "Cancelled"
)

func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusDiagnosing, JobStatusInProgress, JobStatusWaitingParts,
		JobStatusCompleted, JobStatusCancelled:
		return true
	}
	return false
}

type CustomerType string

const (
	CustomerTypeIndividual CustomerType = "Individual"
	CustomerTypeBusiness   CustomerType = "Business"
)

type EmployeeRole string

const (
	EmployeeRoleTechnician   EmployeeRole = "Technician"
	EmployeeRoleReceptionist EmployeeRole = "Receptionist"
	EmployeeRoleManager      EmployeeRole = "Manager"
)

const (
	ActionTypeCreate = "Create"
	ActionTypeUpdate = "Update"
	ActionTypeDelete = "Delete"
)
