// internal/models/request.go
package models

import (
	"fmt"
	"time"
)

type ProjectType string

const (
	ProjectTypeWebDevelopment    ProjectType = "WEB_DEVELOPMENT"
	ProjectTypeMobileApp         ProjectType = "MOBILE_APP"
	ProjectTypeAIML              ProjectType = "AI_ML"
	ProjectTypeSystemIntegration ProjectType = "SYSTEM_INTEGRATION"
	ProjectTypeConsulting        ProjectType = "CONSULTING"
	ProjectTypeMaintenance       ProjectType = "MAINTENANCE"
	ProjectTypeOther             ProjectType = "OTHER"
)

// ProjectTypes lists every project type in declaration order.
var ProjectTypes = []ProjectType{
	ProjectTypeWebDevelopment,
	ProjectTypeMobileApp,
	ProjectTypeAIML,
	ProjectTypeSystemIntegration,
	ProjectTypeConsulting,
	ProjectTypeMaintenance,
	ProjectTypeOther,
}

// ParseProjectType converts a raw string to a ProjectType, returning an error
// for unknown values.
func ParseProjectType(s string) (ProjectType, error) {
	pt := ProjectType(s)
	for _, known := range ProjectTypes {
		if pt == known {
			return pt, nil
		}
	}
	return "", fmt.Errorf("unknown project type %q", s)
}

// RequestStatus mirrors the request_status enum in PostgreSQL.
type RequestStatus string

const (
	RequestStatusDraft     RequestStatus = "DRAFT"
	RequestStatusPublished RequestStatus = "PUBLISHED"
	RequestStatusClosed    RequestStatus = "CLOSED"
	RequestStatusCancelled RequestStatus = "CANCELLED"
)

// IsOpen reports whether proposals may still be submitted or selected.
func (s RequestStatus) IsOpen() bool {
	return s == RequestStatusPublished
}

type Requirements struct {
	TechStacks  []string `json:"techStacks,omitempty"`
	Specialties []string `json:"specialties,omitempty"`
}

// Request is a requester's project brief. Budget bounds are optional; when
// both are present BudgetMin < BudgetMax.
type Request struct {
	ID           string        `json:"id"`
	OwnerID      string        `json:"ownerId"`
	Title        string        `json:"title,omitempty"`
	ProjectType  ProjectType   `json:"projectType"`
	BudgetMin    *int64        `json:"budgetMin,omitempty"`
	BudgetMax    *int64        `json:"budgetMax,omitempty"`
	Requirements *Requirements `json:"requirements,omitempty"`
	Status       RequestStatus `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// RequestedTechStacks returns the tech stacks named in the requirements payload, if any.
func (r Request) RequestedTechStacks() []string {
	if r.Requirements == nil {
		return nil
	}
	return r.Requirements.TechStacks
}

// RequestedSpecialties returns the specialties named in the requirements payload, if any.
func (r Request) RequestedSpecialties() []string {
	if r.Requirements == nil {
		return nil
	}
	return r.Requirements.Specialties
}
