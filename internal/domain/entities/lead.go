package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// LeadStatus represents the lifecycle state of a lead
type LeadStatus string

const (
	LeadStatusNew      LeadStatus = "new"
	LeadStatusInReview LeadStatus = "in_review"
	LeadStatusApproved LeadStatus = "approved"
	LeadStatusRejected LeadStatus = "rejected"
)

// LeadStatuses lists every valid status value.
var LeadStatuses = []LeadStatus{LeadStatusNew, LeadStatusInReview, LeadStatusApproved, LeadStatusRejected}

// IsValid reports whether the status is one of the enumerated values
func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusNew, LeadStatusInReview, LeadStatusApproved, LeadStatusRejected:
		return true
	}
	return false
}

// allowedTransitions is the lifecycle table keyed by current status.
// approved and rejected are terminal.
var allowedTransitions = map[LeadStatus][]LeadStatus{
	LeadStatusNew:      {LeadStatusInReview, LeadStatusRejected},
	LeadStatusInReview: {LeadStatusApproved, LeadStatusRejected},
}

// CanTransitionTo reports whether the lifecycle permits moving from s to next
func (s LeadStatus) CanTransitionTo(next LeadStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Loan amount bounds enforced on lead intake (form and CSV alike).
const (
	MinLoanAmount = 1000
	MaxLoanAmount = 1000000
)

// Lead represents a prospective customer tracked through the approval
// workflow. Leads are never deleted in normal operation; they change only
// through status transitions and comment/document attachment.
type Lead struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Phone         string      `json:"phone"`
	Address       null.String `json:"address,omitempty"`
	LoanAmount    float64     `json:"loanAmount"`
	Notes         null.String `json:"notes,omitempty"`
	Status        LeadStatus  `json:"status"`
	AffiliateID   uuid.UUID   `json:"affiliateId"`
	AffiliateName string      `json:"affiliateName,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`

	Documents     []*Document          `json:"documents,omitempty"`
	StatusHistory []*StatusHistoryItem `json:"statusHistory,omitempty"`
	Comments      []*Comment           `json:"comments,omitempty"`
}

// StatusHistoryItem records a single status transition. Append-only.
type StatusHistoryItem struct {
	ID            uuid.UUID   `json:"id"`
	LeadID        uuid.UUID   `json:"leadId"`
	Status        LeadStatus  `json:"status"`
	ChangedBy     uuid.UUID   `json:"changedBy"`
	ChangedByName string      `json:"changedByName"`
	ChangedAt     time.Time   `json:"changedAt"`
	Notes         null.String `json:"notes,omitempty"`
}

// Comment is a free-text note attached to a lead. Append-only.
type Comment struct {
	ID            uuid.UUID `json:"id"`
	LeadID        uuid.UUID `json:"leadId"`
	Content       string    `json:"content"`
	CreatedBy     uuid.UUID `json:"createdBy"`
	CreatedByName string    `json:"createdByName"`
	CreatedAt     time.Time `json:"createdAt"`
}

// CreateLeadInput represents the multipart form fields for creating a lead
type CreateLeadInput struct {
	Name        string  `form:"name" binding:"required"`
	Email       string  `form:"email" binding:"required,email"`
	Phone       string  `form:"phone" binding:"required"`
	Address     string  `form:"address"`
	LoanAmount  float64 `form:"loanAmount" binding:"required,gt=0"`
	Notes       string  `form:"notes"`
	AffiliateID string  `form:"affiliateId"`
}

// StatusUpdateInput represents input for a lifecycle transition.
// ExpectedStatus is the optional optimistic-concurrency check: when set, the
// stored status must still match it or the transition fails with a conflict.
type StatusUpdateInput struct {
	Status         LeadStatus `json:"status" binding:"required"`
	Notes          string     `json:"notes"`
	ExpectedStatus LeadStatus `json:"expectedStatus"`
}

// CommentInput represents input for appending a comment
type CommentInput struct {
	Content string `json:"content" binding:"required"`
}

// LeadSortField is a whitelisted sort column
type LeadSortField string

const (
	LeadSortName      LeadSortField = "name"
	LeadSortStatus    LeadSortField = "status"
	LeadSortCreatedAt LeadSortField = "createdAt"
	LeadSortUpdatedAt LeadSortField = "updatedAt"
)

// LeadFilter holds the optional, AND-combined listing filters
type LeadFilter struct {
	Status      []LeadStatus
	Search      string
	AffiliateID *uuid.UUID
	StartDate   *time.Time
	EndDate     *time.Time
}

// LeadListParams holds pagination, sorting and filters for a listing query
type LeadListParams struct {
	Page      int
	Limit     int
	SortBy    LeadSortField
	SortOrder string // "asc" or "desc"
	Filter    LeadFilter
}

// LeadPage is one page of a filtered listing. Total counts the whole
// filtered set, not the page.
type LeadPage struct {
	Leads      []*Lead `json:"leads"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	TotalPages int     `json:"totalPages"`
}

// StatusCount pairs a status with the number of leads currently in it
type StatusCount struct {
	Status LeadStatus `json:"status"`
	Count  int        `json:"count"`
}

// TrendPoint is a per-day lead count for the dashboard trend chart
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DashboardMetrics is the aggregate returned by the dashboard endpoint
type DashboardMetrics struct {
	TotalLeads    int           `json:"totalLeads"`
	LeadsByStatus []StatusCount `json:"leadsByStatus"`
	LeadTrends    []TrendPoint  `json:"leadTrends"`
	LeadsTrend    float64       `json:"leadsTrend"`
}
