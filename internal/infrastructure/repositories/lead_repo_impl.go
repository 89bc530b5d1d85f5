package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"

	"leadhub.backend/internal/domain/entities"
	domainerrors "leadhub.backend/internal/domain/errors"
	"leadhub.backend/internal/infrastructure/models"
)

// LeadRepository implements lead data operations
type LeadRepository struct {
	db *gorm.DB
}

// NewLeadRepository creates a new lead repository
func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

// Create creates a new lead. Any status-history entries already attached to
// the entity (the initial "new" record) are persisted in the same
// transaction.
func (r *LeadRepository) Create(ctx context.Context, lead *entities.Lead) error {
	m := leadToModel(lead)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		lead.ID = m.ID
		lead.CreatedAt = m.CreatedAt
		lead.UpdatedAt = m.UpdatedAt

		for _, h := range lead.StatusHistory {
			h.LeadID = m.ID
			if err := tx.Create(historyToModel(h)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID gets a lead by ID with its affiliate name resolved
func (r *LeadRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Lead, error) {
	var m models.Lead
	if err := r.db.WithContext(ctx).Preload("Affiliate").Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return leadToEntity(&m), nil
}

var sortColumns = map[entities.LeadSortField]string{
	entities.LeadSortName:      "name",
	entities.LeadSortStatus:    "status",
	entities.LeadSortCreatedAt: "created_at",
	entities.LeadSortUpdatedAt: "updated_at",
}

// List returns one page of the filtered lead set. Total reflects the whole
// filtered set; ordering carries the primary key as a tiebreak so a fixed
// parameter combination is deterministic against an unchanged store.
func (r *LeadRepository) List(ctx context.Context, params entities.LeadListParams) (*entities.LeadPage, error) {
	base := applyLeadFilter(r.db.WithContext(ctx).Model(&models.Lead{}), params.Filter)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	column, ok := sortColumns[params.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(params.SortOrder, "asc") {
		direction = "ASC"
	}

	offset := (params.Page - 1) * params.Limit

	var ms []models.Lead
	if err := base.
		Preload("Affiliate").
		Order(column + " " + direction).
		Order("id ASC").
		Limit(params.Limit).
		Offset(offset).
		Find(&ms).Error; err != nil {
		return nil, err
	}

	leads := make([]*entities.Lead, 0, len(ms))
	for _, m := range ms {
		model := m
		leads = append(leads, leadToEntity(&model))
	}

	totalPages := int((total + int64(params.Limit) - 1) / int64(params.Limit))

	return &entities.LeadPage{
		Leads:      leads,
		Total:      int(total),
		Page:       params.Page,
		TotalPages: totalPages,
	}, nil
}

// ListAll returns the full filtered set without pagination (CSV export)
func (r *LeadRepository) ListAll(ctx context.Context, filter entities.LeadFilter) ([]*entities.Lead, error) {
	var ms []models.Lead
	if err := applyLeadFilter(r.db.WithContext(ctx).Model(&models.Lead{}), filter).
		Preload("Affiliate").
		Order("created_at DESC").
		Order("id ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}

	leads := make([]*entities.Lead, 0, len(ms))
	for _, m := range ms {
		model := m
		leads = append(leads, leadToEntity(&model))
	}
	return leads, nil
}

// Transition atomically moves a lead from one status to another and appends
// the history record. The from-status guard in the WHERE clause makes a
// concurrent stale transition fail with ErrConflict instead of silently
// winning the race.
func (r *LeadRepository) Transition(ctx context.Context, id uuid.UUID, from, to entities.LeadStatus, history *entities.StatusHistoryItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Lead{}).
			Where("id = ? AND status = ?", id, string(from)).
			Updates(map[string]interface{}{
				"status":     string(to),
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Lead{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return domainerrors.ErrNotFound
			}
			return domainerrors.ErrConflict
		}

		history.LeadID = id
		return tx.Create(historyToModel(history)).Error
	})
}

// Delete removes a lead and everything it owns
func (r *LeadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lead_id = ?", id).Delete(&models.Document{}).Error; err != nil {
			return err
		}
		if err := tx.Where("lead_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("lead_id = ?", id).Delete(&models.StatusHistoryItem{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Lead{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrNotFound
		}
		return nil
	})
}

// AddComment appends a comment to a lead
func (r *LeadRepository) AddComment(ctx context.Context, comment *entities.Comment) error {
	m := &models.Comment{
		ID:        comment.ID,
		LeadID:    comment.LeadID,
		Content:   comment.Content,
		CreatedBy: comment.CreatedBy,
		CreatedAt: comment.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	comment.ID = m.ID
	comment.CreatedAt = m.CreatedAt
	return nil
}

// GetHistory returns a lead's status history, newest first
func (r *LeadRepository) GetHistory(ctx context.Context, leadID uuid.UUID) ([]*entities.StatusHistoryItem, error) {
	var ms []models.StatusHistoryItem
	if err := r.db.WithContext(ctx).
		Preload("ChangedByUser").
		Where("lead_id = ?", leadID).
		Order("changed_at DESC").
		Find(&ms).Error; err != nil {
		return nil, err
	}

	items := make([]*entities.StatusHistoryItem, 0, len(ms))
	for _, m := range ms {
		items = append(items, &entities.StatusHistoryItem{
			ID:            m.ID,
			LeadID:        m.LeadID,
			Status:        entities.LeadStatus(m.Status),
			ChangedBy:     m.ChangedBy,
			ChangedByName: m.ChangedByUser.Name,
			ChangedAt:     m.ChangedAt,
			Notes:         null.StringFromPtr(m.Notes),
		})
	}
	return items, nil
}

// GetComments returns a lead's comments, newest first
func (r *LeadRepository) GetComments(ctx context.Context, leadID uuid.UUID) ([]*entities.Comment, error) {
	var ms []models.Comment
	if err := r.db.WithContext(ctx).
		Preload("CreatedByUser").
		Where("lead_id = ?", leadID).
		Order("created_at DESC").
		Find(&ms).Error; err != nil {
		return nil, err
	}

	comments := make([]*entities.Comment, 0, len(ms))
	for _, m := range ms {
		comments = append(comments, &entities.Comment{
			ID:            m.ID,
			LeadID:        m.LeadID,
			Content:       m.Content,
			CreatedBy:     m.CreatedBy,
			CreatedByName: m.CreatedByUser.Name,
			CreatedAt:     m.CreatedAt,
		})
	}
	return comments, nil
}

// CountByStatus counts leads per status, optionally bounded by creation time
func (r *LeadRepository) CountByStatus(ctx context.Context, since, until *time.Time) ([]entities.StatusCount, error) {
	query := r.db.WithContext(ctx).Model(&models.Lead{})
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}
	if until != nil {
		query = query.Where("created_at <= ?", *until)
	}

	var rows []struct {
		Status string
		Count  int
	}
	if err := query.Select("status, COUNT(*) as count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	byStatus := make(map[entities.LeadStatus]int, len(rows))
	for _, row := range rows {
		byStatus[entities.LeadStatus(row.Status)] = row.Count
	}

	// stable order, zero-filled
	counts := make([]entities.StatusCount, 0, len(entities.LeadStatuses))
	for _, s := range entities.LeadStatuses {
		counts = append(counts, entities.StatusCount{Status: s, Count: byStatus[s]})
	}
	return counts, nil
}

// CountCreatedBetween counts leads created in the half-open range
// [since, until). Adjacent trend windows share a boundary, so the upper
// bound is exclusive.
func (r *LeadRepository) CountCreatedBetween(ctx context.Context, since, until time.Time) (int, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Lead{}).
		Where("created_at >= ? AND created_at < ?", since, until).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return int(total), nil
}

// CountPerDay buckets lead creations per calendar day over the inclusive
// range. Bucketing happens in Go to stay portable across postgres and the
// sqlite test driver; days without leads are zero-filled.
func (r *LeadRepository) CountPerDay(ctx context.Context, since, until time.Time) ([]entities.TrendPoint, error) {
	var createdAts []time.Time
	if err := r.db.WithContext(ctx).Model(&models.Lead{}).
		Where("created_at >= ? AND created_at <= ?", since, until).
		Pluck("created_at", &createdAts).Error; err != nil {
		return nil, err
	}

	perDay := make(map[string]int)
	for _, ts := range createdAts {
		perDay[ts.Format("2006-01-02")]++
	}

	var points []entities.TrendPoint
	for day := since.Truncate(24 * time.Hour); !day.After(until); day = day.Add(24 * time.Hour) {
		key := day.Format("2006-01-02")
		points = append(points, entities.TrendPoint{Date: key, Count: perDay[key]})
	}
	return points, nil
}

func applyLeadFilter(query *gorm.DB, filter entities.LeadFilter) *gorm.DB {
	if len(filter.Status) > 0 {
		statuses := make([]string, 0, len(filter.Status))
		for _, s := range filter.Status {
			statuses = append(statuses, string(s))
		}
		query = query.Where("status IN ?", statuses)
	}
	if filter.Search != "" {
		term := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(phone) LIKE ?", term, term, term)
	}
	if filter.AffiliateID != nil {
		query = query.Where("affiliate_id = ?", *filter.AffiliateID)
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("created_at <= ?", *filter.EndDate)
	}
	return query
}

func leadToModel(lead *entities.Lead) *models.Lead {
	return &models.Lead{
		ID:          lead.ID,
		Name:        lead.Name,
		Email:       lead.Email,
		Phone:       lead.Phone,
		Address:     lead.Address.Ptr(),
		LoanAmount:  lead.LoanAmount,
		Notes:       lead.Notes.Ptr(),
		Status:      string(lead.Status),
		AffiliateID: lead.AffiliateID,
		CreatedAt:   lead.CreatedAt,
		UpdatedAt:   lead.UpdatedAt,
	}
}

func historyToModel(h *entities.StatusHistoryItem) *models.StatusHistoryItem {
	return &models.StatusHistoryItem{
		ID:        h.ID,
		LeadID:    h.LeadID,
		Status:    string(h.Status),
		ChangedBy: h.ChangedBy,
		ChangedAt: h.ChangedAt,
		Notes:     h.Notes.Ptr(),
	}
}

func leadToEntity(m *models.Lead) *entities.Lead {
	lead := &entities.Lead{
		ID:          m.ID,
		Name:        m.Name,
		Email:       m.Email,
		Phone:       m.Phone,
		Address:     null.StringFromPtr(m.Address),
		LoanAmount:  m.LoanAmount,
		Notes:       null.StringFromPtr(m.Notes),
		Status:      entities.LeadStatus(m.Status),
		AffiliateID: m.AffiliateID,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.Affiliate.ID != uuid.Nil {
		lead.AffiliateName = m.Affiliate.Name
	}
	return lead
}
