package dto

import (
	"time"

	"github.com/noah-isme/thesis-go-api/internal/models"
)

// PaginationMeta is returned as the envelope meta of paged lists.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginationMeta derives the page count; an unpaged request (size 0) is one page.
func NewPaginationMeta(page, size int, total int64) PaginationMeta {
	meta := PaginationMeta{Page: max(page, 1), PageSize: size, TotalItems: total, TotalPages: 1}
	if size > 0 {
		meta.TotalPages = int((total + int64(size) - 1) / int64(size))
	}
	return meta
}

// ActivityListRequest filters the audit trail. Zero values match everything; To is exclusive.
type ActivityListRequest struct {
	Page       int
	PageSize   int
	ActorID    uint
	Action     string
	EntityType string
	EntityID   uint
	From       *time.Time
	To         *time.Time
}

type ActivityLogResponse struct {
	ID         uint                   `json:"id"`
	ActorID    uint                   `json:"actor_id"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *uint                  `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at"`
}

type ActivityListResponse struct {
	Items      []ActivityLogResponse `json:"items"`
	Pagination PaginationMeta        `json:"pagination"`
}

func NewActivityLogResponse(entry models.ActivityLog) ActivityLogResponse {
	metadata := map[string]interface{}(entry.Metadata)
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return ActivityLogResponse{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   metadata,
		CreatedAt:  entry.CreatedAt,
	}
}

func NewActivityListResponse(entries []models.ActivityLog, meta PaginationMeta) ActivityListResponse {
	items := make([]ActivityLogResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, NewActivityLogResponse(entry))
	}
	return ActivityListResponse{Items: items, Pagination: meta}
}
