package repositories

import (
	"context"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
)

// VisitRecordRepository persists finalized clinical selections and prices
type VisitRecordRepository interface {
	Create(ctx context.Context, record *entities.VisitRecord) error
	GetByVisitID(ctx context.Context, visitID string) ([]*entities.VisitRecord, error)
}
