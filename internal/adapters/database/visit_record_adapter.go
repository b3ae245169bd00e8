package database

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/repositories"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/infrastructure/clients/postgres"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/infrastructure/observability"
	apperrors "github.com/chatgptnotes/adamrit.in-sub001/pkg/errors"
)

const (
	selectionsTable = "visit_clinical_selections"
	lineItemsTable  = "visit_line_item_prices"
)

// VisitRecordAdapter implements VisitRecordRepository
type VisitRecordAdapter struct {
	client  *postgres.Client
	db      *goqu.Database
	metrics *observability.Metrics
}

var _ repositories.VisitRecordRepository = (*VisitRecordAdapter)(nil)

// NewVisitRecordAdapter creates a new visit record adapter
func NewVisitRecordAdapter(client *postgres.Client, metrics *observability.Metrics) *VisitRecordAdapter {
	return &VisitRecordAdapter{client: client, db: client.Goqu(), metrics: metrics}
}

// Create stores the selections row and its priced line items in one transaction
func (a *VisitRecordAdapter) Create(ctx context.Context, record *entities.VisitRecord) error {
	start := time.Now()
	defer func() { observability.RecordDBMetric(ctx, a.metrics, "visit_record_create", time.Since(start)) }()

	selection := goqu.Record{
		"id":                record.ID,
		"visit_id":          record.VisitID,
		"session_id":        record.SessionID,
		"diagnosis_ids":     pq.Array(record.DiagnosisIDs),
		"surgery_ids":       pq.Array(record.SurgeryIDs),
		"complication_ids":  pq.Array(record.ComplicationIDs),
		"investigation_ids": pq.Array(record.InvestigationIDs),
		"medication_ids":    pq.Array(record.MedicationIDs),
		"total_amount":      record.TotalAmount,
		"finalized_at":      record.FinalizedAt,
	}
	insertSelection, args, err := a.db.Insert(selectionsTable).Rows(selection).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, insertSelection, args...); err != nil {
		return apperrors.NewInternalError("failed to create visit record", err)
	}

	if len(record.LineItems) > 0 {
		rows := make([]interface{}, 0, len(record.LineItems))
		for _, item := range record.LineItems {
			rows = append(rows, goqu.Record{
				"visit_record_id":      record.ID,
				"line_item":            item.LineItem,
				"sub_item":             item.SubItem,
				"base_amount":          item.BaseAmount,
				"primary_adjustment":   item.PrimaryAdjustment,
				"secondary_adjustment": item.SecondaryAdjustment,
				"final_amount":         item.FinalAmount,
			})
		}
		insertItems, itemArgs, err := a.db.Insert(lineItemsTable).Rows(rows...).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build line item insert query", err)
		}
		if _, err := tx.ExecContext(ctx, insertItems, itemArgs...); err != nil {
			return apperrors.NewInternalError("failed to create visit line items", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit visit record", err)
	}
	return nil
}

// GetByVisitID returns every finalized record of a visit, newest first
func (a *VisitRecordAdapter) GetByVisitID(ctx context.Context, visitID string) ([]*entities.VisitRecord, error) {
	start := time.Now()
	defer func() { observability.RecordDBMetric(ctx, a.metrics, "visit_record_get", time.Since(start)) }()

	query, args, err := a.db.From(selectionsTable).
		Select(
			"id", "visit_id", "session_id", "diagnosis_ids", "surgery_ids",
			"complication_ids", "investigation_ids", "medication_ids",
			"total_amount", "finalized_at",
		).
		Where(goqu.Ex{"visit_id": visitID}).
		Order(goqu.C("finalized_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get visit records", err)
	}
	defer rows.Close()

	records := []*entities.VisitRecord{}
	byID := make(map[string]*entities.VisitRecord)
	for rows.Next() {
		record := &entities.VisitRecord{LineItems: []entities.VisitLineItemPrice{}}
		if err := rows.Scan(
			&record.ID,
			&record.VisitID,
			&record.SessionID,
			pq.Array(&record.DiagnosisIDs),
			pq.Array(&record.SurgeryIDs),
			pq.Array(&record.ComplicationIDs),
			pq.Array(&record.InvestigationIDs),
			pq.Array(&record.MedicationIDs),
			&record.TotalAmount,
			&record.FinalizedAt,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan visit record", err)
		}
		records = append(records, record)
		byID[record.ID] = record
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read visit records", err)
	}
	if len(records) == 0 {
		return records, nil
	}

	if err := a.attachLineItems(ctx, records, byID); err != nil {
		return nil, err
	}
	return records, nil
}

func (a *VisitRecordAdapter) attachLineItems(ctx context.Context, records []*entities.VisitRecord, byID map[string]*entities.VisitRecord) error {
	ids := make([]string, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}

	query, args, err := a.db.From(lineItemsTable).
		Select(
			"visit_record_id", "line_item", "sub_item", "base_amount",
			"primary_adjustment", "secondary_adjustment", "final_amount",
		).
		Where(goqu.Ex{"visit_record_id": ids}).
		Order(goqu.C("line_item").Asc(), goqu.C("sub_item").Asc()).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build line item query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to get visit line items", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recordID string
		var item entities.VisitLineItemPrice
		if err := rows.Scan(
			&recordID,
			&item.LineItem,
			&item.SubItem,
			&item.BaseAmount,
			&item.PrimaryAdjustment,
			&item.SecondaryAdjustment,
			&item.FinalAmount,
		); err != nil {
			return apperrors.NewInternalError("failed to scan visit line item", err)
		}
		if record, ok := byID[recordID]; ok {
			record.LineItems = append(record.LineItems, item)
		}
	}
	return rows.Err()
}

