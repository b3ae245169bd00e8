package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
)

func sampleVisitRecord() *entities.VisitRecord {
	return &entities.VisitRecord{
		ID:               "rec-1",
		VisitID:          "visit-9",
		SessionID:        "sess-1",
		DiagnosisIDs:     []string{"dx-appendicitis"},
		SurgeryIDs:       []string{"sx-lap-appendectomy"},
		ComplicationIDs:  []string{"cx-sepsis"},
		InvestigationIDs: []string{"inv-procalcitonin"},
		MedicationIDs:    []string{"med-paracetamol", "med-meropenem"},
		LineItems: []entities.VisitLineItemPrice{{
			LineItem:            0,
			SubItem:             0,
			BaseAmount:          decimal.NewFromInt(2698),
			PrimaryAdjustment:   "discount_10",
			SecondaryAdjustment: "discount_50",
			FinalAmount:         decimal.NewFromInt(1214),
		}},
		TotalAmount: decimal.NewFromInt(1214),
		FinalizedAt: time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC),
	}
}

func TestVisitRecordAdapter_Create(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "visit_clinical_selections"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "visit_line_item_prices"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewVisitRecordAdapter(client, nil).Create(context.Background(), sampleVisitRecord())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVisitRecordAdapter_CreateWithoutLineItems(t *testing.T) {
	client, mock := newMockClient(t)
	record := sampleVisitRecord()
	record.LineItems = nil

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "visit_clinical_selections"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewVisitRecordAdapter(client, nil).Create(context.Background(), record))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVisitRecordAdapter_CreateRollsBack(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "visit_clinical_selections"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "visit_line_item_prices"`)).WillReturnError(errors.New("check constraint violated"))
	mock.ExpectRollback()

	err := NewVisitRecordAdapter(client, nil).Create(context.Background(), sampleVisitRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create visit line items")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVisitRecordAdapter_GetByVisitID(t *testing.T) {
	client, mock := newMockClient(t)
	finalized := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "visit_clinical_selections"`)).WillReturnRows(
		sqlmock.NewRows([]string{
			"id", "visit_id", "session_id", "diagnosis_ids", "surgery_ids",
			"complication_ids", "investigation_ids", "medication_ids", "total_amount", "finalized_at",
		}).AddRow("rec-1", "visit-9", "sess-1", "{dx-appendicitis}", "{}", "{cx-sepsis}", "{}", "{med-paracetamol,med-meropenem}", "1214", finalized))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "visit_line_item_prices"`)).WillReturnRows(
		sqlmock.NewRows([]string{
			"visit_record_id", "line_item", "sub_item", "base_amount",
			"primary_adjustment", "secondary_adjustment", "final_amount",
		}).AddRow("rec-1", 0, 0, "2698", "discount_10", "discount_50", "1214"))

	records, err := NewVisitRecordAdapter(client, nil).GetByVisitID(context.Background(), "visit-9")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, records, 1)
	record := records[0]
	assert.Equal(t, []string{"dx-appendicitis"}, record.DiagnosisIDs)
	assert.Empty(t, record.SurgeryIDs)
	assert.Equal(t, []string{"med-paracetamol", "med-meropenem"}, record.MedicationIDs)
	assert.True(t, record.TotalAmount.Equal(decimal.NewFromInt(1214)))
	require.Len(t, record.LineItems, 1)
	assert.Equal(t, "discount_50", record.LineItems[0].SecondaryAdjustment)
	assert.True(t, record.LineItems[0].BaseAmount.Equal(decimal.NewFromInt(2698)))
}

func TestVisitRecordAdapter_GetByVisitIDEmpty(t *testing.T) {
	client, mock := newMockClient(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "visit_clinical_selections"`)).WillReturnRows(
		sqlmock.NewRows([]string{"id"}))

	records, err := NewVisitRecordAdapter(client, nil).GetByVisitID(context.Background(), "visit-none")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
	require.NoError(t, mock.ExpectationsWereMet())
}
