package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/repositories"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/infrastructure/clients/postgres"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/infrastructure/observability"
	apperrors "github.com/chatgptnotes/adamrit.in-sub001/pkg/errors"
)

// CatalogAdapter loads the reference catalog from Postgres. Every table is
// read in "position" order so lists come back as curated.
type CatalogAdapter struct {
	client  *postgres.Client
	db      *goqu.Database
	version string
	metrics *observability.Metrics
}

var _ repositories.CatalogRepository = (*CatalogAdapter)(nil)

// NewCatalogAdapter creates a catalog repository. version labels the loaded
// catalog since the tables carry no version of their own.
func NewCatalogAdapter(client *postgres.Client, version string, metrics *observability.Metrics) *CatalogAdapter {
	return &CatalogAdapter{
		client:  client,
		db:      client.Goqu(),
		version: version,
		metrics: metrics,
	}
}

// Load reads every catalog table
func (a *CatalogAdapter) Load(ctx context.Context) (*entities.CatalogData, error) {
	start := time.Now()
	defer func() { observability.RecordDBMetric(ctx, a.metrics, "catalog_load", time.Since(start)) }()

	data := &entities.CatalogData{
		Version:                    a.version,
		DiagnosisComplications:     make(map[string][]entities.Complication),
		SurgeryComplications:       make(map[string][]entities.Complication),
		ComplicationInvestigations: make(map[string][]entities.Investigation),
		ComplicationMedications:    make(map[string][]entities.Medication),
		DayMedications:             make(map[entities.TreatmentDay][]entities.Medication),
	}

	steps := []func(context.Context, *entities.CatalogData) error{
		a.loadDiagnoses,
		a.loadSurgeries,
		a.loadDiagnosisComplications,
		a.loadSurgeryComplications,
		a.loadInvestigations,
		a.loadComplicationMedications,
		a.loadDayMedications,
		a.loadOptions,
	}
	for _, step := range steps {
		if err := step(ctx, data); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func (a *CatalogAdapter) query(ctx context.Context, ds *goqu.SelectDataset, table string, scan func(*sql.Rows) error) error {
	query, args, err := ds.ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build "+table+" query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to load "+table, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return apperrors.NewInternalError("failed to scan "+table, err)
		}
	}
	if err := rows.Err(); err != nil {
		return apperrors.NewInternalError("failed to read "+table, err)
	}
	return nil
}

func (a *CatalogAdapter) loadDiagnoses(ctx context.Context, data *entities.CatalogData) error {
	ds := a.db.From("diagnoses").
		Select("id", "name", goqu.COALESCE(goqu.C("code"), "")).
		Order(goqu.C("position").Asc())
	return a.query(ctx, ds, "diagnoses", func(rows *sql.Rows) error {
		var d entities.DiagnosisRef
		if err := rows.Scan(&d.ID, &d.Name, &d.Code); err != nil {
			return err
		}
		data.Diagnoses = append(data.Diagnoses, d)
		return nil
	})
}

func (a *CatalogAdapter) loadSurgeries(ctx context.Context, data *entities.CatalogData) error {
	ds := a.db.From("surgeries").
		Select("id", "name", goqu.COALESCE(goqu.C("code"), "")).
		Order(goqu.C("position").Asc())
	return a.query(ctx, ds, "surgeries", func(rows *sql.Rows) error {
		var s entities.SurgeryRef
		if err := rows.Scan(&s.ID, &s.Name, &s.Code); err != nil {
			return err
		}
		data.Surgeries = append(data.Surgeries, s)
		return nil
	})
}

func (a *CatalogAdapter) complicationLinks(table, sourceColumn string) *goqu.SelectDataset {
	return a.db.From(goqu.T(table).As("l")).
		Join(goqu.T("complications").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("l.complication_id")))).
		Select(goqu.I("l."+sourceColumn), goqu.I("c.id"), goqu.I("c.name")).
		Order(goqu.I("l."+sourceColumn).Asc(), goqu.I("l.position").Asc())
}

func (a *CatalogAdapter) loadDiagnosisComplications(ctx context.Context, data *entities.CatalogData) error {
	ds := a.complicationLinks("diagnosis_complications", "diagnosis_id")
	return a.query(ctx, ds, "diagnosis_complications", func(rows *sql.Rows) error {
		var sourceID string
		var c entities.Complication
		if err := rows.Scan(&sourceID, &c.ID, &c.Name); err != nil {
			return err
		}
		data.DiagnosisComplications[sourceID] = append(data.DiagnosisComplications[sourceID], c)
		return nil
	})
}

func (a *CatalogAdapter) loadSurgeryComplications(ctx context.Context, data *entities.CatalogData) error {
	ds := a.complicationLinks("surgery_complications", "surgery_id")
	return a.query(ctx, ds, "surgery_complications", func(rows *sql.Rows) error {
		var sourceID string
		var c entities.Complication
		if err := rows.Scan(&sourceID, &c.ID, &c.Name); err != nil {
			return err
		}
		data.SurgeryComplications[sourceID] = append(data.SurgeryComplications[sourceID], c)
		return nil
	})
}

func (a *CatalogAdapter) loadInvestigations(ctx context.Context, data *entities.CatalogData) error {
	ds := a.db.From("complication_investigations").
		Select(
			"complication_id", "id", "name",
			goqu.COALESCE(goqu.C("expected_value"), ""),
			goqu.COALESCE(goqu.C("normal_range"), ""),
		).
		Order(goqu.C("complication_id").Asc(), goqu.C("position").Asc())
	return a.query(ctx, ds, "complication_investigations", func(rows *sql.Rows) error {
		var complicationID string
		var inv entities.Investigation
		if err := rows.Scan(&complicationID, &inv.ID, &inv.Name, &inv.ExpectedValue, &inv.NormalRange); err != nil {
			return err
		}
		data.ComplicationInvestigations[complicationID] = append(data.ComplicationInvestigations[complicationID], inv)
		return nil
	})
}

func medicationColumns(keyColumn string) []interface{} {
	return []interface{}{
		keyColumn, "id", "name",
		goqu.COALESCE(goqu.C("dosage"), ""),
		goqu.COALESCE(goqu.C("duration"), ""),
	}
}

func (a *CatalogAdapter) loadComplicationMedications(ctx context.Context, data *entities.CatalogData) error {
	ds := a.db.From("complication_medications").
		Select(medicationColumns("complication_id")...).
		Order(goqu.C("complication_id").Asc(), goqu.C("position").Asc())
	return a.query(ctx, ds, "complication_medications", func(rows *sql.Rows) error {
		var complicationID string
		var med entities.Medication
		if err := rows.Scan(&complicationID, &med.ID, &med.Name, &med.Dosage, &med.Duration); err != nil {
			return err
		}
		data.ComplicationMedications[complicationID] = append(data.ComplicationMedications[complicationID], med)
		return nil
	})
}

func (a *CatalogAdapter) loadDayMedications(ctx context.Context, data *entities.CatalogData) error {
	ds := a.db.From("day_medications").
		Select(medicationColumns("day")...).
		Order(goqu.C("day").Asc(), goqu.C("position").Asc())
	return a.query(ctx, ds, "day_medications", func(rows *sql.Rows) error {
		var day string
		var med entities.Medication
		if err := rows.Scan(&day, &med.ID, &med.Name, &med.Dosage, &med.Duration); err != nil {
			return err
		}
		key := entities.TreatmentDay(day)
		data.DayMedications[key] = append(data.DayMedications[key], med)
		return nil
	})
}

func (a *CatalogAdapter) loadOptions(ctx context.Context, data *entities.CatalogData) error {
	ds := a.db.From("adjustment_options").
		Select("id", "label", "percentage", "kind").
		Order(goqu.C("position").Asc())
	return a.query(ctx, ds, "adjustment_options", func(rows *sql.Rows) error {
		var opt entities.AdjustmentOption
		var kind string
		if err := rows.Scan(&opt.ID, &opt.Label, &opt.Percentage, &kind); err != nil {
			return err
		}
		opt.Kind = entities.AdjustmentKind(kind)
		data.AdjustmentOptions = append(data.AdjustmentOptions, opt)
		return nil
	})
}
