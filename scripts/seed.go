package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/rs/zerolog/log"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/adapters/catalog"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/application/services"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/infrastructure/clients/postgres"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/infrastructure/observability"
	"github.com/chatgptnotes/adamrit.in-sub001/pkg/config"
)

// Tables are cleared children first and filled parents first
var catalogTables = []string{
	"diagnosis_complications",
	"surgery_complications",
	"complication_investigations",
	"complication_medications",
	"day_medications",
	"adjustment_options",
	"complications",
	"diagnoses",
	"surgeries",
}

func main() {
	var path string
	flag.StringVar(&path, "catalog", "", "YAML catalog to seed from (defaults to the embedded catalog)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-seed", cfg.Server.Env)

	ctx := context.Background()

	data, err := catalog.NewYAMLCatalogAdapter(path).Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read catalog")
	}
	// Reject bad data before touching the database
	if _, err := services.NewCatalog(data); err != nil {
		log.Fatal().Err(err).Msg("catalog is invalid")
	}

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to DB")
	}
	defer pgClient.Close()

	statements, err := seedStatements(data)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build seed statements")
	}

	tx, err := pgClient.BeginTx(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to begin transaction")
	}
	if err := execAll(ctx, tx, statements); err != nil {
		_ = tx.Rollback()
		log.Fatal().Err(err).Msg("failed to seed catalog")
	}
	if err := tx.Commit(); err != nil {
		log.Fatal().Err(err).Msg("failed to commit catalog")
	}

	log.Info().
		Str("version", data.Version).
		Int("diagnoses", len(data.Diagnoses)).
		Int("surgeries", len(data.Surgeries)).
		Msg("catalog seeded")
}

func execAll(ctx context.Context, tx *sql.Tx, statements []string) error {
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

type insert struct {
	table string
	rows  []interface{}
}

func seedStatements(data *entities.CatalogData) ([]string, error) {
	dialect := goqu.Dialect("postgres")
	statements := make([]string, 0, 2*len(catalogTables))

	for _, table := range catalogTables {
		stmt, _, err := dialect.Delete(table).ToSQL()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}

	for _, ins := range catalogInserts(data) {
		if len(ins.rows) == 0 {
			continue
		}
		stmt, _, err := dialect.Insert(ins.table).Rows(ins.rows...).ToSQL()
		if err != nil {
			return nil, fmt.Errorf("failed to build insert for %s: %w", ins.table, err)
		}
		statements = append(statements, stmt)
	}
	return statements, nil
}

func catalogInserts(data *entities.CatalogData) []insert {
	diagnoses := make([]interface{}, 0, len(data.Diagnoses))
	for i, d := range data.Diagnoses {
		diagnoses = append(diagnoses, goqu.Record{"id": d.ID, "name": d.Name, "code": d.Code, "position": i})
	}
	surgeries := make([]interface{}, 0, len(data.Surgeries))
	for i, s := range data.Surgeries {
		surgeries = append(surgeries, goqu.Record{"id": s.ID, "name": s.Name, "code": s.Code, "position": i})
	}

	seen := map[string]bool{}
	var complications []interface{}
	links := func(byID map[string][]entities.Complication, column string) []interface{} {
		var rows []interface{}
		for _, sourceID := range sortedKeys(byID) {
			for i, c := range byID[sourceID] {
				if !seen[c.ID] {
					seen[c.ID] = true
					complications = append(complications, goqu.Record{"id": c.ID, "name": c.Name})
				}
				rows = append(rows, goqu.Record{column: sourceID, "complication_id": c.ID, "position": i})
			}
		}
		return rows
	}
	diagnosisLinks := links(data.DiagnosisComplications, "diagnosis_id")
	surgeryLinks := links(data.SurgeryComplications, "surgery_id")

	var investigations []interface{}
	for _, complicationID := range sortedKeys(data.ComplicationInvestigations) {
		for i, inv := range data.ComplicationInvestigations[complicationID] {
			investigations = append(investigations, goqu.Record{
				"complication_id": complicationID,
				"id":              inv.ID,
				"name":            inv.Name,
				"expected_value":  inv.ExpectedValue,
				"normal_range":    inv.NormalRange,
				"position":        i,
			})
		}
	}

	medication := func(keyColumn, key string, med entities.Medication, position int) goqu.Record {
		return goqu.Record{
			keyColumn:  key,
			"id":       med.ID,
			"name":     med.Name,
			"dosage":   med.Dosage,
			"duration": med.Duration,
			"position": position,
		}
	}
	var complicationMeds []interface{}
	for _, complicationID := range sortedKeys(data.ComplicationMedications) {
		for i, med := range data.ComplicationMedications[complicationID] {
			complicationMeds = append(complicationMeds, medication("complication_id", complicationID, med, i))
		}
	}
	var dayMeds []interface{}
	for _, day := range entities.TreatmentDays {
		for i, med := range data.DayMedications[day] {
			dayMeds = append(dayMeds, medication("day", string(day), med, i))
		}
	}

	options := make([]interface{}, 0, len(data.AdjustmentOptions))
	for i, opt := range data.AdjustmentOptions {
		options = append(options, goqu.Record{
			"id":         opt.ID,
			"label":      opt.Label,
			"percentage": opt.Percentage,
			"kind":       string(opt.Kind),
			"position":   i,
		})
	}

	return []insert{
		{table: "diagnoses", rows: diagnoses},
		{table: "surgeries", rows: surgeries},
		{table: "complications", rows: complications},
		{table: "diagnosis_complications", rows: diagnosisLinks},
		{table: "surgery_complications", rows: surgeryLinks},
		{table: "complication_investigations", rows: investigations},
		{table: "complication_medications", rows: complicationMeds},
		{table: "day_medications", rows: dayMeds},
		{table: "adjustment_options", rows: options},
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
