package main

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/application/services"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
)

type catalogSummary struct {
	Version           string `json:"version"`
	Diagnoses         int    `json:"diagnoses"`
	Surgeries         int    `json:"surgeries"`
	AdjustmentOptions int    `json:"adjustment_options"`
}

func validateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate a catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			refCatalog, err := loadCatalog(cmd.Context(), v)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), catalogSummary{
				Version:           refCatalog.Version(),
				Diagnoses:         len(refCatalog.Diagnoses()),
				Surgeries:         len(refCatalog.Surgeries()),
				AdjustmentOptions: len(refCatalog.Options()),
			})
		},
	}
}

type scopedResult struct {
	SourceType    entities.SourceType     `json:"source_type"`
	SourceID      string                  `json:"source_id"`
	Complications []entities.Complication `json:"complications"`
}

func resolveCmd(v *viper.Viper) *cobra.Command {
	var (
		diagnoses     []string
		surgeries     []string
		complications []string
		day           string
		category      string
		scope         string
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve complications, investigations and medications for a selection",
		Long: "Resolve runs a selection through the cascade. With --scope type/id it lists\n" +
			"every complication of that one source instead.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			refCatalog, err := loadCatalog(cmd.Context(), v)
			if err != nil {
				return err
			}
			resolver := services.NewCascadeResolver(refCatalog)

			if scope != "" {
				sourceType, sourceID, err := parseScope(scope)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), scopedResult{
					SourceType:    sourceType,
					SourceID:      sourceID,
					Complications: resolver.ScopedComplications(sourceType, sourceID),
				})
			}

			store := services.NewSelectionStore("cli", "")
			events := make([]entities.SelectionEvent, 0, len(diagnoses)+len(surgeries)+len(complications)+2)
			for _, id := range diagnoses {
				events = append(events, entities.SelectionEvent{Type: entities.SelectionEventSelectDiagnosis, ID: id})
			}
			for _, id := range surgeries {
				events = append(events, entities.SelectionEvent{Type: entities.SelectionEventSelectSurgery, ID: id})
			}
			for _, id := range complications {
				events = append(events, entities.SelectionEvent{Type: entities.SelectionEventToggleComplication, ID: id, Checked: true})
			}
			if day != "" {
				events = append(events, entities.SelectionEvent{Type: entities.SelectionEventSetActiveDay, Day: day})
			}
			if category != "" {
				events = append(events, entities.SelectionEvent{Type: entities.SelectionEventSetInvestigationFilter, Category: category})
			}
			for _, event := range events {
				if _, err := store.Apply(event); err != nil {
					return err
				}
			}

			return writeJSON(cmd.OutOrStdout(), resolver.Derive(store.Snapshot()))
		},
	}

	cmd.Flags().StringSliceVar(&diagnoses, "diagnosis", nil, "selected diagnosis id (repeatable)")
	cmd.Flags().StringSliceVar(&surgeries, "surgery", nil, "selected surgery id (repeatable)")
	cmd.Flags().StringSliceVar(&complications, "complication", nil, "checked complication id (repeatable)")
	cmd.Flags().StringVar(&day, "day", "", "active treatment day (D1-D4)")
	cmd.Flags().StringVar(&category, "category", "", "investigation category filter (lab or radiology)")
	cmd.Flags().StringVar(&scope, "scope", "", "list all complications of one source, as diagnosis/<id> or surgery/<id>")
	return cmd
}

func parseScope(scope string) (entities.SourceType, string, error) {
	kind, id, ok := strings.Cut(scope, "/")
	sourceType, valid := entities.ParseSourceType(kind)
	id = strings.TrimSpace(id)
	if !ok || !valid || id == "" {
		return "", "", fmt.Errorf("scope must look like diagnosis/<id> or surgery/<id>, got %q", scope)
	}
	return sourceType, id, nil
}

type priceResult struct {
	BaseAmount          decimal.Decimal `json:"base_amount"`
	PrimaryAdjustment   string          `json:"primary_adjustment"`
	SecondaryAdjustment string          `json:"secondary_adjustment"`
	entities.PricingResult
}

func priceCmd(v *viper.Viper) *cobra.Command {
	var (
		base      string
		primary   string
		secondary string
	)

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Compute an adjusted price for one line item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(strings.TrimSpace(base))
			if err != nil {
				return fmt.Errorf("invalid --base %q: %w", base, err)
			}
			if amount.IsNegative() {
				return fmt.Errorf("--base must not be negative")
			}

			refCatalog, err := loadCatalog(cmd.Context(), v)
			if err != nil {
				return err
			}
			pricing := services.NewPricingAdjuster(refCatalog)
			adj := entities.PricingAdjustment{BaseAmount: amount, Primary: primary, Secondary: secondary}
			adj.Secondary = pricing.EffectiveSecondary(adj)

			return writeJSON(cmd.OutOrStdout(), priceResult{
				BaseAmount:          amount,
				PrimaryAdjustment:   adj.Primary,
				SecondaryAdjustment: adj.Secondary,
				PricingResult:       pricing.Compute(adj),
			})
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "base amount")
	cmd.Flags().StringVar(&primary, "primary", entities.OptionNone, "primary adjustment option id")
	cmd.Flags().StringVar(&secondary, "secondary", entities.OptionNone, "secondary adjustment option id")
	_ = cmd.MarkFlagRequired("base")
	return cmd
}
