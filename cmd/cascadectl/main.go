package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/adapters/catalog"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/application/services"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/infrastructure/observability"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("CASCADE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:           "cascadectl",
		Short:         "Inspect clinical catalogs, cascades and pricing from the command line",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			observability.InitLoggerWithWriter("cascadectl", v.GetString("env"), cmd.ErrOrStderr())
			if file := v.GetString("config"); file != "" {
				v.SetConfigFile(file)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("failed to read config %s: %w", file, err)
				}
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("catalog", "", "path to a YAML catalog (defaults to the embedded catalog)")
	flags.String("config", "", "optional YAML file with cascadectl settings")
	flags.String("env", "production", "logging environment (development enables console output)")
	_ = v.BindPFlag("catalog", flags.Lookup("catalog"))
	_ = v.BindPFlag("config", flags.Lookup("config"))
	_ = v.BindPFlag("env", flags.Lookup("env"))

	rootCmd.AddCommand(validateCmd(v))
	rootCmd.AddCommand(resolveCmd(v))
	rootCmd.AddCommand(priceCmd(v))
	return rootCmd
}

// loadCatalog reads the catalog named by the "catalog" setting
func loadCatalog(ctx context.Context, v *viper.Viper) (*services.Catalog, error) {
	return services.LoadCatalog(ctx, catalog.NewYAMLCatalogAdapter(v.GetString("catalog")))
}

func writeJSON(w io.Writer, value interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
