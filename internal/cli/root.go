package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/doralyyyyy/Restaurant-Platform/internal/config"
	"github.com/doralyyyyy/Restaurant-Platform/internal/wire"
)

type ctxKey string

const (
	appKey   ctxKey = "app"
	viperKey ctxKey = "viper"
)

// noApp marks commands that only need configuration, not the database.
const noApp = "no-app"

// flagKeys maps command flags onto the config keys they override.
var flagKeys = map[string]string{
	"listen":    "http_addr",
	"log-level": "log.level",
}

// Execute builds the root command and runs it.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the Cobra root command and wires dependencies.
func NewRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:           "restaurant-cli",
		Short:         "Restaurant ordering platform",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if cfgPath != "" {
				v.SetConfigFile(cfgPath)
			}
			if err := config.Load(cmd.Context(), v); err != nil {
				return err
			}
			ctx := context.WithValue(cmd.Context(), viperKey, v)
			if skipsApp(cmd) {
				cmd.SetContext(ctx)
				return nil
			}
			applyConfigFlagOverrides(cmd, v, flagKeys)
			app, err := wire.BuildApp(ctx, v)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(ctx, appKey, app))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app, ok := cmd.Context().Value(appKey).(*wire.App); ok {
				return app.Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (toml)")
	cmd.PersistentFlags().String("log-level", "", "override log.level")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newInitDBCmd())
	cmd.AddCommand(newSeedCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newAdvisorCmd())
	cmd.AddCommand(newReportCmd())
	cmd.AddCommand(newCompletionCmd())

	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Help() }

	return cmd
}

func skipsApp(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "help", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return true
	}
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[noApp] == "true" {
			return true
		}
	}
	return cmd == cmd.Root()
}

func getApp(cmd *cobra.Command) *wire.App {
	v := cmd.Context().Value(appKey)
	if v == nil {
		fmt.Fprintln(os.Stderr, "internal error: app not initialized")
		os.Exit(1)
	}
	return v.(*wire.App)
}

func getViper(cmd *cobra.Command) *viper.Viper {
	if v, ok := cmd.Context().Value(viperKey).(*viper.Viper); ok {
		return v
	}
	return viper.New()
}
