package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/doralyyyyy/Restaurant-Platform/internal/seed"
)

func newSeedCmd() *cobra.Command {
	var (
		users    int
		rngSeed  int64
		fixture  string
		noImages bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with demo users, restaurants, dishes and orders",
		Long: `Creates demo accounts (password from the fixture), one restaurant per
account with a menu in every default category, and order history over the
last 30 days. Existing users and restaurants are reused.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			fx, err := seed.DefaultFixture()
			if fixture != "" {
				var data []byte
				if data, err = os.ReadFile(fixture); err != nil {
					return err
				}
				fx, err = seed.ParseFixture(data)
			}
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("rand-seed") {
				rngSeed = time.Now().UnixNano()
			}
			opts := seed.Options{Users: users, Seed: rngSeed, Log: app.Log}
			if !noImages {
				opts.Uploads = app.Uploads
			}
			res, err := seed.Generate(cmd.Context(), app.Store, fx, opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %d users, %d restaurants, %d dishes, %d orders\n",
				res.Users, res.Restaurants, res.Dishes, res.Orders)
			fmt.Fprintf(out, "Demo password: %s\n", fx.Password)
			return nil
		},
	}
	cmd.Flags().IntVar(&users, "users", 10, "number of demo users")
	cmd.Flags().Int64Var(&rngSeed, "rand-seed", 0, "random seed for reproducible data")
	cmd.Flags().StringVar(&fixture, "fixture", "", "YAML fixture replacing the built-in names")
	cmd.Flags().BoolVar(&noImages, "no-images", false, "skip generated avatars and logos")
	return cmd
}
