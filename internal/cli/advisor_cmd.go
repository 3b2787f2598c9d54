package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAdvisorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "advisor",
		Short: "Ask the menu advisor from the terminal",
	}
	cmd.AddCommand(newAdvisorAskCmd())
	cmd.AddCommand(newAdvisorContextCmd())
	return cmd
}

func newAdvisorAskCmd() *cobra.Command {
	var restaurant string
	var dishID int64
	cmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Ask as the owner, or as a customer viewing --dish",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			ctx := cmd.Context()
			r, err := findRestaurant(ctx, app.Store, restaurant)
			if err != nil {
				return err
			}
			question := strings.Join(args, " ")

			var answer string
			if dishID > 0 {
				d, err := findDish(ctx, app.Store, r, dishID)
				if err != nil {
					return err
				}
				answer, err = app.Advisor.AskCustomer(ctx, r, d, question)
				if err != nil {
					return err
				}
			} else if answer, err = app.Advisor.AskOwner(ctx, r, question); err != nil {
				return err
			}
			return writeMarkdown(cmd.OutOrStdout(), answer)
		},
	}
	cmd.Flags().StringVarP(&restaurant, "restaurant", "r", "", "restaurant id or name")
	cmd.Flags().Int64Var(&dishID, "dish", 0, "ask as a customer looking at this dish")
	return cmd
}

// newAdvisorContextCmd prints the data block the advisor sends with a
// question, without calling the model.
func newAdvisorContextCmd() *cobra.Command {
	var restaurant string
	var menu bool
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Print the sales data the advisor sees",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			ctx := cmd.Context()
			r, err := findRestaurant(ctx, app.Store, restaurant)
			if err != nil {
				return err
			}
			stats := app.Advisor.RestaurantStatsText
			if menu {
				stats = app.Advisor.MenuStatsText
			}
			text, err := stats(ctx, r)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().StringVarP(&restaurant, "restaurant", "r", "", "restaurant id or name")
	cmd.Flags().BoolVar(&menu, "menu", false, "print the customer-facing menu data instead")
	return cmd
}
