package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/export"
	"budget/internal/log"
)

func newSummaryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print budget, expenses, total spent and remaining",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			sum, err := a.svc.Summary(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), RenderSummary(sum, core.NewAmountFormatter(a.cfg.Locale)))
			return nil
		},
	}
}

func newSetBudgetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-budget <amount>",
		Short: "Replace the total budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := core.ParseAmount(args[0])
			if err != nil {
				return fmt.Errorf("amount %q: %w", args[0], err)
			}

			a, err := bootstrap(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.svc.SetBudget(cmd.Context(), amount); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Budget set to %s\n", core.NewAmountFormatter(a.cfg.Locale).Format(amount))
			return nil
		},
	}
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <description> <amount>",
		Short: "Record an expense",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := core.ParseAmount(args[1])
			if err != nil {
				return fmt.Errorf("amount %q: %w", args[1], err)
			}

			a, err := bootstrap(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := a.svc.AddExpense(cmd.Context(), args[0], amount)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s) id=%s\n", e.Description, core.NewAmountFormatter(a.cfg.Locale).Format(e.Amount), e.ID)
			return nil
		},
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the expenses to an Excel workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			sum, err := a.svc.Summary(cmd.Context())
			if err != nil {
				return err
			}
			data, err := export.ExpensesXLSX(sum)
			if err != nil {
				return fmt.Errorf("build workbook: %w", err)
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			a.logger.WithComponent(log.ComponentExport).Info("Budget exported",
				log.FieldFile, output,
				log.FieldExpenseCount, len(sum.Expenses))
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d expenses to %s\n", len(sum.Expenses), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "budget.xlsx", "Output file")
	return cmd
}

func newEventsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Consume and print budget change events from the broker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.backend.Events == nil {
				return fmt.Errorf("events require a reachable broker; set AMQP_URL")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.logger.WithComponent(log.ComponentCLI).Info("Listening for budget events",
				"exchange", a.cfg.AMQPExchange,
				"queue", a.cfg.AMQPQueue)

			out := cmd.OutOrStdout()
			err = a.backend.Events.ConsumeBudgetEvents(ctx, func(_ context.Context, ev *amqp.BudgetEvent) error {
				_, err := fmt.Fprintln(out, formatEvent(ev))
				return err
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func formatEvent(ev *amqp.BudgetEvent) string {
	line := fmt.Sprintf("%s %-15s budget=%s remaining=%s", ev.Timestamp.Format("2006-01-02T15:04:05Z07:00"), ev.Type, ev.Budget, ev.Remaining)
	if ev.ExpenseID != "" {
		line += fmt.Sprintf(" expense=%s %q amount=%s", ev.ExpenseID, ev.Description, ev.Amount)
	}
	if ev.RemainingDecimal().IsNegative() {
		line += " OVERSPENT"
	}
	return line
}
