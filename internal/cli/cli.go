package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/alim-webecc/ha-tms/internal/app"
	"github.com/alim-webecc/ha-tms/internal/migration"
	"github.com/alim-webecc/ha-tms/internal/seeder"
	ordersvc "github.com/alim-webecc/ha-tms/internal/service/order"
	"github.com/alim-webecc/ha-tms/pkg/format"
)

// NewRootCommand builds the root tms CLI command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "tms",
		Short: "Freight order management toolkit",
	}

	root.AddCommand(newStartCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newOrdersCmd())
	root.AddCommand(newWorkerCmd())

	return root
}

// Execute runs the tms CLI.
func Execute() error {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "start",
		Aliases: []string{"run"},
		Short:   "Run the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			application := fx.New(app.Module)
			if err := application.Start(cmd.Context()); err != nil {
				return err
			}
			<-cmd.Context().Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return application.Stop(stopCtx)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mig *migration.Migrator
			opts := fx.Options(app.Core, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := mig.Up(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			all, _ := cmd.Flags().GetBool("all")
			var mig *migration.Migrator
			opts := fx.Options(app.Core, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := mig.Down(ctx, steps, all); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
				return nil
			})
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migration steps to rollback")
	downCmd.Flags().Bool("all", false, "Rollback all applied migrations")

	cmd.AddCommand(upCmd, downCmd)
	return cmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Run database seeders",
		RunE: func(cmd *cobra.Command, args []string) error {
			var seed *seeder.Seeder
			opts := fx.Options(app.Core, seeder.Module, fx.Populate(&seed))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := seed.Orders(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "seed data applied")
				return nil
			})
		},
	}
}

func newOrdersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Inspect freight orders",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List orders for a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant, _ := cmd.Flags().GetString("tenant")
			status, _ := cmd.Flags().GetString("status")
			limit, _ := cmd.Flags().GetInt("limit")

			req := ordersvc.ListRequest{
				TenantID: tenant,
				Status:   status,
			}
			if cmd.Flags().Changed("limit") {
				req.Limit = &limit
			}

			var svc *ordersvc.Service
			opts := fx.Options(app.Core, fx.Populate(&svc))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				orders, err := svc.List(ctx, req)
				if err != nil {
					return err
				}
				for _, order := range orders {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %-15s  %s -> %s  %s\n",
						format.OrderNumber(order.OrderNumber),
						order.Status,
						deref(order.FromZip),
						deref(order.ToZip),
						format.EUR(order.PriceCustomer),
					)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d orders\n", len(orders))
				return nil
			})
		},
	}
	listCmd.Flags().String("tenant", "", "Tenant to list orders for (defaults to the configured tenant)")
	listCmd.Flags().String("status", "", "Filter by status")
	listCmd.Flags().Int("limit", 0, "Maximum number of orders to print")

	getCmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Show a single order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid order id %q", args[0])
			}

			var svc *ordersvc.Service
			opts := fx.Options(app.Core, fx.Populate(&svc))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				order, err := svc.MustGet(ctx, id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "order    %s\n", format.OrderNumber(order.OrderNumber))
				fmt.Fprintf(out, "status   %s\n", order.Status)
				fmt.Fprintf(out, "shipper  %s\n", deref(order.Shipper))
				fmt.Fprintf(out, "carrier  %s\n", deref(order.Carrier))
				fmt.Fprintf(out, "route    %s -> %s\n", deref(order.FromZip), deref(order.ToZip))
				fmt.Fprintf(out, "pickup   %s\n", format.Date(order.PickupDate))
				fmt.Fprintf(out, "dropoff  %s\n", format.Date(order.DropoffDate))
				fmt.Fprintf(out, "revenue  %s\n", format.EUR(order.PriceCustomer))
				fmt.Fprintf(out, "cost     %s\n", format.EUR(order.PriceCarrier))
				fmt.Fprintf(out, "tenant   %s\n", order.TenantID)
				return nil
			})
		},
	}

	cmd.AddCommand(listCmd, getCmd)
	return cmd
}

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage background workers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run worker engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			application := fx.New(app.Worker)
			if err := application.Start(cmd.Context()); err != nil {
				return err
			}
			<-cmd.Context().Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return application.Stop(stopCtx)
		},
	})
	return cmd
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func runWithApp(ctx context.Context, opts fx.Option, fn func(context.Context) error) error {
	application := fx.New(opts, fx.NopLogger)
	if err := application.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = application.Stop(stopCtx)
	}()
	return fn(ctx)
}
