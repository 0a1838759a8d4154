package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"storefront/internal/app"
	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/modules/auth"
	"storefront/internal/modules/order"
	"storefront/internal/pkg/logger"
	"storefront/internal/repository"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "storectl",
		Short:         "Operator tasks for the storefront backend",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(expireTokensCmd())
	rootCmd.AddCommand(createSuperuserCmd())
	rootCmd.AddCommand(seedOrdersCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// open loads configuration the same way the API server does. Events are
// never published from the CLI.
func open(ctx context.Context) (*app.App, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.EventsEnabled = false
	return app.New(ctx, cfg, logger.New(cfg.AppEnv, cfg.LogLevel))
}

func expireTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire-tokens",
		Short: "Deactivate refresh tokens past their expiry",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Auth.Tokens().ExpireStale(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("deactivated %d expired refresh tokens\n", n)
			return nil
		},
	}
}

func createSuperuserCmd() *cobra.Command {
	var in auth.NewUser
	var role string

	cmd := &cobra.Command{
		Use:   "create-superuser",
		Short: "Create an administrative account",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, ok := domain.ParseRole(role)
			if !ok || r == domain.RoleCommon {
				return fmt.Errorf("role must be admin or superadmin, got %q", role)
			}
			in.Role = r

			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			u, err := a.Auth.CreateUser(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("created %s %q (id %d)\n", u.Role, u.Username, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&in.Username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&in.Email, "email", "e", "", "Email address")
	cmd.Flags().StringVarP(&in.Password, "password", "p", "", "Password")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleSuperAdmin), "Role (admin, superadmin)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func seedOrdersCmd() *cobra.Command {
	var username string
	var count int

	cmd := &cobra.Command{
		Use:   "seed-orders",
		Short: "Place sample orders for an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("count must be positive")
			}
			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			u, err := repository.NewUserRepository(a.DB).GetByUsername(cmd.Context(), username)
			if err != nil {
				return fmt.Errorf("user %q: %w", username, err)
			}

			for i := 0; i < count; i++ {
				o, err := a.Orders.Create(cmd.Context(), u.Identity(), sampleOrder(i))
				if err != nil {
					return err
				}
				fmt.Printf("created order %s total %s\n", o.ID, o.Billing.TotalAmount.StringFixed(2))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Owner of the orders")
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of orders")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func sampleOrder(i int) order.CreateOrderRequest {
	return order.CreateOrderRequest{
		Items: []order.ItemInput{{
			ProductID: int64(1001 + i),
			Name:      fmt.Sprintf("Sample Product %d", i+1),
			Quantity:  2,
			Price:     decimal.RequireFromString("999.99"),
		}},
		ShippingAddress: order.AddressInput{
			FullAddress: "123 Main Street, Apartment 4B",
			City:        "Mumbai",
			State:       "Maharashtra",
			Pincode:     "400001",
		},
		Billing: order.BillingInput{
			Discount:        decimal.RequireFromString("100.00"),
			Tax:             decimal.RequireFromString("180.00"),
			ShippingCharges: decimal.RequireFromString("50.00"),
		},
		Payment: order.PaymentInput{Method: "razorpay", Currency: "INR"},
	}
}
