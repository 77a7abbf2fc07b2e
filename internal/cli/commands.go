package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmeshcher/keyshop/internal/catalog"
	"github.com/mmeshcher/keyshop/internal/middleware"
	"github.com/mmeshcher/keyshop/internal/model"
	"github.com/mmeshcher/keyshop/internal/service"
)

// NewTokenCommand создаёт команду выпуска токена пользователя для HTTP API.
func NewTokenCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "token <user-id>",
		Short:        "Issue a signed API token for a user",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.AuthSecret == "" {
				return WrapExitError(ExitCommandError, "token", errors.New("AUTH_SECRET or --secret is required"))
			}

			token := middleware.NewAuthMiddleware(opts.AuthSecret, nil).Token(args[0])
			return opts.formatter(cmd).Success(token, map[string]string{"user_id": args[0], "token": token})
		},
	}
}

// NewProductsCommand создаёт команду вывода витрины.
func NewProductsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "products",
		Short:        "List products with stock",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			products := svc.ListProducts(cmd.Context())

			var sb strings.Builder
			tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPRICE\tDAYS\tSTOCK")
			for _, p := range products {
				days := strconv.Itoa(p.DurationDays)
				if p.Unlimited {
					days = "lifetime"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\n", p.ID, p.Name, p.BasePrice, days, p.Stock)
			}
			tw.Flush()

			return opts.formatter(cmd).Success(strings.TrimRight(sb.String(), "\n"), products)
		},
	}
}

// NewRestockCommand создаёт команду загрузки ключей из файла или stdin.
func NewRestockCommand(opts *RootOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "restock <product-id> [keys-file]",
		Short: "Add keys to a product, one key per line",
		Long: `Add keys to a product, one key per line.

Keys are read from keys-file or from stdin when the file is omitted or "-".
Blank lines are skipped. Unknown products are created with price 0.`,
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) == 2 && args[1] != "-" {
				data, err = os.ReadFile(args[1])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return WrapExitError(ExitCommandError, "read keys", err)
			}

			svc, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			res, err := svc.Restock(cmd.Context(), args[0], name, []string{string(data)})
			if err != nil {
				return serviceError("restock", err)
			}

			text := fmt.Sprintf("added %d keys to %s, stock %d", res.Added, res.ProductID, res.Stock)
			return opts.formatter(cmd).Success(text, res)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "product name when the product is created")

	return cmd
}

// NewCreditsCommand создаёт команды изменения баланса.
func NewCreditsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credits",
		Short: "Change user balances",
	}

	cmd.AddCommand(newCreditsSubcommand(opts, "add", "Add credits (negative amount deducts)", (*service.Service).AddCredits))
	cmd.AddCommand(newCreditsSubcommand(opts, "set", "Overwrite the balance", (*service.Service).SetCredits))

	return cmd
}

type creditsFunc func(svc *service.Service, ctx context.Context, userID string, amount int64) (model.Balance, error)

func newCreditsSubcommand(opts *RootOptions, use, short string, apply creditsFunc) *cobra.Command {
	return &cobra.Command{
		Use:          use + " <user-id> <amount>",
		Short:        short,
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return WrapExitError(ExitCommandError, "amount", err)
			}

			svc, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			balance, err := apply(svc, cmd.Context(), args[0], amount)
			if err != nil {
				return serviceError("credits "+use, err)
			}

			text := fmt.Sprintf("user %s: %d credits", args[0], balance.Credits)
			return opts.formatter(cmd).Success(text, balance)
		},
	}
}

// NewDiscountCommand создаёт команду установки скидки.
func NewDiscountCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "discount <user-id> <percent>",
		Short:        "Set a personal discount from 0 to 100 percent",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			percent, err := strconv.Atoi(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "percent", err)
			}

			svc, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			balance, err := svc.SetDiscount(cmd.Context(), args[0], percent)
			if err != nil {
				return serviceError("discount", err)
			}

			text := fmt.Sprintf("user %s: discount %d%%", args[0], balance.DiscountPercent)
			return opts.formatter(cmd).Success(text, balance)
		},
	}
}

// NewOrdersCommand создаёт команду вывода заказов пользователя или одного заказа.
func NewOrdersCommand(opts *RootOptions) *cobra.Command {
	var orderID string

	cmd := &cobra.Command{
		Use:          "orders [user-id]",
		Short:        "List orders of a user, newest first, or show one order with --id",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if orderID == "" && len(args) == 0 {
				return WrapExitError(ExitCommandError, "orders", errors.New("user id or --id is required"))
			}

			svc, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			if orderID != "" {
				o, err := svc.GetOrder(cmd.Context(), orderID)
				if err != nil {
					return serviceError("order", err)
				}
				text := fmt.Sprintf("%s user=%s product=%s qty=%d total=%d keys=%s",
					o.ID, o.UserID, o.ProductID, o.Quantity, o.TotalPrice, strings.Join(o.Keys, ","))
				return opts.formatter(cmd).Success(text, o)
			}

			orders, err := svc.ListOrders(cmd.Context(), args[0])
			if err != nil {
				return serviceError("orders", err)
			}

			var sb strings.Builder
			tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ORDER\tCREATED\tPRODUCT\tQTY\tTOTAL")
			for _, o := range orders {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", o.ID, o.CreatedAt.Format("2006-01-02 15:04"), o.ProductID, o.Quantity, o.TotalPrice)
			}
			tw.Flush()

			return opts.formatter(cmd).Success(strings.TrimRight(sb.String(), "\n"), orders)
		},
	}

	cmd.Flags().StringVar(&orderID, "id", "", "order id")

	return cmd
}

// NewCatalogCommand создаёт команду синхронизации каталога.
func NewCatalogCommand(opts *RootOptions) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:          "catalog",
		Short:        "Upsert catalog products into the store",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" && opts.cfg != nil {
				path = opts.cfg.CatalogPath
			}

			cat := catalog.Default()
			if path != "" {
				var err error
				if cat, err = catalog.Load(path); err != nil {
					return WrapExitError(ExitCommandError, "catalog", err)
				}
			}

			svc, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			items := cat.Items()
			if err := svc.SyncCatalog(cmd.Context(), items); err != nil {
				return serviceError("catalog", err)
			}

			return opts.formatter(cmd).Success(fmt.Sprintf("synced %d products", len(items)), items)
		},
	}

	cmd.Flags().StringVarP(&path, "catalog", "c", "", "catalog YAML (defaults to CATALOG_PATH or the embedded catalog)")

	return cmd
}

// serviceError отделяет ошибки ввода от отказов и сбоев хранилища.
func serviceError(op string, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidArgument), errors.Is(err, service.ErrPersistenceFailure):
		return WrapExitError(ExitCommandError, op, err)
	default:
		return WrapExitError(ExitFailure, op, err)
	}
}
