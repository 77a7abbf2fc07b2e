// Package cli реализует команды keyshopctl для обслуживания магазина без запущенного сервера.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmeshcher/keyshop/internal/config"
	"github.com/mmeshcher/keyshop/internal/repository"
	"github.com/mmeshcher/keyshop/internal/service"
)

// RootOptions содержит глобальные флаги всех команд.
type RootOptions struct {
	DatabaseURI string
	StorePath   string
	AuthSecret  string
	Format      string // "json" | "text"

	cfg *config.Config
}

// ValidFormats задаёт допустимые форматы вывода.
var ValidFormats = []string{"text", "json"}

// NewRootCommand создаёт корневую команду keyshopctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "keyshopctl",
		Short: "keyshopctl - license key shop maintenance",
		Long: `Offline maintenance of the license key shop store.

Commands open the same store the server uses (DATABASE_URI or STORE_PATH),
so run them while the server is stopped.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.resolve(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.DatabaseURI, "db", "d", "", "database URI (defaults to DATABASE_URI)")
	cmd.PersistentFlags().StringVarP(&opts.StorePath, "store", "f", "", "JSON store path (defaults to STORE_PATH or database.json)")
	cmd.PersistentFlags().StringVar(&opts.AuthSecret, "secret", "", "token signing secret (defaults to AUTH_SECRET)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewProductsCommand(opts))
	cmd.AddCommand(NewRestockCommand(opts))
	cmd.AddCommand(NewCreditsCommand(opts))
	cmd.AddCommand(NewDiscountCommand(opts))
	cmd.AddCommand(NewOrdersCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))

	return cmd
}

// resolve дополняет незаданные флаги значениями из окружения.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.ParseEnv()
	if err != nil {
		return err
	}
	o.cfg = cfg

	flags := cmd.Flags()
	if !flags.Changed("db") {
		o.DatabaseURI = cfg.DatabaseURI
	}
	if !flags.Changed("store") {
		o.StorePath = cfg.StorePath
	}
	if !flags.Changed("secret") {
		o.AuthSecret = cfg.AuthSecret
	}
	return nil
}

// openService открывает хранилище и создаёт сервис. Закрытие сервиса закрывает хранилище.
func (o *RootOptions) openService(ctx context.Context) (*service.Service, error) {
	repo, err := repository.Open(ctx, o.DatabaseURI, o.StorePath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open store", err)
	}

	maxQuantity := service.DefaultMaxQuantity
	if o.cfg != nil {
		maxQuantity = o.cfg.MaxQuantity
	}

	svc, err := service.NewService(ctx, repo, service.WithMaxQuantity(maxQuantity))
	if err != nil {
		repo.Close()
		return nil, WrapExitError(ExitCommandError, "load store", err)
	}
	return svc, nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
