package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bilancio/internal/auth"
	"bilancio/internal/backend"
	"bilancio/internal/core"
	"bilancio/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := appConfig(viper.GetViper())
			bcfg, err := backend.FromAppConfig(cfg)
			if err != nil {
				return err
			}
			if err := backend.Migrate(bcfg); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied (%s)\n", bcfg.Type)
			return nil
		},
	}
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var username, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore(store)

			u, err := createUser(cmd, store, username, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d)\n", u.Username, u.ID)
			return nil
		},
	}
	create.Flags().StringVar(&username, "username", "", "username")
	create.Flags().StringVar(&password, "password", "", "password")
	_ = create.MarkFlagRequired("username")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}

func createUser(cmd *cobra.Command, users storage.UserStore, username, password string) (core.User, error) {
	name, err := core.ValidateUsername(username)
	if err != nil {
		return core.User{}, err
	}
	hash, err := auth.HashPassword(password, 0)
	if err != nil {
		return core.User{}, err
	}
	u, err := users.CreateUser(cmd.Context(), name, hash)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func categoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage global categories",
	}

	var name, kind string
	add := &cobra.Command{
		Use:   "add-global",
		Short: "Add a category visible to every user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := core.ParseEntryType(kind)
			if err != nil {
				return err
			}
			store, _, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore(store)

			c, err := store.CreateGlobalCategory(cmd.Context(), name, k)
			if err != nil {
				return fmt.Errorf("create category: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created global category %q (%s, id %d)\n", c.Name, c.Kind.Label(), c.ID)
			return nil
		},
	}
	add.Flags().StringVar(&name, "name", "", "category name")
	add.Flags().StringVar(&kind, "kind", string(core.Expense), "category kind (IN or EX)")
	_ = add.MarkFlagRequired("name")

	cmd.AddCommand(add)
	return cmd
}

func closeStore(store storage.Store) {
	if err := store.Close(); err != nil {
		slog.Error("failed to close storage", "error", err)
	}
}
