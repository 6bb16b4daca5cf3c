package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(c.migrateUpCommand())
	cmd.AddCommand(c.migrateDownCommand())
	cmd.AddCommand(c.migrateStatusCommand())

	return cmd
}

func (c *CLI) migrateUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withBackend(cmd.Context(), func(b *Backend) error {
				applied, err := b.Migrator.Migrate(cmd.Context(), c.Migrations)
				if err != nil {
					return fmt.Errorf("migrate up: %w", err)
				}
				return c.reportVersion(cmd, b, "applied", applied)
			})
		},
	}
}

func (c *CLI) migrateDownCommand() *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Revert applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 0 {
				return fmt.Errorf("%w: --steps must not be negative", ErrUsage)
			}
			return c.withBackend(cmd.Context(), func(b *Backend) error {
				reverted, err := b.Migrator.MigrateDown(cmd.Context(), c.Migrations, steps)
				if err != nil {
					return fmt.Errorf("migrate down: %w", err)
				}
				return c.reportVersion(cmd, b, "reverted", reverted)
			})
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to revert (0 reverts all)")
	return cmd
}

func (c *CLI) migrateStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withBackend(cmd.Context(), func(b *Backend) error {
				version, err := b.Migrator.SchemaVersion(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(c.Out, "schema version %d\n", version)
				return nil
			})
		},
	}
}

func (c *CLI) reportVersion(cmd *cobra.Command, b *Backend, verb string, count int) error {
	version, err := b.Migrator.SchemaVersion(cmd.Context())
	if err != nil {
		return err
	}
	c.Logger.Info("migrations "+verb, "count", count, "version", version)
	fmt.Fprintf(c.Out, "%s %d migration(s), schema version %d\n", verb, count, version)
	return nil
}
