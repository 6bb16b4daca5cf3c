package cli

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/recipebox/recipebox/internal/model"
	"github.com/recipebox/recipebox/internal/repository"
)

const minPasswordLength = 8

func (c *CLI) userCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(c.userCreateCommand())
	return cmd
}

func (c *CLI) userCreateCommand() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := normalizeEmail(email)
			if err != nil {
				return err
			}
			if len(password) < minPasswordLength {
				return fmt.Errorf("%w: password must be at least %d characters", ErrUsage, minPasswordLength)
			}

			hash, err := c.Params.Hash(password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}

			user := &model.User{
				ID:           ulid.Make().String(),
				Email:        addr,
				PasswordHash: hash,
				CreatedAt:    time.Now().UTC(),
			}

			return c.withBackend(cmd.Context(), func(b *Backend) error {
				if err := b.Store.CreateUser(cmd.Context(), user); err != nil {
					if errors.Is(err, repository.ErrEmailExists) {
						return fmt.Errorf("user %s already exists", addr)
					}
					return fmt.Errorf("create user: %w", err)
				}
				c.Logger.Info("user created", "user_id", user.ID, "email", addr)
				fmt.Fprintln(c.Out, user.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "login email (required)")
	cmd.Flags().StringVar(&password, "password", "", "login password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// normalizeEmail trims and lowercases an address and checks it parses.
func normalizeEmail(raw string) (string, error) {
	addr := strings.ToLower(strings.TrimSpace(raw))
	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != addr {
		return "", fmt.Errorf("%w: invalid email %q", ErrUsage, raw)
	}
	return addr, nil
}
