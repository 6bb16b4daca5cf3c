package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/recipebox/recipebox/internal/auth"
	"github.com/recipebox/recipebox/internal/model"
	"github.com/recipebox/recipebox/internal/repository"
)

// issuedKey is the --json output of key create.
type issuedKey struct {
	UserID    string   `json:"user_id"`
	Email     string   `json:"email"`
	KeyID     string   `json:"key_id"`
	Key       string   `json:"key"`
	KeyPrefix string   `json:"key_prefix"`
	Scopes    []string `json:"scopes"`
	Tier      string   `json:"rate_limit_tier"`
}

func (c *CLI) keyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage API keys",
	}
	cmd.AddCommand(c.keyCreateCommand())
	cmd.AddCommand(c.keyListCommand())
	cmd.AddCommand(c.keyRevokeCommand())
	return cmd
}

func (c *CLI) keyCreateCommand() *cobra.Command {
	var (
		email, scopesInput, name, tier string
		testKey, asJSON                bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Issue an API key for a user; the key is printed once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := normalizeEmail(email)
			if err != nil {
				return err
			}
			scopes, err := model.ParseScopes(scopesInput)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrUsage, err)
			}
			if _, ok := model.TierConfigs[tier]; !ok {
				return fmt.Errorf("%w: unknown tier %q", ErrUsage, tier)
			}

			env := auth.EnvLive
			if testKey {
				env = auth.EnvTest
			}

			return c.withBackend(cmd.Context(), func(b *Backend) error {
				user, err := lookupUser(cmd.Context(), b.Store, addr)
				if err != nil {
					return err
				}

				generated, err := c.Params.GenerateAPIKey(env)
				if err != nil {
					return fmt.Errorf("generate api key: %w", err)
				}

				key := &model.APIKey{
					ID:            ulid.Make().String(),
					UserID:        user.ID,
					KeyHash:       generated.Hash,
					KeyPrefix:     generated.Prefix,
					Scopes:        scopes,
					RateLimitTier: tier,
					Name:          name,
					CreatedAt:     time.Now().UTC(),
				}
				if err := b.Store.CreateAPIKey(cmd.Context(), key); err != nil {
					return fmt.Errorf("create api key: %w", err)
				}
				c.Logger.Info("api key issued", "key_id", key.ID, "user_id", user.ID, "prefix", key.KeyPrefix)

				if asJSON {
					enc := json.NewEncoder(c.Out)
					enc.SetIndent("", "  ")
					return enc.Encode(issuedKey{
						UserID:    user.ID,
						Email:     user.Email,
						KeyID:     key.ID,
						Key:       generated.Plaintext,
						KeyPrefix: key.KeyPrefix,
						Scopes:    key.Scopes,
						Tier:      key.RateLimitTier,
					})
				}
				fmt.Fprintln(c.Out, generated.Plaintext)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "owner email (required)")
	cmd.Flags().StringVar(&scopesInput, "scopes", "read,write", "comma-separated scopes ("+strings.Join(model.ValidScopes, ",")+")")
	cmd.Flags().StringVar(&name, "name", "", "label for the key")
	cmd.Flags().StringVar(&tier, "tier", model.TierFree, "rate limit tier (free, pro, unlimited)")
	cmd.Flags().BoolVar(&testKey, "test", false, "issue an rb_test_ key")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the key and its metadata as JSON")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *CLI) keyListCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := normalizeEmail(email)
			if err != nil {
				return err
			}

			return c.withBackend(cmd.Context(), func(b *Backend) error {
				user, err := lookupUser(cmd.Context(), b.Store, addr)
				if err != nil {
					return err
				}
				keys, err := b.Store.ListAPIKeysByUserID(cmd.Context(), user.ID)
				if err != nil {
					return fmt.Errorf("list api keys: %w", err)
				}

				tw := tabwriter.NewWriter(c.Out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tPREFIX\tNAME\tSCOPES\tTIER\tSTATUS\tLAST USED")
				for _, k := range keys {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
						k.ID, k.KeyPrefix, orDash(k.Name), strings.Join(k.Scopes, ","),
						k.RateLimitTier, keyStatus(k), formatTime(k.LastUsedAt))
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "owner email (required)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *CLI) keyRevokeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <key-id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return c.withBackend(cmd.Context(), func(b *Backend) error {
				if err := b.Store.RevokeAPIKey(cmd.Context(), id); err != nil {
					if errors.Is(err, repository.ErrAPIKeyNotFound) {
						return fmt.Errorf("api key %s not found or already revoked", id)
					}
					return fmt.Errorf("revoke api key: %w", err)
				}

				if b.Keys != nil {
					if err := b.Keys.InvalidateAPIKey(cmd.Context(), id); err != nil {
						c.Logger.Warn("cached credentials not invalidated; they expire with the cache TTL", "key_id", id, "error", err)
					}
				}

				c.Logger.Info("api key revoked", "key_id", id)
				fmt.Fprintf(c.Out, "revoked %s\n", id)
				return nil
			})
		},
	}
}

func lookupUser(ctx context.Context, store Store, email string) (*model.User, error) {
	user, err := store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("no user with email %s", email)
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}
	return user, nil
}

func keyStatus(k *model.APIKey) string {
	if k.IsRevoked() {
		return "revoked"
	}
	return "active"
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
