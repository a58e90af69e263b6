package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type clientConfig struct {
	apiBaseURL string
	token      string
}

func newRootCommand() *cobra.Command {
	cfg := &clientConfig{}

	cmd := &cobra.Command{
		Use:           "taskhubctl",
		Short:         "Utility for managing taskhub invitations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfg.apiBaseURL, "api", "http://localhost:8080", "Base URL of the taskhub API")
	cmd.PersistentFlags().StringVar(&cfg.token, "token", os.Getenv("TASKHUB_TOKEN"), "Bearer token for authentication")

	cmd.AddCommand(newInvitationsCommand(cfg))
	return cmd
}

func newInvitationsCommand(cfg *clientConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invitations",
		Short: "Invitation management operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newInvitationsCreateCommand(cfg))
	cmd.AddCommand(newInvitationsRevokeCommand(cfg))
	cmd.AddCommand(newInvitationsPendingCommand(cfg))
	cmd.AddCommand(newInvitationsStatusCommand(cfg))
	return cmd
}

func newInvitationsCreateCommand(cfg *clientConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "create <email>",
		Short: "Invite an email address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			body, err := cfg.do(ctx, http.MethodPost, "/v1/invitations", map[string]string{"email": args[0]})
			if err != nil {
				return err
			}
			var resp struct {
				Invitation invitationRecord `json:"invitation"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "invited %s (id %s)\n", resp.Invitation.Email, resp.Invitation.ID)
			return nil
		},
	}
}

func newInvitationsRevokeCommand(cfg *clientConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <email>",
		Short: "Revoke a pending invitation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			if _, err := cfg.do(ctx, http.MethodDelete, "/v1/invitations/"+url.PathEscape(args[0]), nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked invitation for %s\n", args[0])
			return nil
		},
	}
}

func newInvitationsPendingCommand(cfg *clientConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List pending invitations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			body, err := cfg.do(ctx, http.MethodGet, "/v1/invitations/pending", nil)
			if err != nil {
				return err
			}
			var resp struct {
				Invitations []invitationRecord `json:"invitations"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "EMAIL\tINVITED BY\tINVITED AT")
			for _, inv := range resp.Invitations {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", inv.Email, inv.InvitedByName, inv.InvitedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
}

func newInvitationsStatusCommand(cfg *clientConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "status <email>",
		Short: "Check whether an email is authorized",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			body, err := cfg.do(ctx, http.MethodGet, "/v1/invitations/"+url.PathEscape(args[0])+"/status", nil)
			if err != nil {
				return err
			}
			var resp struct {
				Email        string `json:"email"`
				IsAuthorized bool   `json:"is_authorized"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return err
			}
			if resp.IsAuthorized {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is authorized\n", resp.Email)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is not authorized\n", resp.Email)
			}
			return nil
		},
	}
}

type invitationRecord struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	InvitedByName string    `json:"invited_by_name"`
	InvitedAt     time.Time `json:"invited_at"`
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func (c *clientConfig) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("%s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return raw, nil
}
