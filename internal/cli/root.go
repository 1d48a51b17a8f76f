// Package cli implements guardianctl, a command line client for the timer
// API.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/themattbirch/screen-time-guardian/internal/model"
)

const (
	defaultServer = "http://localhost:8080"
	tokenEnv      = "GUARDIAN_TOKEN"
	serverEnv     = "GUARDIAN_SERVER"
)

type options struct {
	server string
	token  string
}

// NewRootCommand builds the guardianctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "guardianctl",
		Short:         "Control your Screen Time Guardian timer from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.server, "server", envOr(serverEnv, defaultServer), "API base URL")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv(tokenEnv), "bearer token (defaults to $"+tokenEnv+")")

	root.AddCommand(
		newAuthCommand("register", "Create an account and print its token", opts),
		newAuthCommand("login", "Log in and print a token", opts),
		newWhoamiCommand(opts),
		newStatusCommand(opts),
		newVerbCommand("start", "Start or restart the timer", opts),
		newVerbCommand("pause", "Pause the running timer", opts),
		newVerbCommand("resume", "Resume a paused timer", opts),
		newResetCommand(opts),
		newStatsCommand(opts),
	)
	return root
}

// Execute runs guardianctl and exits with code 1 on error.
func Execute() {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "error:", err)
		os.Exit(1)
	}
}

func (o *options) client() (*Client, error) {
	if o.token == "" {
		return nil, errors.New("not logged in: pass --token or set " + tokenEnv)
	}
	return NewClient(o.server, o.token), nil
}

func newAuthCommand(name, short string, opts *options) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = promptPassword(cmd); err != nil {
					return err
				}
			}
			client := NewClient(opts.server, "")
			call := client.Login
			if name == "register" {
				call = client.Register
			}
			result, err := call(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "logged in as %s\n", result.User.Email)
			fmt.Fprintf(out, "export %s=%s\n", tokenEnv, result.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// promptPassword reads a password without echo. It refuses to block on
// input that is not a terminal.
func promptPassword(cmd *cobra.Command) (string, error) {
	in, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(in.Fd())) {
		return "", errors.New("password required: pass --password or run from a terminal")
	}
	fd := int(in.Fd())
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	pass, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(pass)), nil
}

func newWhoamiCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the account behind the current token",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			user, err := client.Me(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), user.Email)
			return nil
		},
	}
}

func newStatusCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			// Reconcile first so a session that expired while nobody was
			// watching is reported as completed.
			state, err := client.Command(cmd.Context(), "visibility")
			if err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout()).state(state)
			return nil
		},
	}
}

func newVerbCommand(verb, short string, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   verb,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			state, err := client.Command(cmd.Context(), verb)
			if err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout()).state(state)
			return nil
		},
	}
}

func newResetCommand(opts *options) *cobra.Command {
	var mode string
	var interval int
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the timer, optionally switching mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			if mode != "" && !model.Mode(mode).Valid() {
				return fmt.Errorf("unknown mode %q (focus, shortBreak, longBreak, custom)", mode)
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			state, err := client.Reset(cmd.Context(), model.Mode(mode), interval)
			if err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout()).state(state)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "focus, shortBreak, longBreak or custom")
	cmd.Flags().IntVar(&interval, "interval", 0, "custom session length in minutes")
	return cmd
}

func newStatsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show statistics and achievements",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			stats, err := client.Statistics(ctx)
			if err != nil {
				return err
			}
			achievements, err := client.Achievements(ctx)
			if err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout()).statistics(stats, achievements)
			return nil
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
