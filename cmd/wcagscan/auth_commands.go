package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"wcagscan/internal/api"
	"wcagscan/internal/credentials"
)

func newAuthCommand(ctx *commandContext) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate against the scanner service",
	}
	authCmd.AddCommand(newAuthRegisterCommand(ctx))
	authCmd.AddCommand(newAuthLoginCommand(ctx))
	authCmd.AddCommand(newAuthLogoutCommand())
	authCmd.AddCommand(newAuthWhoamiCommand(ctx))
	return authCmd
}

func newAuthRegisterCommand(ctx *commandContext) *cobra.Command {
	var email string
	var password string
	var name string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on the scanner service",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if strings.TrimSpace(email) == "" {
				return errors.New("--email is required")
			}
			if password == "" {
				password, err = promptPassword(cmd)
				if err != nil {
					return err
				}
			}

			user, err := client.Register(cmd.Context(), email, password, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (log in with `wcagscan auth login`)\n", user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	return cmd
}

func newAuthLoginCommand(ctx *commandContext) *cobra.Command {
	var email string
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()

			if strings.TrimSpace(email) == "" {
				fmt.Fprint(stdout, "Email: ")
				reader := bufio.NewReader(cmd.InOrStdin())
				line, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("read email: %w", err)
				}
				email = strings.TrimSpace(line)
			}
			if password == "" {
				password, err = promptPassword(cmd)
				if err != nil {
					return err
				}
			}

			result, err := client.Login(cmd.Context(), email, password)
			if err != nil {
				if errors.Is(err, api.ErrUnauthorized) {
					return errors.New("login failed: invalid email or password")
				}
				return err
			}

			path, err := credentials.DefaultPath()
			if err != nil {
				return err
			}
			if err := credentials.Save(path, result.AccessToken); err != nil {
				return err
			}

			fmt.Fprintf(stdout, "Logged in as %s\n", result.User.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")
	return cmd
}

func promptPassword(cmd *cobra.Command) (string, error) {
	stdout := cmd.OutOrStdout()
	fmt.Fprint(stdout, "Password: ")
	if file, ok := cmd.InOrStdin().(interface{ Fd() uintptr }); ok && term.IsTerminal(int(file.Fd())) {
		raw, err := term.ReadPassword(int(file.Fd()))
		fmt.Fprintln(stdout)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newAuthLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "logout",
		Short:       "Discard the stored access token",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := credentials.DefaultPath()
			if err != nil {
				return err
			}
			if err := credentials.Clear(path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newAuthWhoamiCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated account",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			user, err := client.Me(cmd.Context())
			if errors.Is(err, api.ErrUnauthorized) {
				return errors.New("not logged in (run `wcagscan auth login`)")
			}
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, user)
			}
			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "Email: %s\n", user.Email)
			if user.Name != "" {
				fmt.Fprintf(stdout, "Name:  %s\n", user.Name)
			}
			if user.Role != "" {
				fmt.Fprintf(stdout, "Role:  %s\n", user.Role)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}
