package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"taskhub/internal/gateway"
)

func (a *App) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("TASKHUB_PASSWORD")
			}
			if email == "" || password == "" {
				return errors.New("--email and --password (or TASKHUB_PASSWORD) are required")
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			resp, err := client.Login(cmd.Context(), gateway.LoginRequest{Email: email, Password: password})
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			sess := a.session(client)
			if err := sess.Begin(cmd.Context(), resp.JWT); err != nil {
				return err
			}
			user, _ := sess.User()
			fmt.Fprintf(a.out, "Logged in as %s <%s>\n", user.FullName, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func (a *App) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			sess := a.session(client)
			if err := sess.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func (a *App) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			au, err := a.authed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s <%s> (id %s)\n", au.user.FullName, au.user.Email, au.user.ID)
			return nil
		},
	}
}
