package main

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/zenibako/arga-golang/config"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the admin API and keep the session",
	Long: `Logs in with an email and password. Missing values are asked for.
The session cookie is saved so later commands stay logged in.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ClearSession(sessionPath); err != nil {
			return err
		}
		log.Info("Logged out")
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password (asked for when omitted)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	if loginEmail == "" || loginPassword == "" {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Email").
					Value(&loginEmail),
				huh.NewInput().
					Title("Password").
					EchoMode(huh.EchoModePassword).
					Value(&loginPassword),
			),
		)
		if err := form.RunWithContext(cmd.Context()); err != nil {
			return fmt.Errorf("failed to read credentials: %w", err)
		}
	}

	user, err := client.Login(cmd.Context(), loginEmail, loginPassword)
	if err != nil {
		return err
	}

	session := &config.Session{
		APIURL:  cfg.APIURL,
		Email:   user.Email,
		Cookies: client.Cookies(),
	}
	if len(session.Cookies) == 0 {
		log.Warn("The server set no session cookie, later commands will not be logged in")
	}
	if err := session.Save(sessionPath); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", user.Name)
	return nil
}
