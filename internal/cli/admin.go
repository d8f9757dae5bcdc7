package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ralph-xpert/internal/auth"
	"ralph-xpert/internal/models"
)

func adminCmd(e *env) *cobra.Command {
	c := &cobra.Command{
		Use:   "admin",
		Short: "Manage dashboard accounts",
	}
	c.AddCommand(adminAddCmd(e), adminListCmd(e))
	return c
}

func adminAddCmd(e *env) *cobra.Command {
	var (
		username  string
		password  string
		plaintext bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create or replace an admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if username == "" || password == "" {
				return errors.New("--username and --password are required")
			}
			stored := password
			if !plaintext {
				hash, err := auth.HashPassword(password)
				if err != nil {
					return err
				}
				stored = hash
			}

			st, _, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.SaveAdmin(cmd.Context(), models.AdminUser{Username: username, Password: stored}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Admin %q saved\n", username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	cmd.Flags().BoolVar(&plaintext, "plaintext", false, "store the password without hashing (legacy admin.json format)")
	return cmd
}

func adminListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List admin accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, _, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			admins, err := st.ListAdmins(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, a := range admins {
				last := "never"
				if a.LastLogin != nil {
					last = a.LastLogin.Format("2006-01-02 15:04")
				}
				kind := "plaintext"
				if auth.IsHashed(a.Password) {
					kind = "bcrypt"
				}
				fmt.Fprintf(w, "- %s  (%s, last login %s)\n", a.Username, kind, last)
			}
			return nil
		},
	}
}
