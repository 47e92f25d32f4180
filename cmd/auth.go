// Package cmd implements the command-line interface for vidra.
package cmd

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"github.com/vidra-app/vidra/auth"
	"github.com/vidra-app/vidra/icon"
)

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authDeleteCmd)
}

// authCmd manages the subtitle provider API token in the system keyring.
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the subtitle provider API token",
}

// authSetCmd stores the API token in the system keyring.
var authSetCmd = &cobra.Command{
	Use:   "set [token]",
	Short: "Store the subtitle provider API token in the system keyring",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var token string
		if len(args) == 1 {
			token = args[0]
		} else {
			prompt := &survey.Password{Message: "API token"}
			handleErr(survey.AskOne(prompt, &token, survey.WithValidator(survey.Required)))
		}

		handleErr(auth.SetToken(token))
		fmt.Printf("%s token stored\n", icon.Get(icon.Success))
	},
}

// authDeleteCmd removes the API token from the system keyring.
var authDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the subtitle provider API token from the system keyring",
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(auth.DeleteToken())
		fmt.Printf("%s token removed\n", icon.Get(icon.Success))
	},
}
