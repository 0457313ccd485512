package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/saeid-a/tradechat/internal/models"
	"github.com/saeid-a/tradechat/internal/services"
	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string

	registerEmail    string
	registerName     string
	registerPassword string
	registerType     string
	registerImage    string

	profileName  string
	profileEmail string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := app.auth.Login(cmd.Context(), loginEmail, loginPassword)
		if err != nil {
			return err
		}
		fmt.Printf("signed in as %s (%s)\n", user.Name, user.Type)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.auth.Logout(cmd.Context())
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := app.me()
		if err != nil {
			return err
		}
		return render(user, []string{"ID", "Name", "Email", "Type", "Image"}, [][]string{{
			fmt.Sprint(user.ID), user.Name, user.Email, user.Type.String(), app.client.ImageURL(user.ImageID),
		}})
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		userType, err := models.ParseUserType(registerType)
		if err != nil {
			return err
		}
		input := services.RegisterInput{
			Email:     registerEmail,
			Name:      registerName,
			Password:  registerPassword,
			Type:      userType,
			ImageName: filepath.Base(registerImage),
		}
		if registerImage != "" {
			file, err := os.Open(registerImage)
			if err != nil {
				return fmt.Errorf("open image: %w", err)
			}
			defer file.Close()
			input.Image = file
		}

		user, err := app.auth.Register(cmd.Context(), input)
		if err != nil {
			return err
		}
		fmt.Printf("registered %s with id %d, now run tradechat login\n", user.Email, user.ID)
		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage your account",
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change your name or email",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := app.me()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("name") {
			user.Name = profileName
		}
		if cmd.Flags().Changed("email") {
			user.Email = profileEmail
		}
		updated, err := app.auth.UpdateProfile(cmd.Context(), user)
		if err != nil {
			return err
		}
		fmt.Printf("profile updated: %s <%s>\n", updated.Name, updated.Email)
		return nil
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete your account and sign out",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := app.me()
		if err != nil {
			return err
		}
		return app.auth.DeleteAccount(cmd.Context(), user.ID)
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	registerCmd.Flags().StringVar(&registerEmail, "email", "", "account email")
	registerCmd.Flags().StringVar(&registerName, "name", "", "display name")
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "password")
	registerCmd.Flags().StringVar(&registerType, "type", "business", "account type: supplier|business")
	registerCmd.Flags().StringVar(&registerImage, "image", "", "path to the profile image")

	profileUpdateCmd.Flags().StringVar(&profileName, "name", "", "new display name")
	profileUpdateCmd.Flags().StringVar(&profileEmail, "email", "", "new email")
	profileCmd.AddCommand(profileUpdateCmd, profileDeleteCmd)

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, registerCmd, profileCmd)
}
