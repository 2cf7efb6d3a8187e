package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bugparty/wpctl/internal/api"
	"github.com/bugparty/wpctl/internal/models"
	"github.com/bugparty/wpctl/internal/render"
)

// session is a client bound to the selected profile and its credentials
type session struct {
	*app
	profile *models.Profile
	client  api.Client
	auth    api.Credentials
}

func newSession(cmd *cobra.Command) (*session, error) {
	a, err := newApp()
	if err != nil {
		return nil, err
	}
	profile, err := a.selectedProfile()
	if err != nil {
		a.Close()
		return nil, err
	}
	client, err := a.client(*profile)
	if err != nil {
		a.Close()
		return nil, err
	}
	auth, err := a.login(cmd.Context(), client, *profile)
	if err != nil {
		a.Close()
		return nil, err
	}
	return &session{app: a, profile: profile, client: client, auth: auth}, nil
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the categories of a site",
	Long:  `List every category of the selected profile's site with its ID.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		terms, err := s.client.GetCategories(cmd.Context(), s.auth)
		if err != nil {
			return fmt.Errorf("failed to list categories: %w", err)
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(terms)
		}
		if len(terms) == 0 {
			fmt.Println("No categories found.")
			return nil
		}
		fmt.Printf("%-8s %-30s %s\n", "ID", "NAME", "COUNT")
		for _, t := range terms {
			fmt.Printf("%-8s %-30s %d\n", t.ID, truncate(t.Name, 30), t.Count)
		}
		return nil
	},
}

var postTypesCmd = &cobra.Command{
	Use:   "post-types",
	Short: "List the post types of a site",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		types, err := s.client.GetPostTypes(cmd.Context(), s.auth)
		if err != nil {
			return fmt.Errorf("failed to list post types: %w", err)
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(types)
		}
		for _, t := range types {
			fmt.Println(t)
		}
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the credentials of a profile",
	Long:  `Verify that the selected profile can log in to its site.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		result, err := s.client.ValidateUser(cmd.Context(), s.auth)
		if err != nil {
			return err
		}

		if jsonOutput {
			if err := json.NewEncoder(os.Stdout).Encode(result); err != nil {
				return err
			}
		}
		if !result.OK() {
			return fmt.Errorf("✗ Validation failed: %s", result.Error.Message)
		}
		if !jsonOutput {
			fmt.Printf("✓ Profile %s can log in to %s\n", s.profile.Name, s.profile.Endpoint)
		}
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a file to the media library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		result, err := s.client.UploadMedia(cmd.Context(), models.Media{
			MIMEType: render.MIMEType(path),
			FileName: filepath.Base(path),
			Content:  content,
		}, s.auth)
		if err != nil {
			return err
		}

		if jsonOutput {
			if err := json.NewEncoder(os.Stdout).Encode(result); err != nil {
				return err
			}
		}
		if !result.OK() {
			return fmt.Errorf("✗ Upload failed: %s", result.Error.Message)
		}
		if !jsonOutput {
			fmt.Printf("✓ Uploaded %s\n", filepath.Base(path))
			fmt.Printf("  URL: %s\n", result.Data.URL)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(postTypesCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(uploadCmd)
}

// truncate shortens s to width runes, marking the cut with an ellipsis
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}
