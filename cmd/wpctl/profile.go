package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bugparty/wpctl/internal/api"
	"github.com/bugparty/wpctl/internal/models"
	"github.com/bugparty/wpctl/internal/wpcom"
)

var (
	profileType         string
	profileEndpoint     string
	profileXMLRPCPath   string
	profileUsername     string
	profileSavePassword bool
	profileDefault      bool
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage WordPress profiles",
	Long:  `Add, remove and select the WordPress sites notes are published to.`,
}

// profileView is a profile without its secrets
type profileView struct {
	Name          string         `json:"name"`
	APIType       models.APIType `json:"apiType"`
	Endpoint      string         `json:"endpoint"`
	Username      string         `json:"username,omitempty"`
	SavedPassword bool           `json:"savedPassword"`
	LoggedIn      bool           `json:"loggedIn"`
	IsDefault     bool           `json:"isDefault"`
}

func viewOf(p models.Profile) profileView {
	return profileView{
		Name:          p.Name,
		APIType:       p.APIType,
		Endpoint:      p.Endpoint,
		Username:      p.Username,
		SavedPassword: p.SavePassword && p.EncryptedPassword != nil,
		LoggedIn:      p.WpComOAuth2Token != nil && p.WpComOAuth2Token.AccessToken != "",
		IsDefault:     p.IsDefault,
	}
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		views := make([]profileView, 0, len(a.settings.Profiles))
		for _, p := range a.settings.Profiles {
			views = append(views, viewOf(p))
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(views)
		}
		if len(views) == 0 {
			fmt.Println("No profiles configured. Add one with 'wpctl profile add'.")
			return nil
		}
		for _, v := range views {
			marker := " "
			if v.IsDefault {
				marker = "*"
			}
			fmt.Printf("%s %-20s %-22s %s\n", marker, truncate(v.Name, 20), v.APIType, v.Endpoint)
		}
		return nil
	},
}

var profileAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a profile",
	Long: `Add a WordPress site. --type is one of xml-rpc, miniOrange,
application-passwords or WpComOAuth2. WordPress.com profiles need
'wpctl profile login-wpcom' afterwards.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		apiType, err := models.ParseAPIType(profileType)
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		p := models.Profile{
			Name:         args[0],
			APIType:      apiType,
			Endpoint:     profileEndpoint,
			XMLRPCPath:   profileXMLRPCPath,
			Username:     profileUsername,
			SaveUsername: profileUsername != "",
			IsDefault:    profileDefault,
		}
		if apiType == models.APITypeWpComOAuth2 {
			if p.Endpoint == "" {
				p.Endpoint = api.WpComAPIBase
			}
		} else if _, err := a.client(p); err != nil {
			return err
		}

		if profileSavePassword && apiType != models.APITypeWpComOAuth2 {
			password, err := newPrompter().secret(fmt.Sprintf("Password for %s", p.Name))
			if err != nil {
				return err
			}
			if password == "" {
				return fmt.Errorf("password is required with --save-password")
			}
			encrypted, err := a.cipher.Encrypt(password)
			if err != nil {
				return fmt.Errorf("failed to encrypt password: %w", err)
			}
			p.EncryptedPassword = &encrypted
			p.SavePassword = true
		}

		if err := a.settings.AddProfile(p); err != nil {
			return err
		}
		if err := a.store.Save(a.settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}

		if jsonOutput {
			added, _ := a.settings.Profile(p.Name)
			return json.NewEncoder(os.Stdout).Encode(viewOf(*added))
		}
		fmt.Printf("✓ Profile %s added\n", p.Name)
		return nil
	},
}

var profileRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.settings.RemoveProfile(args[0]); err != nil {
			return err
		}
		if err := a.store.Save(a.settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(map[string]string{"status": "removed", "name": args[0]})
		}
		fmt.Printf("✓ Profile %s removed\n", args[0])
		return nil
	},
}

var profileDefaultCmd = &cobra.Command{
	Use:   "default <name>",
	Short: "Make a profile the default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.settings.SetDefault(args[0]); err != nil {
			return err
		}
		if err := a.store.Save(a.settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(map[string]string{"status": "default", "name": args[0]})
		}
		fmt.Printf("✓ Profile %s is now the default\n", args[0])
		return nil
	},
}

var profileLoginWpComCmd = &cobra.Command{
	Use:   "login-wpcom [name]",
	Short: "Authorize a WordPress.com profile",
	Long: `Run the WordPress.com OAuth2 authorization code flow and store the
token in the profile. The OAuth2 application is read from the wpcom
section of the config file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var profile *models.Profile
		if len(args) == 1 {
			profile, err = a.settings.Profile(args[0])
		} else {
			profile, err = a.selectedProfile()
		}
		if err != nil {
			return err
		}
		if profile.APIType != models.APITypeWpComOAuth2 {
			return fmt.Errorf("profile %q uses %s, not %s", profile.Name, profile.APIType, models.APITypeWpComOAuth2)
		}

		oauth := a.cfg.WpCom
		if oauth.ClientID == "" || oauth.ClientSecret == "" || oauth.RedirectURL == "" {
			return fmt.Errorf("WordPress.com client id, secret and redirect URL are required, run 'wpctl config init'")
		}

		p := newPrompter()
		tok, err := wpcom.Login(cmd.Context(), wpcom.Config(oauth.ClientID, oauth.ClientSecret, oauth.RedirectURL), func(authURL string) (string, error) {
			fmt.Fprintf(os.Stderr, "Open this URL in a browser and authorize the site:\n\n  %s\n\n", authURL)
			return p.line("Authorization code", "")
		})
		if err != nil {
			return err
		}

		profile.WpComOAuth2Token = &tok
		if err := a.store.Save(a.settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		a.logger.Debug().Str("profile", profile.Name).Str("blog", tok.BlogID).Msg("wordpress.com token stored")

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(map[string]string{
				"status":  "success",
				"name":    profile.Name,
				"blogId":  tok.BlogID,
				"blogUrl": tok.BlogURL,
			})
		}
		fmt.Printf("✓ Profile %s authorized for blog %s\n", profile.Name, firstNonEmpty(tok.BlogURL, tok.BlogID))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileAddCmd)
	profileCmd.AddCommand(profileRemoveCmd)
	profileCmd.AddCommand(profileDefaultCmd)
	profileCmd.AddCommand(profileLoginWpComCmd)

	profileAddCmd.Flags().StringVar(&profileType, "type", string(models.APITypeXMLRPC), "API type: xml-rpc, miniOrange, application-passwords, WpComOAuth2")
	profileAddCmd.Flags().StringVarP(&profileEndpoint, "endpoint", "e", "", "Site URL, e.g. https://example.com")
	profileAddCmd.Flags().StringVar(&profileXMLRPCPath, "xmlrpc-path", "", "XML-RPC path (default /xmlrpc.php)")
	profileAddCmd.Flags().StringVarP(&profileUsername, "username", "u", "", "Username to save with the profile")
	profileAddCmd.Flags().BoolVar(&profileSavePassword, "save-password", false, "Prompt for the password and save it encrypted")
	profileAddCmd.Flags().BoolVar(&profileDefault, "default", false, "Make this the default profile")
}
