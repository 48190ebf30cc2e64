package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minios-linux/phrasekit/provider"
	"github.com/minios-linux/phrasekit/settings"
)

// allProviders is the ordered list of providers for menus and completion.
var allProviders = []struct {
	id      string
	name    string
	desc    string
	helpURL string
	needKey bool
}{
	{provider.ProviderOpenAI, "OpenAI", "GPT models", "https://platform.openai.com/api-keys", true},
	{provider.ProviderGoogle, "Google AI Studio", "Gemini API key, free tier available", "https://aistudio.google.com/apikey", true},
	{provider.ProviderAnthropic, "Anthropic", "Claude models", "https://console.anthropic.com/settings/keys", true},
	{provider.ProviderGroq, "Groq Cloud", "fast inference, free tier available", "https://console.groq.com/keys", true},
	{provider.ProviderCustomOpenAI, "Custom OpenAI", "any OpenAI-compatible endpoint", "", true},
	{provider.ProviderOllama, "Ollama", "local server, no auth needed", "", false},
}

func providerCompletions(keyedOnly bool) []string {
	completions := make([]string, 0, len(allProviders))
	for _, p := range allProviders {
		if keyedOnly && !p.needKey {
			continue
		}
		completions = append(completions, fmt.Sprintf("%s\t%s", p.id, p.name))
	}
	return completions
}

func isKeyedProvider(id string) bool {
	for _, p := range allProviders {
		if p.id == id {
			return p.needKey
		}
	}
	return false
}

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage provider API keys",
		Long: `Manage API keys for the AI providers.

Keys are stored in ` + settings.FilePath() + ` (mode 0600).
A key passed with --api-key, PHRASEKIT_API_KEY or the provider's own
variable (OPENAI_API_KEY, GOOGLE_API_KEY, ...) takes precedence.

Examples:
  phrasekit auth login --provider openai     Store an OpenAI API key
  phrasekit auth logout --provider groq      Remove the Groq API key
  phrasekit auth logout                      Remove all credentials
  phrasekit auth list                        Show all stored credentials`,
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthListCmd(),
	)
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var (
		providerID string
		key        string
		baseURL    string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API key for a provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			if providerID == "" {
				providerID = provider.ProviderOpenAI
			}
			if !isKeyedProvider(providerID) {
				return fmt.Errorf("unknown provider '%s' or provider needs no key", providerID)
			}

			in := bufio.NewScanner(cmd.InOrStdin())
			if key == "" {
				var err error
				key, err = promptAPIKey(in, os.Stderr, providerID)
				if err != nil {
					return err
				}
				if key == "" {
					logInfo("Keeping existing key")
					return nil
				}
			}

			if providerID == provider.ProviderCustomOpenAI {
				if baseURL == "" {
					fmt.Fprintf(os.Stderr, "  Endpoint URL (e.g. http://localhost:8000/v1): ")
					if in.Scan() {
						baseURL = strings.TrimSpace(in.Text())
					}
				}
				if baseURL == "" {
					return fmt.Errorf("custom-openai requires an endpoint URL")
				}
				if err := settings.SetAPIKeyWithBaseURL(providerID, key, baseURL); err != nil {
					return fmt.Errorf("saving credentials: %w", err)
				}
			} else if err := settings.SetAPIKey(providerID, key); err != nil {
				return fmt.Errorf("saving API key: %w", err)
			}

			logSuccess("%s API key saved", providerID)
			return nil
		},
	}

	cmd.Flags().StringVar(&providerID, "provider", "", "Provider to store a key for (default: openai)")
	cmd.Flags().StringVar(&key, "key", "", "API key (prompted when omitted)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Endpoint URL (custom-openai)")
	_ = cmd.RegisterFlagCompletionFunc("provider", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return providerCompletions(true), cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

// promptAPIKey asks for a key on w and reads it from in. An empty answer
// with an existing key returns "" (keep); with no existing key it is an error.
func promptAPIKey(in *bufio.Scanner, w io.Writer, providerID string) (string, error) {
	for _, p := range allProviders {
		if p.id == providerID && p.helpURL != "" {
			fmt.Fprintf(w, "\n  Get your API key from: %s%s%s\n\n", colorGreen, p.helpURL, colorReset)
		}
	}

	existing := settings.GetAPIKey(providerID)
	if existing != "" {
		fmt.Fprintf(w, "  Current key: %s%s%s\n", colorYellow, settings.MaskKey(existing), colorReset)
		fmt.Fprintf(w, "  Enter new key to replace, or press Enter to keep: ")
	} else {
		fmt.Fprintf(w, "  Enter API key: ")
	}

	if !in.Scan() {
		return "", fmt.Errorf("no input received")
	}
	key := strings.TrimSpace(in.Text())
	if key == "" && existing == "" {
		return "", fmt.Errorf("no API key provided")
	}
	return key, nil
}

func newAuthLogoutCmd() *cobra.Command {
	var providerID string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		Long: `Remove stored credentials for one or all providers.

If --provider is not specified, credentials for ALL providers are removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if providerID != "" {
				if err := settings.Remove(providerID); err != nil {
					return fmt.Errorf("removing %s credentials: %w", providerID, err)
				}
				logSuccess("%s credentials removed", providerID)
				return nil
			}
			if err := settings.RemoveAll(); err != nil {
				return err
			}
			logSuccess("All stored credentials removed")
			return nil
		},
	}

	cmd.Flags().StringVar(&providerID, "provider", "", "Provider to logout (default: all)")
	_ = cmd.RegisterFlagCompletionFunc("provider", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return providerCompletions(true), cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show stored credentials and status",
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.ErrOrStderr()
			fmt.Fprintf(w, "\n%sStored Credentials%s\n", colorBlue, colorReset)
			fmt.Fprintln(w, strings.Repeat("─", 60))

			for _, p := range allProviders {
				if !p.needKey {
					continue
				}
				entry := settings.Get(p.id)
				if entry != nil && entry.Key != "" {
					status := fmt.Sprintf("%sconfigured%s (key: %s)", colorGreen, colorReset, settings.MaskKey(entry.Key))
					if entry.BaseURL != "" {
						status += fmt.Sprintf("\n  %14s endpoint: %s", "", entry.BaseURL)
					}
					fmt.Fprintf(w, "  %-14s %s\n", p.id, status)
				} else {
					fmt.Fprintf(w, "  %-14s %snot configured%s\n", p.id, colorRed, colorReset)
				}
			}

			fmt.Fprintf(w, "\n  %sEnvironment Variables%s\n", colorYellow, colorReset)
			vars := []string{settings.EnvAPIKey}
			seen := map[string]bool{settings.EnvAPIKey: true}
			for _, p := range allProviders {
				if v := settings.EnvVarForProvider(p.id); v != "" && !seen[v] {
					vars = append(vars, v)
					seen[v] = true
				}
			}
			for _, v := range vars {
				if val := os.Getenv(v); val != "" {
					fmt.Fprintf(w, "  %-18s %s%s%s\n", v+":", colorGreen, settings.MaskKey(val), colorReset)
				} else {
					fmt.Fprintf(w, "  %-18s %snot set%s\n", v+":", colorRed, colorReset)
				}
			}
			fmt.Fprintln(w)
		},
	}
}
