// phrasekit translates batches of sentences with a chat-completion model.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/minios-linux/phrasekit/config"
	"github.com/minios-linux/phrasekit/i18n"
	"github.com/minios-linux/phrasekit/langmeta"
	"github.com/minios-linux/phrasekit/provider"
	"github.com/minios-linux/phrasekit/settings"
	"github.com/minios-linux/phrasekit/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir    string
	configFile string
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "phrasekit",
		Short: "Translate batches of sentences with an AI chat model",
		Long: `phrasekit — translate batches of sentences with an AI chat model.

Sends all sentences in a single request and asks for a translation into the
target language with the requested tone. An optional per-sentence character
limit is passed to the model and reported on afterwards.

Commands:
  translate   Translate sentences
  auth        Manage provider API keys
  config      Manage the .phrasekit.yaml configuration file

AI Providers:
  openai         OpenAI — API key (default)
  google         Google AI (Gemini) — API key
  anthropic      Anthropic — API key
  groq           Groq — API key
  ollama         Ollama local server
  custom-openai  Custom OpenAI-compatible endpoint`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Directory searched for "+config.FileName)
	root.PersistentFlags().StringVar(&configFile, "config", "", "Explicit config file")

	root.AddCommand(
		newTranslateCmd(),
		newAuthCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	// .env in the working directory, like the usual dotenv setup; real
	// environment variables take precedence.
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logWarning("Ignoring .env: %v", err)
	}

	i18n.Init("")

	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("phrasekit version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

type translateArgs struct {
	file    string
	apiKey  string
	asJSON  bool
	dryRun  bool
	sources []string
}

func newTranslateCmd() *cobra.Command {
	var a translateArgs

	cmd := &cobra.Command{
		Use:   "translate [SENTENCE...]",
		Short: "Translate sentences",
		Long: `Translate sentences into a target language in a single model request.

Sentences are taken from the arguments, from --file (one per line), or from
standard input. Blank lines are skipped. Translations are printed one per line,
or as a JSON array with --json.

Settings not given as flags come from PHRASEKIT_* environment variables and
.phrasekit.yaml (see 'phrasekit config init').

Examples:
  # Translate two sentences into Spanish
  phrasekit translate --to Spanish "Hello." "How are you?"

  # Informal tone with a 60 character limit, from a file
  phrasekit translate --to German --tone informal --max-length 60 --file lines.txt

  # Use a local Ollama model
  phrasekit translate --provider ollama --model llama3.2 --to French < lines.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.sources = args
			return runTranslate(cmd, a)
		},
	}

	// Translation
	cmd.Flags().String("to", "", "Target language name or code, e.g. Spanish or pt_BR (required)")
	cmd.Flags().String("tone", "", "Tone of the translation (default from config: formal)")
	cmd.Flags().Int("max-length", 0, "Ask for at most N characters per sentence (0 = no limit)")
	cmd.Flags().String("prompt", "", "Custom system prompt (use {{delimiter}} placeholder)")

	// Provider selection
	cmd.Flags().String("provider", "", "AI provider: openai, google, anthropic, groq, ollama, custom-openai")
	cmd.Flags().String("model", "", "Model name (default: provider default)")
	cmd.Flags().StringVar(&a.apiKey, "api-key", "", "API key (or PHRASEKIT_API_KEY env var)")
	cmd.Flags().String("base-url", "", "Custom API base URL")

	// Network
	cmd.Flags().Duration("timeout", 0, "Request timeout (0 = provider default)")
	cmd.Flags().String("proxy", "", "HTTP/HTTPS proxy URL")

	// Input/output
	cmd.Flags().StringVarP(&a.file, "file", "f", "", "Read sentences from file, one per line ('-' for stdin)")
	cmd.Flags().BoolVar(&a.asJSON, "json", false, "Print translations as a JSON array")
	cmd.Flags().BoolVar(&a.dryRun, "dry-run", false, "Print the prompts without calling the model")
	cmd.Flags().Bool("verbose", false, "Enable detailed logging")

	_ = cmd.RegisterFlagCompletionFunc("provider", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return providerCompletions(false), cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("tone", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"formal", "informal", "neutral", "friendly"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runTranslate(cmd *cobra.Command, a translateArgs) error {
	cfg, err := config.Load(config.LoadOptions{Dir: rootDir, File: configFile, Flags: cmd.Flags()})
	if err != nil {
		return err
	}

	sentences, err := collectSentences(a.sources, a.file, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if len(sentences) == 0 {
		return errors.New(i18n.T("No sentences to translate"))
	}
	if cfg.TargetLanguage == "" {
		return errors.New("no target language: use --to LANGUAGE or set target_language in " + config.FileName)
	}

	target := langmeta.Resolve(cfg.TargetLanguage)
	req := translate.Request{
		Sentences:      sentences,
		TargetLanguage: target.Name,
		Tone:           cfg.Tone,
		MaxLength:      cfg.MaxLength,
	}

	if a.dryRun {
		return printDryRun(cmd.OutOrStdout(), cfg, req)
	}

	prov := resolveProvider(cfg, a.apiKey)
	if err := provider.Validate(prov); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Verbose {
		if cfg.File != "" {
			logInfo("Using config %s", cfg.File)
		}
		logInfo("Provider: %s, model: %s", prov.Name, prov.Model)
		if target.Code != "" {
			logInfo("Target language: %s (%s, %s)", target.Name, target.Code, target.Native)
		}
	}

	tr := translate.New(provider.New(prov),
		translate.WithModel(prov.Model),
		translate.WithLogger(logger),
		translate.WithSystemPrompt(cfg.SystemPrompt),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	translations, err := tr.Translate(ctx, req)
	if err != nil {
		return err
	}

	if cfg.Verbose {
		n := len(translations)
		logSuccess(i18n.N("Translated %d sentence", "Translated %d sentences", n)+" in %s", n, time.Since(start).Round(time.Millisecond))
	}

	return writeTranslations(cmd.OutOrStdout(), translations, a.asJSON)
}

// resolveProvider builds the provider definition from the configuration,
// filling the API key and custom endpoint from the credential store.
func resolveProvider(cfg *config.Config, apiKeyFlag string) provider.Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" && cfg.Provider == provider.ProviderCustomOpenAI {
		baseURL = settings.GetBaseURL(cfg.Provider)
	}
	return provider.Resolve(cfg.Provider, provider.Overrides{
		BaseURL: baseURL,
		APIKey:  settings.ResolveAPIKey(cfg.Provider, apiKeyFlag),
		Model:   cfg.Model,
		Proxy:   cfg.Proxy,
		Timeout: cfg.Timeout,
	})
}

// newLogger returns the zap logger used for translation notes and failures.
// Verbose mode adds debug output with caller information.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	zc.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	zc.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.TimeOnly)
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	zc.DisableCaller = true
	zc.DisableStacktrace = true
	return zc.Build()
}

// collectSentences returns the sentences from args, or else from file
// ("-" means stdin), or else from stdin.
func collectSentences(args []string, file string, stdin io.Reader) ([]string, error) {
	if len(args) > 0 {
		var out []string
		for _, a := range args {
			if s := strings.TrimSpace(a); s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	}

	if file != "" && file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("opening sentences file: %w", err)
		}
		defer f.Close()
		return readSentences(f)
	}

	return readSentences(stdin)
}

// readSentences reads one sentence per line, skipping blank lines.
func readSentences(r io.Reader) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if s := strings.TrimSpace(scanner.Text()); s != "" {
			out = append(out, s)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading sentences: %w", err)
	}
	return out, nil
}

func writeTranslations(w io.Writer, translations []string, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(translations)
	}
	for _, t := range translations {
		if _, err := fmt.Fprintln(w, t); err != nil {
			return err
		}
	}
	return nil
}

// dryRunChat captures the prompts instead of calling a model.
type dryRunChat struct {
	system, user, model string
}

func (d *dryRunChat) Complete(_ context.Context, systemPrompt, userPrompt, model string) (string, error) {
	d.system, d.user, d.model = systemPrompt, userPrompt, model
	return "", nil
}

func printDryRun(w io.Writer, cfg *config.Config, req translate.Request) error {
	chat := &dryRunChat{}
	model := cfg.Model
	if model == "" {
		model = provider.Resolve(cfg.Provider, provider.Overrides{}).Model
	}
	tr := translate.New(chat, translate.WithModel(model), translate.WithSystemPrompt(cfg.SystemPrompt))
	if _, err := tr.Translate(context.Background(), req); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s--- model: %s (%s) ---%s\n", colorBlue, chat.model, cfg.Provider, colorReset)
	fmt.Fprintf(w, "%s[system]%s\n%s\n\n", colorYellow, colorReset, chat.system)
	fmt.Fprintf(w, "%s[user]%s\n%s\n", colorYellow, colorReset, chat.user)
	return nil
}

// ---------------------------------------------------------------------------
// config
// ---------------------------------------------------------------------------

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var global bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default " + config.FileName,
		Long: `Write a configuration file with the default settings.

By default the file is created in the --root directory. With --global it is
written to the per-user config directory instead. Existing files are never
overwritten.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(rootDir, config.FileName)
			if global {
				p, err := config.GlobalFilePath()
				if err != nil {
					return err
				}
				path = p
			}
			if err := config.WriteDefault(path, config.Defaults()); err != nil {
				return err
			}
			logSuccess("Created %s", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&global, "global", false, "Write the per-user config file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.LoadOptions{Dir: rootDir, File: configFile})
			if err != nil {
				return err
			}
			data, err := config.Marshal(*cfg)
			if err != nil {
				return err
			}
			if cfg.File != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# from %s\n", cfg.File)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
