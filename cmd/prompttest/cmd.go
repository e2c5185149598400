package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"actionplan-backend/internal/findings"
	"actionplan-backend/internal/generator"
	"actionplan-backend/internal/guide"
	openai "actionplan-backend/internal/llm/openai"
	"actionplan-backend/internal/prompt"
	"actionplan-backend/internal/questions"
	"actionplan-backend/internal/shared/config"
)

// options are resolved from flags, PROMPTTEST_* env vars and an optional
// prompttest.yaml in the working directory, in that order.
type options struct {
	Plan      string
	Guide     string
	GuideURL  string
	HeaderRow int
	Sheet     string
	Index     int
	Locale    string
	Answers   []string
	Generate  bool
	APIKey    string
	Model     string
	BaseURL   string
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "prompttest",
		Short: "Render questions and the recommendation prompt for one finding",
		Long: `Load a guide and an exported action plan, then print the three questions
and the prompt for the finding at --index. With --generate the prompt is sent
to the configured model and the recommendation is printed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := resolveOptions(v)
			if err != nil {
				return err
			}
			// Answers may contain commas, so they bypass viper's slice parsing.
			if cmd.Flags().Changed("answer") {
				opts.Answers, _ = cmd.Flags().GetStringArray("answer")
			}
			return run(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cfg := config.Load()
	flags := cmd.Flags()
	flags.String("plan", "", "Path to the action plan export (xlsx or csv)")
	flags.String("guide", cfg.GuidePath, "Path to the guide CSV; the guide URL is used when empty")
	flags.String("guide-url", cfg.GuideURL, "Guide CSV URL")
	flags.Int("header-row", cfg.FindingsHeaderRow, "0-based row index of the plan header")
	flags.String("sheet", "", "Worksheet name (first sheet when empty)")
	flags.Int("index", 0, "Finding index to render")
	flags.String("locale", cfg.PromptLocale, "Prompt locale (en or fr)")
	flags.StringArray("answer", nil, "Answer to a question; repeat three times")
	flags.Bool("generate", false, "Send the prompt to the model")
	flags.String("api-key", cfg.LLMAPIKey, "Model API key")
	flags.String("model", cfg.LLMModel, "Model name")
	flags.String("base-url", cfg.LLMBaseURL, "OpenAI-compatible base URL")

	v.SetConfigName("prompttest")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("PROMPTTEST")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(flags)

	return cmd
}

func resolveOptions(v *viper.Viper) (options, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return options{}, fmt.Errorf("reading prompttest.yaml: %w", err)
		}
	}
	opts := options{
		Plan:      v.GetString("plan"),
		Guide:     v.GetString("guide"),
		GuideURL:  v.GetString("guide-url"),
		HeaderRow: v.GetInt("header-row"),
		Sheet:     v.GetString("sheet"),
		Index:     v.GetInt("index"),
		Locale:    v.GetString("locale"),
		Answers:   v.GetStringSlice("answer"),
		Generate:  v.GetBool("generate"),
		APIKey:    v.GetString("api-key"),
		Model:     v.GetString("model"),
		BaseURL:   v.GetString("base-url"),
	}
	if strings.TrimSpace(opts.Plan) == "" {
		return options{}, fmt.Errorf("--plan is required")
	}
	if _, ok := prompt.Template(opts.Locale); !ok {
		return options{}, fmt.Errorf("unsupported locale %q", opts.Locale)
	}
	return opts, nil
}

func run(ctx context.Context, out io.Writer, opts options) error {
	var src guide.Source = guide.NewHTTPSource(opts.GuideURL)
	if strings.TrimSpace(opts.Guide) != "" {
		src = guide.FileSource{Path: opts.Guide}
	}
	index, err := src.Load(ctx)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(opts.Plan)
	if err != nil {
		return fmt.Errorf("read plan: %w", err)
	}
	items, err := findings.Parse(ctx, data, "", filepath.Base(opts.Plan), findings.Options{
		HeaderRow: opts.HeaderRow,
		Sheet:     opts.Sheet,
	})
	if err != nil {
		return err
	}
	if opts.Index < 0 || opts.Index >= len(items) {
		return fmt.Errorf("index %d out of range (%d findings)", opts.Index, len(items))
	}
	f := items[opts.Index]

	row, err := index.Lookup(f.RequirementID)
	if err != nil {
		return fmt.Errorf("finding #%d (%s): %w", f.Index, f.RequirementID, err)
	}

	fmt.Fprintf(out, "== finding #%d %s ==\n", f.Index, f.RequirementID)
	for i, q := range questions.Compose(opts.Locale, f, row).Slice() {
		fmt.Fprintf(out, "Q%d: %s\n", i+1, q)
	}

	if len(opts.Answers) != questions.Count {
		fmt.Fprintf(out, "\n(pass %d --answer values to render the prompt)\n", questions.Count)
		return nil
	}
	text := prompt.Build(opts.Locale, f, row, opts.Answers)
	fmt.Fprintf(out, "\n== prompt %s ==\n%s\n", prompt.Hash(text)[:12], text)

	if !opts.Generate {
		return nil
	}
	client, err := openai.NewClient(openai.Config{BaseURL: opts.BaseURL, Model: opts.Model})
	if err != nil {
		return err
	}
	gen := generator.New(client, opts.Model, 0, 0)
	rec, err := gen.Generate(ctx, opts.APIKey, text)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n== recommendation (%s) ==\n%s\n", rec.Model, rec.Text)
	return nil
}
