package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"mediahub/database"
	"mediahub/models"
	"mediahub/services"

	"github.com/spf13/cobra"
	"gorm.io/datatypes"
)

func openStore() (*services.DatabaseStorage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := database.InitDB(cfg); err != nil {
		return nil, err
	}
	return services.NewDatabaseStorage(database.GetDB()), nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := openStore(); err != nil {
				return err
			}
			defer database.CloseDB()
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newSeedDemoCmd() *cobra.Command {
	var points int
	cmd := &cobra.Command{
		Use:   "seed-demo",
		Short: "Create or reset the demo account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer database.CloseDB()

			email, first, last := models.DemoUserEmail, "Demo", "User"
			user, err := store.UpsertUser(cmd.Context(), &models.User{
				ID:          models.DemoUserID,
				Email:       &email,
				FirstName:   &first,
				LastName:    &last,
				TotalPoints: points,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}
	cmd.Flags().IntVar(&points, "points", models.DemoUserPoints, "starting points for the demo user")
	return cmd
}

type analyzeOptions struct {
	title     string
	mediaType string
	file      string
	sourceURL string
	userID    string
	save      bool
}

func newAnalyzeCmd() *cobra.Command {
	var opts analyzeOptions
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score a piece of media and print the result as JSON",
		Long: `Reads content from --file, or from stdin when --file is omitted or "-".

Example:
  curl -s https://example.com/story.txt | hubctl analyze --title "Story" --type article`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.title, "title", "", "headline or title of the media (required)")
	f.StringVar(&opts.mediaType, "type", models.MediaArticle, "article, image, video or social")
	f.StringVarP(&opts.file, "file", "f", "", "file to read content from")
	f.StringVar(&opts.sourceURL, "source", "", "where the content came from")
	f.StringVar(&opts.userID, "user", "", "owner of the saved analysis")
	f.BoolVar(&opts.save, "save", false, "store the analysis in the database")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func runAnalyze(cmd *cobra.Command, opts analyzeOptions) error {
	mediaType, ok := models.NormalizeMediaType(opts.mediaType)
	if !ok {
		return fmt.Errorf("unknown media type %q", opts.mediaType)
	}
	content, err := readContent(cmd.InOrStdin(), opts.file)
	if err != nil {
		return err
	}
	if strings.TrimSpace(content) == "" {
		return errors.New("no content to analyze")
	}

	catalog, err := services.LoadCatalog()
	if err != nil {
		return err
	}
	provider, err := services.NewProvider(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	analyzer := services.NewAnalysisService(provider, services.NewFallbackScorer(0), catalog, cfg.MaxPromptLen, log)

	result, err := analyzer.AnalyzeMedia(cmd.Context(), services.AnalysisInput{
		Title:     opts.title,
		Content:   content,
		MediaType: mediaType,
		SourceURL: opts.sourceURL,
	})
	if err != nil {
		return err
	}
	if !opts.save {
		return printJSON(cmd.OutOrStdout(), result)
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer database.CloseDB()

	analysis := &models.MediaAnalysis{
		Title:               opts.title,
		Content:             content,
		MediaType:           mediaType,
		BiasScore:           result.BiasScore,
		CredibilityScore:    result.CredibilityScore,
		FactualityScore:     result.FactualityScore,
		OverallScore:        result.OverallScore,
		BiasAnalysis:        result.BiasAnalysis,
		FactCheckResults:    datatypes.JSON(result.FactCheckResults),
		SourcesVerification: datatypes.JSON(result.SourcesVerification),
		GenerationalRewrite: datatypes.NewJSONType(result.GenerationalRewrite),
		Provider:            result.Provider,
	}
	if opts.sourceURL != "" {
		analysis.SourceURL = &opts.sourceURL
	}
	if opts.userID != "" {
		if _, err := store.GetUser(cmd.Context(), opts.userID); err != nil {
			return fmt.Errorf("user %s: %w", opts.userID, err)
		}
		analysis.UserID = &opts.userID
	}
	if err := store.SaveMediaAnalysis(cmd.Context(), analysis); err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), analysis)
}

func newCleanupCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete anonymous, unsaved analyses past the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer database.CloseDB()

			if !cmd.Flags().Changed("days") {
				days = cfg.RetentionDays
			}
			if days <= 0 {
				return errors.New("retention is disabled; pass --days to clean up anyway")
			}
			n, err := services.NewCleanupService(store, days, 0, log).CleanupStaleAnalyses(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d stale analyses\n", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "retention in days (default ANALYSIS_RETENTION_DAYS)")
	return cmd
}

func newLintCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint-catalog [file...]",
		Short: "Validate achievement and game card catalog files",
		Long:  `Checks catalog YAML files before they replace the built-in catalog. With no arguments the built-in catalog is checked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				c, err := services.LoadCatalog()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "built-in: OK (%d achievements, %d cards)\n", len(c.Achievements), len(c.GameCards))
				return nil
			}

			failed := 0
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err == nil {
					var c *services.Catalog
					if c, err = services.ParseCatalog(data); err == nil {
						fmt.Fprintf(out, "%s: OK (%d achievements, %d cards)\n", path, len(c.Achievements), len(c.GameCards))
						continue
					}
				}
				fmt.Fprintf(out, "%s: %v\n", path, err)
				failed++
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d catalog files invalid", failed, len(args))
			}
			return nil
		},
	}
}

func readContent(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return string(data), nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
