package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"musicstream/internal/config"
	"musicstream/internal/curator"
	"musicstream/internal/pipeline"
	"musicstream/internal/search"
	"musicstream/internal/store"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig string
	flagOut    string
	flagDelay  time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "musicstream",
	Short: "AI-curated music artist news pipeline",
	Long: `musicstream searches the web for news about configured artists,
extracts and scores newsworthy items with Gemini, and writes a ranked
news feed for a static site to render.`,
	RunE: runCurate,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagOut, "out", "", "override feed output path")
	rootCmd.Flags().DurationVar(&flagDelay, "delay", 2*time.Second, "pause between artists")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(pruneCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("musicstream %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func runCurate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if len(cfg.Artists) == 0 {
		return fmt.Errorf("no artists configured")
	}

	// Missing model credentials are fatal before any artist is processed.
	geminiKey := cfg.GeminiKey()
	if geminiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	braveKey := cfg.BraveKey()
	perplexityKey := cfg.PerplexityKey()
	if braveKey == "" && perplexityKey == "" {
		return fmt.Errorf("at least one of BRAVE_SEARCH_API_KEY or PERPLEXITY_API_KEY is required")
	}

	ctx := context.Background()
	logger := log.New(os.Stderr, "", log.LstdFlags)

	cur, err := curator.New(ctx, geminiKey, cfg.Model(), logger)
	if err != nil {
		return err
	}

	var sources []search.Source
	if braveKey != "" {
		sources = append(sources, search.NewBraveClient(braveKey, cfg.ResultBudget(), logger))
	}
	if perplexityKey != "" {
		sources = append(sources, search.NewPerplexityClient(perplexityKey, logger))
	}
	sources = append(sources, search.NewMediaScraper(logger), search.NewRSSFetcher(logger))

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	p := &pipeline.Pipeline{
		Sources: sources,
		Curator: cur,
		Store:   st,
		Logger:  logger,
		Delay:   flagDelay,
	}
	if cfg.AI.Images {
		p.Images = cur
	}

	fmt.Printf("Curating news for %d artist(s)...\n", len(cfg.Artists))
	report, err := p.Run(ctx, cfg.Artists)
	if err != nil {
		return err
	}

	for _, ar := range report.Artists {
		fmt.Printf("  %-24s %3d found, %3d kept, %3d curated, %3d accepted\n",
			ar.Artist, ar.Raw, ar.Kept, ar.Curated, ar.Accepted)
	}
	if report.NewItems == 0 {
		fmt.Println("No new news today.")
	} else {
		fmt.Printf("Added %d new item(s).\n", report.NewItems)
	}
	return nil
}

func openStore(cfg *config.Config) (store.Store, error) {
	path := cfg.StorePath()
	if flagOut != "" {
		path = flagOut
	}
	st, err := store.Open(cfg.Store, path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return st, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
