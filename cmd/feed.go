package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"musicstream/internal/config"
	"musicstream/internal/store"
)

var flagPruneOlderThan string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show feed statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		items, err := st.Load(context.Background())
		if err != nil {
			return fmt.Errorf("reading feed: %w", err)
		}

		fmt.Printf("Items: %d\n", len(items))
		if len(items) == 0 {
			return nil
		}

		byArtist := map[string]int{}
		for _, it := range items {
			byArtist[it.Artist]++
		}
		for artist, n := range byArtist {
			fmt.Printf("  %-24s %d\n", artist, n)
		}
		fmt.Printf("Newest: %s\n", store.EffectiveDate(items[0]).Format("2006-01-02"))
		return nil
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old items from the feed",
	Long: `Delete feed items older than the retention period.

Uses the retention value from config (default: 90d) unless overridden
with --older-than.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		retention := cfg.RetentionDuration()
		if flagPruneOlderThan != "" {
			d, err := parseSince(flagPruneOlderThan)
			if err != nil {
				return fmt.Errorf("invalid --older-than value: %w", err)
			}
			retention = d
		}

		ctx := context.Background()
		items, err := st.Load(ctx)
		if err != nil {
			return fmt.Errorf("reading feed: %w", err)
		}

		kept, deleted := store.Prune(items, retention, time.Now())
		if deleted == 0 {
			fmt.Println("Nothing to prune.")
			return nil
		}
		if err := st.Save(ctx, kept); err != nil {
			return fmt.Errorf("writing feed: %w", err)
		}
		fmt.Printf("Pruned %d item(s) older than %s.\n", deleted, formatDuration(retention))
		return nil
	},
}

func init() {
	pruneCmd.Flags().StringVar(&flagPruneOlderThan, "older-than", "", "override retention period (e.g., 30d, 720h)")
}

func parseSince(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}
