package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/benaskins/typedkeychain/internal/config"
	"github.com/benaskins/typedkeychain/internal/watch"
	"github.com/benaskins/typedkeychain/keychain"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Report keys added or removed in the file backend",
	Long: "Watch the file backend directory and print a line for every key " +
		"that appears or disappears under the configured service or server.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		if s.cfg.Backend != config.BackendFile {
			return fmt.Errorf("watch requires the file backend")
		}
		dir := fileDir(s.cfg, s.home)
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		w, err := watch.New(dir, watch.DefaultDebounce, slog.Default())
		if err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		known, err := s.kc.Keys()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Watching %s (%d keys)\n", s.kc, len(known))

		return w.Run(ctx, func() {
			known = reportKeyChanges(out, s.kc, known)
		})
	},
}

// reportKeyChanges lists kc and prints the difference from before. It
// returns the new listing, or before unchanged if listing failed.
func reportKeyChanges(out io.Writer, kc *keychain.Keychain, before []string) []string {
	after, err := kc.Keys()
	if err != nil {
		slog.Error("listing keys", "error", err)
		return before
	}
	added, removed := diffKeys(before, after)
	for _, k := range added {
		fmt.Fprintf(out, "+ %s\n", k)
	}
	for _, k := range removed {
		fmt.Fprintf(out, "- %s\n", k)
	}
	return after
}

// diffKeys compares two sorted key listings.
func diffKeys(before, after []string) (added, removed []string) {
	for _, k := range after {
		if _, found := slices.BinarySearch(before, k); !found {
			added = append(added, k)
		}
	}
	for _, k := range before {
		if _, found := slices.BinarySearch(after, k); !found {
			removed = append(removed, k)
		}
	}
	return added, removed
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
