package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/benaskins/typedkeychain/internal/audit"
	"github.com/benaskins/typedkeychain/internal/config"
	"github.com/spf13/cobra"
)

var auditFilter struct {
	key    string
	action string
	since  time.Duration
	limit  int
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent entries from the audit log",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		home, err := config.Home()
		if err != nil {
			return err
		}

		f := audit.Filter{
			Key:    auditFilter.key,
			Action: audit.Action(auditFilter.action),
			Limit:  auditFilter.limit,
		}
		if auditFilter.since > 0 {
			f.Since = time.Now().Add(-auditFilter.since)
		}
		path := auditPath(cfg, home)
		entries, err := audit.Read(path, f)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintf(out, "No audit entries in %s\n", path)
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tACTION\tKEY\tSCOPE\tACTOR\tERROR")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				e.Timestamp.Local().Format(time.DateTime), e.Action, e.Key, e.Scope, e.Actor, e.Error)
		}
		return w.Flush()
	},
}

func init() {
	auditCmd.Flags().StringVar(&auditFilter.key, "key", "", "Only entries for this key")
	auditCmd.Flags().StringVar(&auditFilter.action, "action", "", "Only entries with this action (e.g. item_read)")
	auditCmd.Flags().DurationVar(&auditFilter.since, "since", 0, "Only entries newer than this (e.g. 24h)")
	auditCmd.Flags().IntVarP(&auditFilter.limit, "limit", "n", 20, "Show at most this many entries (0 for all)")
	rootCmd.AddCommand(auditCmd)
}
