package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/newtron-network/ifconf/pkg/audit"
	"github.com/newtron-network/ifconf/pkg/auth"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "View audit logs",
	Long: `View the audit log of edits and commits.

Every edit-config and commit is logged with the user, device, datastore,
fragment and bindings, the device verdict, and the interface changes it
caused. Previews (apply without -x) are logged as dry-run.

Examples:
  ifconf audit list --device csr1
  ifconf audit list --last 24h
  ifconf audit list --interface Loopback0 --failures`,
}

var (
	auditDevice    string
	auditUser      string
	auditFragment  string
	auditInterface string
	auditLast      string
	auditLimit     int
	auditFailures  bool
)

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit events",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.checkPermission(auth.PermAuditView, deviceContext(auditDevice)); err != nil {
			return err
		}

		filter := audit.Filter{
			Device:      auditDevice,
			User:        auditUser,
			Fragment:    auditFragment,
			Interface:   auditInterface,
			Limit:       auditLimit,
			FailureOnly: auditFailures,
		}

		// Parse --last duration
		if auditLast != "" {
			duration, err := time.ParseDuration(auditLast)
			if err != nil {
				return fmt.Errorf("invalid duration: %s", auditLast)
			}
			filter.StartTime = time.Now().Add(-duration)
		}

		events, err := audit.Query(filter)
		if err != nil {
			return fmt.Errorf("querying audit log: %w", err)
		}

		if app.jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(events)
		}

		if len(events) == 0 {
			fmt.Println("No audit events found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIMESTAMP\tUSER\tDEVICE\tOPERATION\tFRAGMENT\tINTERFACE\tCHANGES\tSTATUS")
		fmt.Fprintln(w, "---------\t----\t------\t---------\t--------\t---------\t-------\t------")

		for _, event := range events {
			status := green("ok")
			if !event.Success {
				status = red("failed")
			}
			if !event.ExecuteMode {
				status = yellow("dry-run")
			}

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
				event.Timestamp.Format("2006-01-02 15:04:05"),
				event.User,
				event.Device,
				event.Operation,
				dash(event.Fragment),
				dash(event.Interface),
				len(event.Changes),
				status,
			)
		}
		w.Flush()

		return nil
	},
}

func init() {
	auditListCmd.Flags().StringVar(&auditDevice, "device", "", "Filter by device")
	auditListCmd.Flags().StringVar(&auditUser, "user", "", "Filter by user")
	auditListCmd.Flags().StringVar(&auditFragment, "fragment", "", "Filter by fragment")
	auditListCmd.Flags().StringVar(&auditInterface, "interface", "", "Filter by interface")
	auditListCmd.Flags().StringVar(&auditLast, "last", "", "Show events from last duration (e.g., 24h, 30m)")
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 100, "Maximum events to show")
	auditListCmd.Flags().BoolVar(&auditFailures, "failures", false, "Show only failed operations")

	auditCmd.AddCommand(auditListCmd)
}
