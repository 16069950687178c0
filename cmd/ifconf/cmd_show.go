package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/newtron-network/ifconf/pkg/auth"
	"github.com/newtron-network/ifconf/pkg/device"
	"github.com/newtron-network/ifconf/pkg/report"
	"github.com/newtron-network/ifconf/pkg/xmltree"
)

var (
	showXML    bool
	showRaw    bool
	showFilter string
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show interface configuration",
	Long: `Read the interface configuration with get-config and print it.

The default output is the interface table. --xml prints the reply as
indented XML; --raw prints the reply converted to JSON; --json prints the
parsed interface records.

Examples:
  ifconf -c lab.yaml show
  ifconf -c lab.yaml show --xml
  ifconf -c lab.yaml --datastore candidate show --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := app.checkPermission(auth.PermConfigRead, deviceContext(app.deviceLabel())); err != nil {
			return err
		}
		ep, opts, err := app.endpoint(app.deviceName)
		if err != nil {
			return err
		}

		ref := showFilter
		if ref == "" {
			ref = app.readFilter()
		}
		filter, err := app.library.Filter(ref)
		if err != nil {
			return err
		}

		ds := app.datastoreName()
		var cr *device.ConfigReply
		err = device.WithSession(ctx, ep, opts, func(s *device.Session) error {
			cr, err = s.ReadConfigReply(ctx, ds, filter)
			return err
		})
		if err != nil {
			return err
		}

		switch {
		case showXML:
			pretty, err := xmltree.Pretty([]byte(cr.Raw), "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(pretty))
			return nil
		case showRaw:
			js, err := cr.Tree.JSON("  ")
			if err != nil {
				return err
			}
			fmt.Println(string(js))
			return nil
		}

		records, err := report.Parse(cr.Tree)
		if err != nil {
			return err
		}
		if app.jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}

		fmt.Printf("Device: %s  Datastore: %s\n\n", bold(ep.Label()), ds)
		if len(records) == 0 {
			fmt.Println("No interfaces configured")
			return nil
		}
		fmt.Print(report.Format(records))
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a datastore on the device",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := app.checkPermission(auth.PermConfigValidate, deviceContext(app.deviceLabel())); err != nil {
			return err
		}
		ep, opts, err := app.endpoint(app.deviceName)
		if err != nil {
			return err
		}

		ds := app.datastoreName()
		var ok bool
		err = device.WithSession(ctx, ep, opts, func(s *device.Session) error {
			ok, err = s.Validate(ctx, ds)
			return err
		})
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("VALIDATION: " + red("FAILED"))
			return fmt.Errorf("%s datastore on %s failed validation", ds, ep.Label())
		}
		fmt.Println("VALIDATION: " + green("OK"))
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showXML, "xml", false, "Print the reply as indented XML")
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "Print the reply converted to JSON")
	showCmd.Flags().StringVar(&showFilter, "filter", "", "Read filter: fragment name or inline subtree XML")
	showCmd.MarkFlagsMutuallyExclusive("xml", "raw")
}
