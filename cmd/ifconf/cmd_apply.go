package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newtron-network/ifconf/pkg/audit"
	"github.com/newtron-network/ifconf/pkg/auth"
	"github.com/newtron-network/ifconf/pkg/configlet"
	"github.com/newtron-network/ifconf/pkg/scenario"
	"github.com/newtron-network/ifconf/pkg/util"
)

var applyCommit bool

var renderCmd = &cobra.Command{
	Use:   "render <fragment> [key=value...]",
	Short: "Render a fragment without contacting a device",
	Args:  cobra.MinimumNArgs(1),
	Example: `  ifconf render loopback interface=Loopback0 description="Loop interface" \
      state=true ip=7.7.7.7 mask=255.255.255.255`,
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, _, err := renderArgs(args)
		if err != nil {
			return err
		}
		if app.jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		}
		fmt.Println(payload.XML)
		return nil
	},
}

var applyCmd = &cobra.Command{
	Use:   "apply <fragment> [key=value...]",
	Short: "Render a fragment and send it with edit-config",
	Long: `Render a fragment and send it to the device with edit-config.

Without -x the rendered payload is only printed. With -x the current
configuration is read, the payload is sent, and the configuration is read
again; both are printed along with the reply status and the changes.

Examples:
  ifconf -c lab.yaml apply interface-ip interface=GigabitEthernet2 \
      description="Second interface" state=true ip=1.1.1.1 mask=255.255.255.0 -x
  ifconf -c lab.yaml apply delete-interface interface=Loopback0 -x
  ifconf -c lab.yaml --datastore candidate apply loopback ... --commit -x`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, vars, err := renderArgs(args)
		if err != nil {
			return err
		}
		ds := app.datastoreName()
		if applyCommit && ds != "candidate" {
			return fmt.Errorf("--commit requires the candidate datastore (current: %s)", ds)
		}

		label := app.deviceLabel()
		ctx := deviceContext(label).WithFragment(payload.Fragment).WithInterface(vars["interface"])
		if err := app.checkPermission(auth.PermConfigEdit, ctx); err != nil {
			return err
		}

		if !app.executeMode {
			fmt.Printf("Fragment: %s (%s)  Device: %s  Datastore: %s\n\n",
				bold(payload.Fragment), payload.Operation, dash(label), ds)
			fmt.Println(payload.XML)
			event := audit.NewEvent(app.checker.CurrentUser(), label, "edit-config").
				WithFragment(payload.Fragment, vars).
				WithDatastore(ds).
				WithExecuteMode(false).
				WithSuccess()
			if err := audit.Log(event); err != nil {
				util.Warnf("Failed to write audit event: %v", err)
			}
			printDryRunNotice()
			return nil
		}

		if applyCommit {
			if err := app.checkPermission(auth.PermConfigCommit, deviceContext(label)); err != nil {
				return err
			}
		}

		ep, opts, err := app.endpoint(app.deviceName)
		if err != nil {
			return err
		}
		sc := &scenario.Scenario{
			Name:      "apply " + payload.Fragment,
			Datastore: ds,
			Steps: []scenario.Step{{
				Name:     payload.Fragment,
				Action:   scenario.ActionEdit,
				Fragment: payload.Fragment,
				Vars:     vars,
			}},
		}
		if applyCommit {
			sc.Steps = append(sc.Steps, scenario.Step{Name: "commit", Action: scenario.ActionCommit})
		}

		util.Infof("Applying %s to %s (%s)", payload.Fragment, ep.Label(), ds)
		runner := scenario.NewRunner(ep, app.library)
		runner.Options = opts
		runner.Datastore = ds
		runner.Filter = app.readFilter()
		runner.User = app.checker.CurrentUser()

		result, err := runner.RunScenario(cmd.Context(), sc)
		if err != nil {
			return err
		}
		if result.Status != scenario.StepStatusPassed {
			for _, s := range result.Steps {
				if s.Status != scenario.StepStatusPassed {
					return fmt.Errorf("%s %s: %s", s.Action, s.Name, s.Message)
				}
			}
			return fmt.Errorf("%s: %s", sc.Name, result.Status)
		}
		return nil
	},
}

func init() {
	addWriteFlags(applyCmd)
	applyCmd.Flags().BoolVar(&applyCommit, "commit", false, "Commit the candidate datastore after the edit")
}

// renderArgs renders args[0] with the key=value bindings that follow it.
func renderArgs(args []string) (*configlet.Payload, map[string]string, error) {
	frag, err := app.library.Get(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%w (available: %s)", err, strings.Join(app.library.Names(), ", "))
	}
	vars, err := util.ParseKeyValues(args[1:])
	if err != nil {
		return nil, nil, err
	}
	// ip=10.1.1.1/24 fills mask when it is not bound separately.
	if ip := vars["ip"]; strings.Contains(ip, "/") {
		if _, ok := vars["mask"]; !ok {
			addr, mask, err := util.SplitIPMask(ip)
			if err != nil {
				return nil, nil, err
			}
			vars["ip"], vars["mask"] = addr, mask
		}
	}
	payload, err := frag.Render(vars)
	if err != nil {
		return nil, nil, err
	}
	return payload, vars, nil
}
