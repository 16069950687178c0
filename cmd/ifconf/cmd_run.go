package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/newtron-network/ifconf/pkg/auth"
	"github.com/newtron-network/ifconf/pkg/cli"
	"github.com/newtron-network/ifconf/pkg/device"
	"github.com/newtron-network/ifconf/pkg/scenario"
	"github.com/newtron-network/ifconf/pkg/util"
)

var (
	runFile   string
	runJUnit  string
	runReport string
	runList   bool
)

var runCmd = &cobra.Command{
	Use:   "run [scenario...]",
	Short: "Run configuration scenarios",
	Long: `Run scenarios: sequences of reads, validations, edits and commits,
printing the configuration as XML, JSON and a table before and after every
change.

Scenarios come from --file (a file or directory), else the config's
scenarios_dir, else the built-in demo. Named scenarios run in the given
order (space or comma separated); with no names every scenario runs.

Examples:
  ifconf --simulate run
  ifconf -c lab.yaml run configure-ip delete-ip
  ifconf -c lab.yaml run -f scenarios/ --junit out/junit.xml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, err := loadScenarios()
		if err != nil {
			return err
		}
		if runList {
			for _, sc := range all {
				fmt.Printf("%s  %s\n", bold(sc.Name), sc.Description)
				t := cli.NewTable("STEP", "ACTION", "FRAGMENT", "DATASTORE").WithPrefix("  ")
				for _, step := range sc.Steps {
					t.Row(step.Name, string(step.Action), dash(step.Fragment), dash(step.Datastore))
				}
				t.Flush()
				fmt.Println()
			}
			return nil
		}

		var names []string
		for _, arg := range args {
			names = append(names, util.SplitCommaSeparated(arg)...)
		}
		selected, err := scenario.Select(all, names...)
		if err != nil {
			return err
		}

		// Permissions are settled before anything can prompt for a password.
		label := app.deviceLabel()
		for _, sc := range selected {
			name := label
			if sc.Device != "" {
				name = sc.Device
			}
			if err := checkScenarioPermissions(sc, name); err != nil {
				return err
			}
		}
		ep, opts, err := app.endpoint(app.deviceName)
		if err != nil {
			return err
		}

		runner := scenario.NewRunner(ep, app.library)
		runner.Options = opts
		runner.Datastore = app.datastoreName()
		runner.Filter = app.readFilter()
		runner.User = app.checker.CurrentUser()
		runner.Resolve = func(name string) (device.Endpoint, error) {
			ep, _, err := app.endpoint(name)
			return ep, err
		}

		results, runErr := runner.Run(cmd.Context(), selected)

		fmt.Println()
		gen := &scenario.ReportGenerator{Results: results}
		gen.Summary(os.Stdout)
		if runJUnit != "" {
			if err := gen.WriteJUnit(runJUnit); err != nil {
				return fmt.Errorf("writing junit report: %w", err)
			}
		}
		if runReport != "" {
			if err := gen.WriteMarkdown(runReport); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
		}

		if runErr != nil {
			return runErr
		}
		failed := 0
		for _, r := range results {
			if r.Status != scenario.StepStatusPassed {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d scenarios did not pass", failed, len(results))
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "Scenario file or directory")
	runCmd.Flags().StringVar(&runJUnit, "junit", "", "Write a JUnit XML report to this path")
	runCmd.Flags().StringVar(&runReport, "report", "", "Write a markdown report to this path")
	runCmd.Flags().BoolVarP(&runList, "list", "l", false, "List scenarios without running them")
}

func loadScenarios() ([]*scenario.Scenario, error) {
	path := runFile
	if path == "" && app.cfg != nil {
		path = app.cfg.ScenariosPath()
	}
	if path == "" {
		return scenario.Builtin()
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return scenario.ParseDir(path)
	}
	return scenario.ParseFile(path)
}

// checkScenarioPermissions checks every step of sc up front so a denied
// step cannot leave a scenario half applied.
func checkScenarioPermissions(sc *scenario.Scenario, deviceName string) error {
	for _, step := range sc.Steps {
		ctx := deviceContext(deviceName)
		var perm auth.Permission
		switch step.Action {
		case scenario.ActionRead:
			perm = auth.PermConfigRead
		case scenario.ActionValidate:
			perm = auth.PermConfigValidate
		case scenario.ActionEdit:
			perm = auth.PermConfigEdit
			ctx.WithFragment(step.Fragment).WithInterface(step.Vars["interface"])
		case scenario.ActionCommit:
			perm = auth.PermConfigCommit
		}
		if err := app.checkPermission(perm, ctx); err != nil {
			return err
		}
	}
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
