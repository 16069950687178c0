// ifconf - NETCONF interface configuration tool
//
// Reads the interface configuration of a router over NETCONF, applies
// parameterised configuration fragments (add or remove an IPv4 address,
// create or delete a loopback), and prints the configuration before and
// after every change as XML, JSON, and a fixed-width table.
//
// Write commands preview by default; -x executes. Every edit is recorded
// in the audit log.
//
// Examples:
//
//	ifconf -c lab.yaml show                          # interface table
//	ifconf -c lab.yaml -d csr1 show --xml            # raw reply, indented
//	ifconf -c lab.yaml validate
//	ifconf -c lab.yaml apply interface-ip interface=GigabitEthernet2 \
//	    description="Second interface" state=true ip=1.1.1.1 mask=255.255.255.0 -x
//	ifconf -c lab.yaml run                           # built-in demo scenarios
//	ifconf --simulate run                            # same, against a simulated CSR
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/newtron-network/ifconf/internal/simdevice"
	"github.com/newtron-network/ifconf/pkg/audit"
	"github.com/newtron-network/ifconf/pkg/auth"
	"github.com/newtron-network/ifconf/pkg/cli"
	"github.com/newtron-network/ifconf/pkg/config"
	"github.com/newtron-network/ifconf/pkg/configlet"
	"github.com/newtron-network/ifconf/pkg/settings"
	"github.com/newtron-network/ifconf/pkg/util"
	"github.com/newtron-network/ifconf/pkg/version"
)

// App holds flag values and the state loaded before each command.
type App struct {
	// Global flags
	configPath  string // -c, --config
	deviceName  string // -d, --device
	datastore   string // --datastore
	verbose     bool
	logFormat   string
	simulate    bool
	jsonOutput  bool
	executeMode bool

	settings    *settings.Settings
	cfg         *config.Config
	library     *configlet.Library
	checker     *auth.Checker
	auditLogger *audit.FileLogger
	sim         *simdevice.Device
}

var app = &App{}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if app.auditLogger != nil {
		app.auditLogger.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, red("Error:"), err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "ifconf",
	Short:             "NETCONF interface configuration tool",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `ifconf reads and changes router interface configuration over NETCONF.

Write commands preview changes by default; use -x to execute.

  ifconf -c <config> -d <device> <command> [args] [-x]`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if app.verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}
		switch app.logFormat {
		case "", "text":
		case "json":
			util.SetJSONFormat()
		default:
			return fmt.Errorf("invalid --log-format %q (valid: text, json)", app.logFormat)
		}

		if isSettingsOrHelp(cmd) {
			return nil
		}
		return app.load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "Configuration file (devices, fragments, scenarios)")
	rootCmd.PersistentFlags().StringVarP(&app.deviceName, "device", "d", "", "Device name")
	rootCmd.PersistentFlags().StringVar(&app.datastore, "datastore", "", "Datastore: running, candidate or startup")
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&app.logFormat, "log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().BoolVar(&app.simulate, "simulate", false, "Run against a simulated CSR instead of a live device")
	rootCmd.PersistentFlags().BoolVar(&app.jsonOutput, "json", false, "JSON output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "device", Title: "Device Operations:"},
		&cobra.Group{ID: "meta", Title: "Configuration & Meta:"},
	)

	for _, cmd := range []*cobra.Command{showCmd, validateCmd, applyCmd, runCmd} {
		cmd.GroupID = "device"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{renderCmd, fragmentsCmd, auditCmd, settingsCmd, versionCmd} {
		cmd.GroupID = "meta"
		rootCmd.AddCommand(cmd)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Info())
	},
}

// load reads settings, the configuration file, fragments, the access
// policy, and opens the audit log.
func (a *App) load() error {
	s, err := settings.Load()
	if err != nil {
		util.Warnf("Could not load settings: %v", err)
		s = &settings.Settings{}
	}
	a.settings = s

	if a.configPath == "" {
		a.configPath = s.ConfigFile
	}
	if a.deviceName == "" {
		a.deviceName = s.DefaultDevice
	}

	if a.configPath != "" {
		cfg, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}

	lib, err := configlet.Builtin()
	if err != nil {
		return fmt.Errorf("loading built-in fragments: %w", err)
	}
	if a.cfg != nil && a.cfg.FragmentsPath() != "" {
		user, err := configlet.LoadDir(a.cfg.FragmentsPath())
		if err != nil {
			return err
		}
		lib.Merge(user)
	}
	a.library = lib
	util.WithFields(map[string]interface{}{
		"config":    a.configPath,
		"fragments": lib.Len(),
	}).Debug("Configuration loaded")

	var policy *auth.Policy
	if a.cfg != nil {
		policy = a.cfg.Access
	}
	a.checker = auth.NewChecker(policy)

	auditPath := s.AuditLog
	if auditPath == "" && a.cfg != nil {
		auditPath = a.cfg.AuditPath()
	}
	if auditPath == "" {
		auditPath = filepath.Join(filepath.Dir(settings.DefaultSettingsPath()), "audit.log")
	}
	logger, err := audit.NewFileLogger(auditPath, audit.RotationConfig{
		MaxSize:    10 * 1024 * 1024, // 10MB
		MaxBackups: 10,
	})
	if err != nil {
		util.Warnf("Could not initialize audit logging: %v", err)
	} else {
		a.auditLogger = logger
		audit.SetDefaultLogger(logger)
		util.Debugf("Audit log: %s", logger.Path())
	}
	return nil
}

// datastoreName picks --datastore, then settings, then the config file.
func (a *App) datastoreName() string {
	if a.datastore != "" {
		return a.datastore
	}
	if a.settings != nil && a.settings.Datastore != "" {
		return a.settings.Datastore
	}
	if a.cfg != nil {
		return a.cfg.GetDatastore()
	}
	return "running"
}

// readFilter returns the configured read filter (fragment name or inline
// XML); empty selects the built-in interfaces filter.
func (a *App) readFilter() string {
	if a.cfg != nil {
		return a.cfg.Filter
	}
	return ""
}

func isSettingsOrHelp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "version", "settings":
			return true
		}
	}
	return false
}

// addWriteFlags registers -x/--execute as a local flag.
func addWriteFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&app.executeMode, "execute", "x", false, "Execute changes (default is dry-run)")
}

// Helper to print dry-run notice
func printDryRunNotice() {
	if !app.executeMode {
		fmt.Println("\n" + yellow("DRY-RUN: No changes applied. Use -x to execute."))
	}
}

// Color helpers delegate to pkg/cli
func green(s string) string  { return cli.Green(s) }
func yellow(s string) string { return cli.Yellow(s) }
func red(s string) string    { return cli.Red(s) }
func bold(s string) string   { return cli.Bold(s) }
