package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/newtron-network/ifconf/internal/simdevice"
	"github.com/newtron-network/ifconf/pkg/auth"
	"github.com/newtron-network/ifconf/pkg/config"
	"github.com/newtron-network/ifconf/pkg/device"
)

// endpoint resolves a device name (empty selects the default) to a session
// endpoint and dial options. With --simulate every session goes to one
// in-process CSR, so state persists across the command's sessions.
func (a *App) endpoint(name string) (device.Endpoint, device.Options, error) {
	if a.simulate {
		ep := device.Endpoint{Name: "simulated", Host: "127.0.0.1", Username: "developer"}
		if a.cfg != nil {
			if e, err := a.cfg.Endpoint(name); err == nil {
				ep = e
			}
		}
		if a.sim == nil {
			a.sim = simdevice.NewCSR(ep.Label())
		}
		sim := a.sim
		return ep, device.Options{
			Dialer: func(context.Context, device.Endpoint) (device.Transport, error) {
				return sim.Connect(), nil
			},
		}, nil
	}

	if a.cfg == nil {
		return device.Endpoint{}, device.Options{}, fmt.Errorf("no configuration: use -c <file>, 'ifconf settings set config_file <file>', or --simulate")
	}
	ep, err := a.cfg.Endpoint(name)
	if err != nil {
		return device.Endpoint{}, device.Options{}, err
	}
	if ep.Password == "" {
		pw, err := promptPassword(ep)
		if err != nil {
			return device.Endpoint{}, device.Options{}, err
		}
		ep.Password = pw
	}
	return ep, device.Options{}, nil
}

// deviceLabel names the target device without opening anything or asking
// for a password, for permission checks, previews and audit records. It
// matches the label of the endpoint that endpoint would return.
func (a *App) deviceLabel() string {
	if a.cfg != nil {
		if name, err := a.cfg.ResolveDevice(a.deviceName); err == nil {
			return name
		}
	}
	if a.simulate {
		return "simulated"
	}
	return a.deviceName
}

// promptPassword reads a password from the terminal. Non-interactive runs
// must supply it through the config or the environment.
func promptPassword(ep device.Endpoint) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no password for %s: set password_env in the config or %s", ep.Label(), config.PasswordEnv)
	}
	fmt.Fprintf(os.Stderr, "Password for %s: ", ep.String())
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

// checkPermission verifies the current user may perform permission on the
// device.
func (a *App) checkPermission(permission auth.Permission, ctx *auth.Context) error {
	if a.checker == nil {
		return nil
	}
	return a.checker.Check(permission, ctx)
}

func deviceContext(name string) *auth.Context {
	return auth.NewContext().WithDevice(name)
}
