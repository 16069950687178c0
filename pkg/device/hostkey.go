package device

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/newtron-network/ifconf/pkg/util"
)

// hostKeyCheck records the verification failure seen during the handshake
// so a failed dial can be classified.
type hostKeyCheck struct {
	err error
}

// DefaultKnownHostsFile returns ~/.ssh/known_hosts.
func DefaultKnownHostsFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ssh", "known_hosts")
}

func hostKeyCallback(ep Endpoint) (ssh.HostKeyCallback, *hostKeyCheck, error) {
	check := &hostKeyCheck{}
	if ep.InsecureIgnoreHostKey {
		util.WithDevice(ep.Label()).Warnf("Host key verification DISABLED for %s; the server identity is not checked", ep.Address())
		return ssh.InsecureIgnoreHostKey(), check, nil
	}

	path := ep.KnownHostsFile
	if path == "" {
		path = DefaultKnownHostsFile()
	}
	if path == "" {
		return nil, nil, &HostkeyError{Host: ep.Address(), Reason: "no known_hosts file (home directory unknown)"}
	}
	if _, err := os.Stat(path); err != nil {
		return nil, nil, &HostkeyError{
			Host:   ep.Address(),
			Reason: fmt.Sprintf("known_hosts file %s unavailable; add the device key or opt in to insecure mode", path),
			Err:    err,
		}
	}

	verify, err := knownhosts.New(path)
	if err != nil {
		return nil, nil, &HostkeyError{Host: ep.Address(), Reason: "reading " + path, Err: err}
	}

	cb := func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		if err := verify(hostname, remote, key); err != nil {
			check.err = err
			return err
		}
		return nil
	}
	return cb, check, nil
}

// classifyHostKeyFailure turns a recorded verification failure into a
// HostkeyError.
func classifyHostKeyFailure(ep Endpoint, err error) *HostkeyError {
	reason := err.Error()
	var keyErr *knownhosts.KeyError
	if errors.As(err, &keyErr) {
		if len(keyErr.Want) == 0 {
			reason = "unknown host key"
		} else {
			reason = fmt.Sprintf("host key mismatch (known_hosts line %d)", keyErr.Want[0].Line)
		}
	}
	return &HostkeyError{Host: ep.Address(), Reason: reason, Err: err}
}
