package simdevice

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Juniper/go-netconf/netconf"

	"github.com/newtron-network/ifconf/pkg/util"
	"github.com/newtron-network/ifconf/pkg/xmltree"
)

// Capabilities advertised in the hello.
var Capabilities = []string{
	"urn:ietf:params:netconf:base:1.0",
	"urn:ietf:params:netconf:base:1.1",
	"urn:ietf:params:netconf:capability:candidate:1.0",
	"urn:ietf:params:netconf:capability:validate:1.1",
	NSInterfaces + "?module=ietf-interfaces",
	NSIP + "?module=ietf-ip",
}

// RejectFunc inspects an incoming RPC and returns a non-empty message to
// reject it with an operation-failed rpc-error.
type RejectFunc func(op, rpc string) string

// Device holds running and candidate datastores shared by every connection.
type Device struct {
	Name string

	// Reject, when set, may veto any RPC before it is applied.
	Reject RejectFunc

	mu        sync.Mutex
	running   datastore
	candidate datastore
	nextID    int
	open      int
	requests  []string
}

// New creates a device whose running and candidate datastores hold
// interfaces.
func New(name string, interfaces ...Interface) *Device {
	ds := datastore(interfaces).clone()
	return &Device{Name: name, running: ds, candidate: ds.clone()}
}

// NewCSR returns a device configured like a freshly booted CSR1000v
// sandbox: a management interface plus two unaddressed data interfaces.
func NewCSR(name string) *Device {
	return New(name,
		Interface{
			Name:        "GigabitEthernet1",
			Description: "MANAGEMENT INTERFACE - DON'T TOUCH ME",
			Type:        TypeEthernet,
			Enabled:     true,
			Addresses:   []Address{{IP: "10.10.20.48", Netmask: "255.255.255.0"}},
		},
		Interface{Name: "GigabitEthernet2", Description: "Network Interface", Type: TypeEthernet},
		Interface{Name: "GigabitEthernet3", Description: "Network Interface", Type: TypeEthernet},
	)
}

// Connect opens a new session against the device.
func (d *Device) Connect() *Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	d.open++
	util.WithDevice(d.Name).Debugf("Simulated session %d opened", d.nextID)
	return &Conn{dev: d, id: d.nextID}
}

// OpenSessions returns the number of connections not yet closed.
func (d *Device) OpenSessions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// Requests returns the RPC names received, in order.
func (d *Device) Requests() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.requests...)
}

// Running returns a copy of the running datastore.
func (d *Device) Running() []Interface {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running.clone()
}

// Interface returns a copy of the named running interface.
func (d *Device) Interface(name string) (Interface, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i := d.running.index(name); i >= 0 {
		return d.running[i].clone(), true
	}
	return Interface{}, false
}

// Conn is one NETCONF session to a Device. It satisfies the transport
// interface of the session client.
type Conn struct {
	dev    *Device
	id     int
	closed bool
}

// ID returns the session-id.
func (c *Conn) ID() int { return c.id }

// Capabilities returns the hello capabilities.
func (c *Conn) Capabilities() []string {
	return append([]string(nil), Capabilities...)
}

// Close ends the session. Closing twice is an error, as on a real device.
func (c *Conn) Close() error {
	c.dev.mu.Lock()
	defer c.dev.mu.Unlock()
	if c.closed {
		return errors.New("session already closed")
	}
	c.closed = true
	c.dev.open--
	return nil
}

// Exec handles one RPC. Rejections return both a reply carrying the
// rpc-error and a non-nil error, as the go-netconf client does. RawReply
// holds the full rpc-reply envelope.
func (c *Conn) Exec(methods ...netconf.RPCMethod) (*netconf.RPCReply, error) {
	c.dev.mu.Lock()
	defer c.dev.mu.Unlock()

	if c.closed {
		return nil, errors.New("session closed")
	}

	msg := netconf.NewRPCMessage(methods)
	reply, err := c.handle(methods)
	if reply != nil {
		reply.RawReply = fmt.Sprintf(`<rpc-reply xmlns="%s" message-id="%s">%s</rpc-reply>`, baseNamespace, msg.MessageID, reply.Data)
	}
	return reply, err
}

const baseNamespace = "urn:ietf:params:xml:ns:netconf:base:1.0"

func (c *Conn) handle(methods []netconf.RPCMethod) (*netconf.RPCReply, error) {

	var sb strings.Builder
	for _, m := range methods {
		sb.WriteString(m.MarshalMethod())
	}
	body := sb.String()

	req, err := xmltree.Parse([]byte(body))
	if err != nil {
		return rpcError("protocol", "malformed-message", err.Error())
	}
	c.dev.requests = append(c.dev.requests, req.Name)

	if c.dev.Reject != nil {
		if msg := c.dev.Reject(req.Name, body); msg != "" {
			return rpcError("application", "operation-failed", msg)
		}
	}

	switch req.Name {
	case "get-config":
		return c.dev.getConfig(req)
	case "validate":
		return ok()
	case "edit-config":
		return c.dev.editConfig(req)
	case "commit":
		c.dev.running = c.dev.candidate.clone()
		return ok()
	case "discard-changes":
		c.dev.candidate = c.dev.running.clone()
		return ok()
	default:
		return rpcError("protocol", "operation-not-supported", fmt.Sprintf("unsupported operation %s", req.Name))
	}
}

func (d *Device) store(name string) (*datastore, bool) {
	switch name {
	case "running":
		return &d.running, true
	case "candidate":
		return &d.candidate, true
	}
	return nil, false
}

func datastoreName(n *xmltree.Node) string {
	if n == nil || len(n.Children) == 0 {
		return ""
	}
	return n.Children[0].Name
}

func (d *Device) getConfig(req *xmltree.Node) (*netconf.RPCReply, error) {
	ds, found := d.store(datastoreName(req.Child("source")))
	if !found {
		return rpcError("protocol", "invalid-value", "unknown source datastore")
	}
	// Only the interfaces subtree is served.
	if f := req.Child("filter"); f != nil && len(f.Children) > 0 && f.Children[0].Name != "interfaces" {
		return &netconf.RPCReply{Data: "<data/>"}, nil
	}
	doc, err := ds.clone().marshal()
	if err != nil {
		return rpcError("application", "operation-failed", err.Error())
	}
	return &netconf.RPCReply{Data: "<data>" + doc + "</data>"}, nil
}

func (d *Device) editConfig(req *xmltree.Node) (*netconf.RPCReply, error) {
	ds, found := d.store(datastoreName(req.Child("target")))
	if !found {
		return rpcError("protocol", "invalid-value", "unknown target datastore")
	}
	config := req.Child("config")
	if config == nil {
		return rpcError("protocol", "missing-element", "edit-config without <config>")
	}

	// Edits apply to a copy so a rejected payload leaves the store untouched.
	work := ds.clone()
	for _, intf := range config.Find("interfaces").ChildrenNamed("interface") {
		var err *editError
		work, err = applyInterface(work, intf)
		if err != nil {
			return rpcError("application", err.tag, err.msg)
		}
	}
	*ds = work
	if ds == &d.running {
		d.candidate = d.running.clone()
	}
	return ok()
}

func ok() (*netconf.RPCReply, error) {
	return &netconf.RPCReply{Data: "<ok/>"}, nil
}

func rpcError(errType, tag, msg string) (*netconf.RPCReply, error) {
	var sb strings.Builder
	sb.WriteString("<rpc-error>")
	sb.WriteString("<error-type>" + errType + "</error-type>")
	sb.WriteString("<error-tag>" + tag + "</error-tag>")
	sb.WriteString("<error-severity>error</error-severity>")
	sb.WriteString("<error-message>")
	sb.WriteString(escape(msg))
	sb.WriteString("</error-message>")
	sb.WriteString("</rpc-error>")
	return &netconf.RPCReply{Data: sb.String()}, fmt.Errorf("netconf rpc [error] '%s'", msg)
}
