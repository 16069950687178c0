package device

import (
	"fmt"
	"strings"

	"github.com/newtron-network/ifconf/pkg/xmltree"
)

// Datastores that may be named as a source or target.
var datastores = map[string]bool{
	"running":   true,
	"candidate": true,
	"startup":   true,
}

func checkDatastore(op, name string) error {
	if !datastores[name] {
		return &RPCError{Operation: op, Err: fmt.Errorf("unknown datastore %q", name)}
	}
	return nil
}

func getConfigRPC(source, filter string) string {
	return fmt.Sprintf("<get-config><source><%s/></source>%s</get-config>", source, filter)
}

func validateRPC(source string) string {
	return fmt.Sprintf("<validate><source><%s/></source></validate>", source)
}

func editConfigRPC(target, config string) string {
	return fmt.Sprintf("<edit-config><target><%s/></target>%s</edit-config>", target, config)
}

const commitRPC = "<commit/>"

// subtreeFilter checks filter is well-formed and wraps it in a subtree
// <filter> element unless it already is one. An empty filter selects
// everything.
func subtreeFilter(filter string) (string, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return "", nil
	}
	root, err := xmltree.Parse([]byte(filter))
	if err != nil {
		return "", fmt.Errorf("malformed filter: %w", err)
	}
	if root.Name == "filter" {
		return filter, nil
	}
	return `<filter type="subtree">` + filter + `</filter>`, nil
}

// checkConfigPayload requires a well-formed document rooted at <config>.
func checkConfigPayload(payload string) error {
	root, err := xmltree.Parse([]byte(payload))
	if err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	if root.Name != "config" {
		return fmt.Errorf("payload root is <%s>, want <config>", root.Name)
	}
	return nil
}

// replyErrors extracts every <rpc-error> under the reply root.
func replyErrors(tree *xmltree.Node) []RPCErrorDetail {
	var out []RPCErrorDetail
	for _, e := range tree.ChildrenNamed("rpc-error") {
		d := RPCErrorDetail{}
		d.Type, _ = e.ChildText("error-type")
		d.Tag, _ = e.ChildText("error-tag")
		d.Severity, _ = e.ChildText("error-severity")
		d.Path, _ = e.ChildText("error-path")
		d.Message, _ = e.ChildText("error-message")
		if info := e.Child("error-info"); info != nil {
			var kv []string
			for _, c := range info.Children {
				kv = append(kv, c.Name+"="+c.Text)
			}
			if len(kv) == 0 && info.Text != "" {
				kv = append(kv, info.Text)
			}
			d.Info = strings.Join(kv, " ")
		}
		out = append(out, d)
	}
	return out
}

// hasError reports whether any detail has error severity. Warnings alone do
// not fail an RPC.
func hasError(details []RPCErrorDetail) bool {
	for _, d := range details {
		if d.Severity != "warning" {
			return true
		}
	}
	return false
}
