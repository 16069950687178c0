package xmltree

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

const sampleReply = `<?xml version="1.0" encoding="UTF-8"?>
<rpc-reply xmlns="urn:ietf:params:xml:ns:netconf:base:1.0" message-id="101">
  <data>
    <interfaces xmlns="urn:ietf:params:xml:ns:yang:ietf-interfaces">
      <interface>
        <name>GigabitEthernet1</name>
        <description>MANAGEMENT INTERFACE - DON'T TOUCH ME</description>
        <enabled>true</enabled>
        <ipv4 xmlns="urn:ietf:params:xml:ns:yang:ietf-ip">
          <address>
            <ip>10.10.20.48</ip>
            <netmask>255.255.255.0</netmask>
          </address>
        </ipv4>
      </interface>
      <interface>
        <name>GigabitEthernet2</name>
        <enabled>false</enabled>
        <ipv4 xmlns="urn:ietf:params:xml:ns:yang:ietf-ip"/>
      </interface>
    </interfaces>
  </data>
</rpc-reply>`

func TestParse(t *testing.T) {
	root, err := Parse([]byte(sampleReply))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if root.Name != "rpc-reply" {
		t.Errorf("root = %q, want rpc-reply", root.Name)
	}
	if root.Space != "urn:ietf:params:xml:ns:netconf:base:1.0" {
		t.Errorf("root namespace = %q", root.Space)
	}
	if id, ok := root.Attr("message-id"); !ok || id != "101" {
		t.Errorf("message-id = %q, %v", id, ok)
	}
	if _, ok := root.Attr("xmlns"); ok {
		t.Error("namespace declarations must not be reported as attributes")
	}

	ifaces := root.Find("data", "interfaces").ChildrenNamed("interface")
	if len(ifaces) != 2 {
		t.Fatalf("got %d interfaces, want 2", len(ifaces))
	}
	if name, _ := ifaces[0].ChildText("name"); name != "GigabitEthernet1" {
		t.Errorf("first interface = %q", name)
	}
	if ip := ifaces[0].Find("ipv4", "address", "ip"); ip == nil || ip.Text != "10.10.20.48" {
		t.Errorf("ip node = %+v", ip)
	}
	if ifaces[1].Find("ipv4", "address") != nil {
		t.Error("second interface should have no address")
	}
	if _, ok := ifaces[1].ChildText("description"); ok {
		t.Error("second interface should have no description")
	}
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"empty":      "",
		"whitespace": "   \n",
		"unclosed":   "<a><b></a>",
		"two roots":  "<a/><b/>",
		"not markup": "hello",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(in)); err == nil {
				t.Errorf("expected error for %q", in)
			}
		})
	}
}

func TestFindMissing(t *testing.T) {
	root, err := Parse([]byte("<a><b/></a>"))
	if err != nil {
		t.Fatal(err)
	}
	if root.Find("b", "c") != nil {
		t.Error("expected nil for missing path")
	}
	var nilNode *Node
	if nilNode.Child("x") != nil || nilNode.ChildrenNamed("x") != nil {
		t.Error("nil node lookups should return nil")
	}
}

func TestMap(t *testing.T) {
	root, err := Parse([]byte(sampleReply))
	if err != nil {
		t.Fatal(err)
	}
	m := root.Map()
	reply := m["rpc-reply"].(map[string]any)
	if reply["@message-id"] != "101" {
		t.Errorf("@message-id = %v", reply["@message-id"])
	}
	ifaces := reply["data"].(map[string]any)["interfaces"].(map[string]any)
	list, ok := ifaces["interface"].([]any)
	if !ok || len(list) != 2 {
		t.Fatalf("interface should be a list of 2, got %#v", ifaces["interface"])
	}
	first := list[0].(map[string]any)
	if first["name"] != "GigabitEthernet1" {
		t.Errorf("name = %v", first["name"])
	}
	addr := first["ipv4"].(map[string]any)["address"].(map[string]any)
	if addr["netmask"] != "255.255.255.0" {
		t.Errorf("netmask = %v", addr["netmask"])
	}
	second := list[1].(map[string]any)
	ipv4 := second["ipv4"].(map[string]any)
	if _, ok := ipv4["address"]; ok {
		t.Error("empty ipv4 should have no address key")
	}
	if ipv4["@xmlns"] != "urn:ietf:params:xml:ns:yang:ietf-ip" {
		t.Errorf("@xmlns = %v", ipv4["@xmlns"])
	}
}

func TestMapSingleChildStaysScalar(t *testing.T) {
	root, err := Parse([]byte("<interfaces><interface><name>Loopback0</name></interface></interfaces>"))
	if err != nil {
		t.Fatal(err)
	}
	iface, ok := root.Map()["interfaces"].(map[string]any)["interface"].(map[string]any)
	if !ok {
		t.Fatalf("single interface should map to an object")
	}
	if iface["name"] != "Loopback0" {
		t.Errorf("name = %v", iface["name"])
	}
}

func TestJSON(t *testing.T) {
	root, err := Parse([]byte(`<ok/>`))
	if err != nil {
		t.Fatal(err)
	}
	out, err := root.JSON("  ")
	if err != nil {
		t.Fatal(err)
	}
	var back map[string]any
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("invalid JSON %s: %v", out, err)
	}
	if v, ok := back["ok"]; !ok || v != nil {
		t.Errorf("expected {\"ok\": null}, got %s", out)
	}
}

func TestPretty(t *testing.T) {
	in := `<config><interfaces xmlns="urn:ietf:params:xml:ns:yang:ietf-interfaces" xmlns:ip="urn:ietf:params:xml:ns:yang:ietf-ip"><interface><name>GigabitEthernet2</name><ip:ipv4><ip:address operation="delete"><ip:ip>1.1.1.1</ip:ip></ip:address></ip:ipv4></interface></interfaces></config>`
	out, err := Pretty([]byte(in), "  ")
	if err != nil {
		t.Fatalf("Pretty error: %v", err)
	}
	got := string(out)
	for _, want := range []string{
		"<config>\n  <interfaces",
		`xmlns:ip="urn:ietf:params:xml:ns:yang:ietf-ip"`,
		"\n        <ip:address operation=\"delete\">",
		"<ip:ip>1.1.1.1</ip:ip>",
		"\n</config>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("pretty output missing %q:\n%s", want, got)
		}
	}

	// The formatted document must parse to the same tree shape.
	a, _ := Parse([]byte(in))
	b, err := Parse(out)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if a.Find("interfaces", "interface", "ipv4", "address", "ip").Text != b.Find("interfaces", "interface", "ipv4", "address", "ip").Text {
		t.Error("pretty output changed content")
	}
}

func TestPrettyRejectsMalformed(t *testing.T) {
	if _, err := Pretty([]byte("<a><b></a>"), "  "); err == nil {
		t.Error("expected error for malformed input")
	}
}

func TestParseDeepIndentedNesting(t *testing.T) {
	// Many open elements with whitespace between them grow the parse stack
	// while earlier text buffers are still being written.
	var b strings.Builder
	depth := 40
	for i := 0; i < depth; i++ {
		b.WriteString("<level>\n  ")
	}
	b.WriteString("leaf")
	for i := 0; i < depth; i++ {
		b.WriteString("\n</level>")
	}
	root, err := Parse([]byte(b.String()))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	n := root
	for i := 1; i < depth; i++ {
		n = n.Child("level")
		if n == nil {
			t.Fatalf("missing level %d", i)
		}
	}
	if n.Text != "leaf" {
		t.Errorf("innermost text = %q, want leaf", n.Text)
	}
}

func TestParseKeepsPrefixes(t *testing.T) {
	in := `<interfaces xmlns="urn:ietf:params:xml:ns:yang:ietf-interfaces" xmlns:ip="urn:ietf:params:xml:ns:yang:ietf-ip"><interface><ip:ipv4/></interface></interfaces>`
	root, err := Parse([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	ipv4 := root.Find("interface", "ipv4")
	if ipv4 == nil {
		t.Fatal("ipv4 not found by local name")
	}
	if ipv4.Prefix != "ip" || ipv4.QName() != "ip:ipv4" {
		t.Errorf("prefix = %q, qname = %q", ipv4.Prefix, ipv4.QName())
	}
	if ipv4.Space != "urn:ietf:params:xml:ns:yang:ietf-ip" {
		t.Errorf("ipv4 namespace = %q", ipv4.Space)
	}
	if iface := root.Child("interface"); iface.Space != "urn:ietf:params:xml:ns:yang:ietf-interfaces" {
		t.Errorf("default namespace not inherited: %q", iface.Space)
	}
}

func TestParseMismatchedPrefix(t *testing.T) {
	if _, err := Parse([]byte(`<a:x xmlns:a="u" xmlns:b="u"></b:x>`)); err == nil {
		t.Error("expected error when the closing tag uses another prefix")
	}
}

func TestJSONDocumentOrder(t *testing.T) {
	in := `<interface xmlns:ip="urn:ietf:params:xml:ns:yang:ietf-ip" operation="merge"><name>Gi2</name><enabled>true</enabled><description>x</description><ip:ipv4/><name>Gi3</name></interface>`
	root, err := Parse([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	out := compactJSON(t, root)
	want := `{"interface":{"@xmlns:ip":"urn:ietf:params:xml:ns:yang:ietf-ip","@operation":"merge","name":["Gi2","Gi3"],"enabled":"true","description":"x","ip:ipv4":null}}`
	if out != want {
		t.Errorf("JSON =\n%s\nwant\n%s", out, want)
	}
	if _, ok := root.Map()["interface"].(map[string]any)["ip:ipv4"]; !ok {
		t.Error("Map should key prefixed elements by their written name")
	}
}

func TestJSONMixedContentTextLast(t *testing.T) {
	root, err := Parse([]byte(`<error-message xml:lang="en">bad value</error-message>`))
	if err != nil {
		t.Fatal(err)
	}
	out := compactJSON(t, root)
	if want := `{"error-message":{"@xml:lang":"en","#text":"bad value"}}`; out != want {
		t.Errorf("JSON = %s, want %s", out, want)
	}
}

func compactJSON(t *testing.T, n *Node) string {
	t.Helper()
	out, err := n.JSON("  ")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, out); err != nil {
		t.Fatalf("invalid JSON %s: %v", out, err)
	}
	return buf.String()
}
