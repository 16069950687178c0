package util

import "testing"

func TestSplitCommaSeparated(t *testing.T) {
	got := SplitCommaSeparated(" a, b ,,c")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("SplitCommaSeparated = %v", got)
	}
	if SplitCommaSeparated("") != nil {
		t.Error("empty input should return nil")
	}
}

func TestParseKeyValues(t *testing.T) {
	got, err := ParseKeyValues([]string{"interface=GigabitEthernet2", "description=a=b", "ip=1.1.1.1", "ip=2.2.2.2"})
	if err != nil {
		t.Fatal(err)
	}
	if got["interface"] != "GigabitEthernet2" || got["description"] != "a=b" || got["ip"] != "2.2.2.2" {
		t.Errorf("ParseKeyValues = %v", got)
	}
	if _, err := ParseKeyValues([]string{"novalue"}); err == nil {
		t.Error("expected error for missing '='")
	}
	if _, err := ParseKeyValues([]string{"=x"}); err == nil {
		t.Error("expected error for empty key")
	}
}
