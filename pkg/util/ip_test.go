package util

import "testing"

func TestNetmaskToPrefix(t *testing.T) {
	tests := []struct {
		mask    string
		want    int
		wantErr bool
	}{
		{"255.255.255.0", 24, false},
		{"255.255.255.255", 32, false},
		{"255.255.255.252", 30, false},
		{"0.0.0.0", 0, false},
		{"255.0.255.0", 0, true},
		{"255.255.255", 0, true},
		{"::ffff:0", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.mask, func(t *testing.T) {
			got, err := NetmaskToPrefix(tt.mask)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NetmaskToPrefix(%q) error = %v, wantErr %v", tt.mask, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NetmaskToPrefix(%q) = %d, want %d", tt.mask, got, tt.want)
			}
		})
	}
}

func TestPrefixToNetmask(t *testing.T) {
	got, err := PrefixToNetmask(24)
	if err != nil || got != "255.255.255.0" {
		t.Errorf("PrefixToNetmask(24) = %q, %v", got, err)
	}
	if _, err := PrefixToNetmask(33); err == nil {
		t.Error("expected error for /33")
	}
}

func TestSplitIPMask(t *testing.T) {
	tests := []struct {
		in       string
		wantIP   string
		wantMask string
		wantErr  bool
	}{
		{"1.1.1.1/24", "1.1.1.1", "255.255.255.0", false},
		{"7.7.7.7/255.255.255.255", "7.7.7.7", "255.255.255.255", false},
		{"1.1.1.1", "", "", true},
		{"1.1.1/24", "", "", true},
		{"1.1.1.1/40", "", "", true},
		{"1.1.1.1/255.0.255.0", "", "", true},
	}
	for _, tt := range tests {
		ip, mask, err := SplitIPMask(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("SplitIPMask(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if ip != tt.wantIP || mask != tt.wantMask {
			t.Errorf("SplitIPMask(%q) = %q, %q; want %q, %q", tt.in, ip, mask, tt.wantIP, tt.wantMask)
		}
	}
}

func TestEnsurePort(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"10.10.20.48", "10.10.20.48:830"},
		{"10.10.20.48:10000", "10.10.20.48:10000"},
		{"ios-xe-mgmt.cisco.com", "ios-xe-mgmt.cisco.com:830"},
		{"example.com:", "example.com:830"},
		{"2001:db8::1", "[2001:db8::1]:830"},
		{"[2001:db8::1]:2022", "[2001:db8::1]:2022"},
	}
	for _, tt := range tests {
		if got := EnsurePort(tt.in, 830); got != tt.want {
			t.Errorf("EnsurePort(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsValidIPv4(t *testing.T) {
	if !IsValidIPv4("192.0.2.1") {
		t.Error("192.0.2.1 should be valid")
	}
	if IsValidIPv4("2001:db8::1") || IsValidIPv4("999.1.1.1") {
		t.Error("non-IPv4 input should be invalid")
	}
}
