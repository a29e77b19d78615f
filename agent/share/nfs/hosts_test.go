package nfs

import (
	"errors"
	"slices"
	"testing"
)

func TestHosts(t *testing.T) {
	tests := []struct {
		name string
		opts string
		want []HostEntry
	}{
		{
			name: "no host tokens",
			opts: "sync,no_root_squash",
			want: nil,
		},
		{
			name: "bare rw means all hosts",
			opts: "rw",
			want: []HostEntry{{Path: "/data", Host: "*", Sec: "sys", Access: "rw"}},
		},
		{
			name: "on shorthand",
			opts: "on",
			want: []HostEntry{{Path: "/data", Host: "*", Sec: "sys", Access: "rw"}},
		},
		{
			name: "network mask loses @",
			opts: "rw=@192.168.1.0/24",
			want: []HostEntry{{Path: "/data", Host: "192.168.1.0/24", Sec: "sys", Access: "rw"}},
		},
		{
			name: "host list with preceding sec",
			opts: "sec=krb5,rw=host1:host2",
			want: []HostEntry{
				{Path: "/data", Host: "host1", Sec: "krb5", Access: "rw"},
				{Path: "/data", Host: "host2", Sec: "krb5", Access: "rw"},
			},
		},
		{
			name: "sec only affects later groups",
			opts: "ro=alpha,sec=krb5p,rw=@10.0.0.0/8,sec=krb5i",
			want: []HostEntry{
				{Path: "/data", Host: "alpha", Sec: "sys", Access: "ro"},
				{Path: "/data", Host: "10.0.0.0/8", Sec: "krb5p", Access: "rw"},
			},
		},
		{
			name: "bare sec keeps current flavor",
			opts: "sec=krb5,sec,ro",
			want: []HostEntry{{Path: "/data", Host: "*", Sec: "krb5", Access: "ro"}},
		},
		{
			name: "wildcards and netgroups pass through",
			opts: "ro=*.example.org:@netgroup:@@odd",
			want: []HostEntry{
				{Path: "/data", Host: "*.example.org", Sec: "sys", Access: "ro"},
				{Path: "/data", Host: "netgroup", Sec: "sys", Access: "ro"},
				{Path: "/data", Host: "@odd", Sec: "sys", Access: "ro"},
			},
		},
		{
			name: "off publishes nothing",
			opts: "off",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Hosts(tt.opts, "/data")
			if err != nil {
				t.Fatalf("Hosts(%q) error: %v", tt.opts, err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Hosts(%q) =\n%+v\nwant\n%+v", tt.opts, got, tt.want)
			}
		})
	}
}

func TestExpandHostsStopsOnError(t *testing.T) {
	boom := errors.New("disk full")
	var seen []string
	err := ExpandHosts("rw=a:b:c,ro=d", "/data", func(h HostEntry) error {
		seen = append(seen, h.Host)
		if h.Host == "b" {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("ExpandHosts() error = %v, want %v", err, boom)
	}
	if !slices.Equal(seen, []string{"a", "b"}) {
		t.Errorf("callback saw %v, want [a b]", seen)
	}
}

func TestHostEntryLine(t *testing.T) {
	const opts = "rw=192.168.1.0/24,sec=sys,no_root_squash"

	translated, err := Translate(opts)
	if err != nil {
		t.Fatalf("Translate() error: %v", err)
	}
	hosts, err := Hosts(opts, "/data")
	if err != nil {
		t.Fatalf("Hosts() error: %v", err)
	}
	if len(hosts) != 1 {
		t.Fatalf("expected 1 host entry, got %d", len(hosts))
	}

	want := "/data 192.168.1.0/24(sec=sys,rw,no_subtree_check,mountpoint,no_root_squash)\n"
	if got := hosts[0].Line(translated); got != want {
		t.Errorf("Line() = %q, want %q", got, want)
	}
}
