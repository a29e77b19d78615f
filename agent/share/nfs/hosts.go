package nfs

import (
	"fmt"
	"strings"
)

const (
	// DefaultSec is the security flavor applied until a sec= token overrides it.
	DefaultSec = "sys"

	AccessRO = "ro"
	AccessRW = "rw"

	allHosts = "*"
)

// HostEntry authorizes one host for one mountpoint.
type HostEntry struct {
	Path   string
	Host   string
	Sec    string
	Access string
}

// Line renders the entry as one exports(5) line terminated by a newline.
func (h HostEntry) Line(opts Options) string {
	return fmt.Sprintf("%s %s(sec=%s,%s,%s)\n", h.Path, h.Host, h.Sec, h.Access, opts)
}

// hostScan is the state threaded through a left-to-right scan of the option
// string. A sec token only affects the ro/rw groups that follow it.
type hostScan struct {
	path string
	sec  string
}

// step folds one option into the scan, returning the next state and the
// entries the option produces.
func (s hostScan) step(o option) (hostScan, []HostEntry) {
	switch o.key {
	case "sec":
		// a bare "sec" names no flavor and leaves the current one in place
		if o.set {
			s.sec = o.value
		}
		return s, nil
	case AccessRO, AccessRW:
		hosts := allHosts
		if o.set {
			hosts = o.value
		}
		var entries []HostEntry
		for h := range strings.SplitSeq(hosts, ":") {
			entries = append(entries, HostEntry{
				Path:   s.path,
				Host:   linuxHostSpec(h),
				Sec:    s.sec,
				Access: o.key,
			})
		}
		return s, entries
	}
	return s, nil
}

// linuxHostSpec converts a host specifier to exports(5) syntax. Network masks
// are written as @10.0.0.0/8; the @ is dropped. Everything else passes through.
func linuxHostSpec(h string) string {
	return strings.TrimPrefix(h, "@")
}

// ExpandHosts calls fn for every host entry described by opts, in the order the
// hosts appear. An error from fn stops the scan and is returned as is; entries
// already handed to fn are not revisited.
func ExpandHosts(opts, mountpoint string, fn func(HostEntry) error) error {
	if isUnshared(opts) {
		return nil
	}
	state := hostScan{path: mountpoint, sec: DefaultSec}
	return eachOption(opts, func(o option) error {
		var entries []HostEntry
		state, entries = state.step(o)
		for _, e := range entries {
			if err := fn(e); err != nil {
				return err
			}
		}
		return nil
	})
}

// Hosts collects the entries produced by ExpandHosts.
func Hosts(opts, mountpoint string) ([]HostEntry, error) {
	var entries []HostEntry
	err := ExpandHosts(opts, mountpoint, func(e HostEntry) error {
		entries = append(entries, e)
		return nil
	})
	return entries, err
}
