package nfs

import (
	"strings"

	"k8s.io/utils/set"
)

const (
	// shareOn is the shorthand accepted in place of a full option string.
	shareOn = "on"
	// shareOff publishes nothing, same as an empty option string.
	shareOff = "off"

	shareOnOpts = "rw,crossmnt"
)

// linuxOpts lists every exports(5) option accepted after renaming.
var linuxOpts = set.New(
	"insecure", "secure",
	"async", "sync",
	"no_wdelay", "wdelay",
	"nohide", "hide",
	"crossmnt",
	"no_subtree_check", "subtree_check",
	"insecure_locks", "secure_locks",
	"no_auth_nlm", "auth_nlm",
	"no_acl",
	"mountpoint", "mp",
	"fsuid",
	"refer", "replicas",
	"root_squash", "no_root_squash",
	"all_squash", "no_all_squash",
	"fsid",
	"anonuid", "anongid",
)

// option is a single key or key=value token. set distinguishes "ro=" from "ro".
type option struct {
	key   string
	value string
	set   bool
}

func (o option) String() string {
	if o.set {
		return o.key + "=" + o.value
	}
	return o.key
}

// eachOption calls fn for every non-empty token of a share option string and
// stops at the first error.
func eachOption(opts string, fn func(option) error) error {
	if opts == shareOn {
		opts = shareOnOpts
	}
	for tok := range strings.SplitSeq(opts, ",") {
		if tok == "" {
			continue
		}
		key, value, found := strings.Cut(tok, "=")
		if err := fn(option{key: key, value: value, set: found}); err != nil {
			return err
		}
	}
	return nil
}

// Options is a translated exports(5) option list in emission order.
type Options []string

func (o Options) String() string {
	return strings.Join(o, ",")
}

// Translate converts a share option string into exports(5) options. Host and
// security tokens are skipped here; see ExpandHosts. An empty or "off" string
// yields no options.
func Translate(opts string) (Options, error) {
	if isUnshared(opts) {
		return nil, nil
	}
	if i := strings.IndexAny(opts, " \t\r\n()"); i >= 0 {
		return nil, syntaxError("share options must not contain %q", opts[i])
	}

	// no_subtree_check is the nfs-utils default and silences an exportfs warning;
	// mountpoint restricts the export to a mounted filesystem.
	out := Options{"no_subtree_check", "mountpoint"}

	err := eachOption(opts, func(o option) error {
		switch o.key {
		case "ro", "rw", "sec":
			return nil
		case "anon":
			o.key = "anonuid"
		case "root_mapping":
			out = append(out, "root_squash")
			o.key = "anonuid"
		case "nosub":
			o.key = "subtree_check"
		}
		if !linuxOpts.Has(o.key) {
			return syntaxError("unrecognized share option %q", o.key)
		}
		out = append(out, o.String())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func isUnshared(opts string) bool {
	return opts == "" || opts == shareOff
}
