package model

import "time"

const AppName = "nfs-exports"

const (
	// ProtocolNFS is the share type tag the export-table manager registers under.
	ProtocolNFS = "nfs"

	DefaultExportsFile = "/etc/exports.d/nfs-exports.exports"
	DefaultExportfsBin = "/usr/sbin/exportfs"
)

type Config struct {
	ExportsFile     string        `env:"NFS_EXPORTS_FILE" envDefault:"/etc/exports.d/nfs-exports.exports"`
	ExportsLock     string        `env:"NFS_EXPORTS_LOCK"`
	ExportfsBin     string        `env:"NFS_EXPORTFS_BIN" envDefault:"/usr/sbin/exportfs"`
	LockTimeout     time.Duration `env:"NFS_LOCK_TIMEOUT" envDefault:"30s"`
	CheckMountpoint bool          `env:"NFS_CHECK_MOUNTPOINT" envDefault:"true"`
}

// LockPath returns the lock file path, defaulting to a companion of the exports file.
func (c *Config) LockPath() string {
	if c.ExportsLock != "" {
		return c.ExportsLock
	}
	return c.ExportsFile + ".lock"
}

type AgentConfig struct {
	Config

	ListenAddr     string        `env:"AGENT_LISTEN_ADDR" envDefault:":8080"`
	Tokens         string        `env:"AGENT_TOKENS,required"`
	TLSCert        string        `env:"AGENT_TLS_CERT"`
	TLSKey         string        `env:"AGENT_TLS_KEY"`
	CommitInterval time.Duration `env:"AGENT_COMMIT_INTERVAL" envDefault:"10m"`
}
