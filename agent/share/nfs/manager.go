package nfs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/erikmagkekse/nfs-exports/agent/share"
	"github.com/erikmagkekse/nfs-exports/model"
	"github.com/erikmagkekse/nfs-exports/utils"

	"github.com/rs/zerolog/log"
)

// commitArgs asks exportfs to re-read every exports file and sync the kernel table.
var commitArgs = []string{"-ra"}

// Manager keeps the NFS exports table in step with enabled shares. It has no
// state of its own beyond the table file.
type Manager struct {
	table       *Table
	guard       *Guard
	cmd         utils.Runner
	exportfsBin string
	mounts      MountChecker
}

// NewManager builds a manager for cfg. cmd runs the reload command; nil uses
// the host shell.
func NewManager(cfg *model.Config, cmd utils.Runner) *Manager {
	dir := filepath.Dir(cfg.ExportsFile)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("failed to create exports directory")
	}

	if cmd == nil {
		cmd = &utils.ShellRunner{}
	}
	var mounts MountChecker
	if cfg.CheckMountpoint {
		mounts = NewMountChecker()
	}
	return &Manager{
		table:       NewTable(cfg.ExportsFile),
		guard:       NewGuard(cfg.LockPath(), cfg.ExportsFile, cfg.LockTimeout),
		cmd:         cmd,
		exportfsBin: cfg.ExportfsBin,
		mounts:      mounts,
	}
}

// Register makes the manager available under the nfs protocol tag.
func (m *Manager) Register(r *share.Registry) error {
	return r.Register(model.ProtocolNFS, m)
}

func (m *Manager) Table() *Table { return m.table }

// Enable replaces the table entries for the share's mountpoint with the ones
// its current options describe. On any failure the published table is left
// as it was.
func (m *Manager) Enable(ctx context.Context, s *share.Share) (err error) {
	start := time.Now()
	defer func() { observe("enable", start, err) }()

	if err := validateMountpoint(s.Mountpoint); err != nil {
		return err
	}
	opts := s.Options(model.ProtocolNFS)

	lock, err := m.guard.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release(lock, &err)

	txn, err := m.table.Begin(s.Mountpoint)
	if err != nil {
		return err
	}

	translated, err := Translate(opts)
	if err != nil {
		txn.Abort()
		return err
	}

	if translated != nil {
		m.warnIfNotMountpoint(s.Mountpoint)
	}

	var hosts int
	err = ExpandHosts(opts, s.Mountpoint, func(h HostEntry) error {
		hosts++
		return txn.Append(h.Line(translated))
	})
	if err != nil {
		txn.Abort()
		return err
	}

	if err := txn.Commit(); err != nil {
		return err
	}

	log.Info().Str("mountpoint", s.Mountpoint).Int("hosts", hosts).Str("options", translated.String()).Msg("share enabled")
	return nil
}

// Disable removes every table entry for the share's mountpoint. Disabling a
// share that was never enabled succeeds.
func (m *Manager) Disable(ctx context.Context, s *share.Share) (err error) {
	start := time.Now()
	defer func() { observe("disable", start, err) }()

	if err := validateMountpoint(s.Mountpoint); err != nil {
		return err
	}

	lock, err := m.guard.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release(lock, &err)

	txn, err := m.table.Begin(s.Mountpoint)
	if err != nil {
		return err
	}
	if err := txn.Commit(); err != nil {
		return err
	}

	log.Info().Str("mountpoint", s.Mountpoint).Msg("share disabled")
	return nil
}

// IsShared reads the published table without locking; the table is only ever
// replaced whole, so readers never see a partial rewrite.
func (m *Manager) IsShared(s *share.Share) (bool, error) {
	if err := validateMountpoint(s.Mountpoint); err != nil {
		return false, err
	}
	return m.table.Exists(s.Mountpoint)
}

func (m *Manager) ValidateOptions(opts string) error {
	_, err := Translate(opts)
	return err
}

// Commit asks the NFS server to re-read the exports table. A failure leaves the
// table as is; the next successful commit applies it.
func (m *Manager) Commit(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { observe("commit", start, err) }()

	out, err := m.cmd.Run(ctx, m.exportfsBin, commitArgs...)
	if err != nil {
		log.Error().Err(err).Str("output", strings.TrimSpace(out)).Msg("failed to reload exports")
		return systemError(err, "reload exports")
	}
	log.Debug().Str("bin", m.exportfsBin).Msg("exports reloaded")
	return nil
}

// Generate renders the lines Enable would write for s without touching the table.
func (m *Manager) Generate(s *share.Share) ([]string, error) {
	opts := s.Options(model.ProtocolNFS)
	translated, err := Translate(opts)
	if err != nil {
		return nil, err
	}
	var lines []string
	err = ExpandHosts(opts, s.Mountpoint, func(h HostEntry) error {
		lines = append(lines, h.Line(translated))
		return nil
	})
	return lines, err
}

// List returns every entry of the published table.
func (m *Manager) List() ([]ExportEntry, error) {
	entries, err := m.table.List()
	if err != nil {
		return nil, err
	}
	EntriesGauge.Set(float64(len(entries)))
	return entries, nil
}

func (m *Manager) warnIfNotMountpoint(path string) {
	if m.mounts == nil {
		return
	}
	ok, err := m.mounts.IsMountpoint(path)
	if err != nil {
		log.Warn().Err(err).Str("mountpoint", path).Msg("could not check mountpoint")
		return
	}
	if !ok {
		log.Warn().Str("mountpoint", path).Msg("path is not a mountpoint, exportfs will skip it")
	}
}

// validateMountpoint rejects paths that cannot be written as the first field
// of an exports line.
func validateMountpoint(path string) error {
	if path == "" || !filepath.IsAbs(path) {
		return &ShareError{Code: ErrInvalid, Message: "mountpoint must be an absolute path: " + path}
	}
	if strings.ContainsAny(path, " \t\r\n") {
		return &ShareError{Code: ErrInvalid, Message: "mountpoint must not contain whitespace: " + path}
	}
	return nil
}

func release(lock *Lock, err *error) {
	rerr := lock.Release()
	if rerr == nil {
		return
	}
	if *err == nil {
		*err = rerr
		return
	}
	log.Error().Err(rerr).Msg("failed to release exports lock")
}

func observe(op string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	OpsTotal.WithLabelValues(op, result).Inc()
	OpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
