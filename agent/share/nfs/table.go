package nfs

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	dirMode   = 0o755
	tableMode = 0o644
)

// ExportEntry is one parsed line of the exports table.
type ExportEntry struct {
	Path    string `json:"path"`
	Host    string `json:"host"`
	Options string `json:"options"`
}

// Table is the on-disk exports file. It is never held in memory: mutations
// stream the current file into a temporary copy which is renamed over it.
type Table struct {
	path string
	// syncFile flushes a temporary table to disk; nil means (*os.File).Sync.
	syncFile func(*os.File) error
}

func NewTable(path string) *Table {
	return &Table{path: path}
}

func (t *Table) sync(f *os.File) error {
	if t.syncFile != nil {
		return t.syncFile(f)
	}
	return f.Sync()
}

func (t *Table) Path() string { return t.path }

// matchesMountpoint reports whether the path field of line, everything before
// the first space, is exactly mountpoint.
func matchesMountpoint(line, mountpoint string) bool {
	i := strings.IndexByte(line, ' ')
	return i == len(mountpoint) && line[:i] == mountpoint
}

// FilterCopy writes every line of srcPath to dstPath except those belonging to
// mountpoint. A missing srcPath is an empty table.
func FilterCopy(srcPath, dstPath, mountpoint string) error {
	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, tableMode)
	if err != nil {
		return systemError(err, "open %s", dstPath)
	}

	src, err := os.Open(srcPath)
	if errors.Is(err, fs.ErrNotExist) {
		return closeFile(dst)
	}
	if err != nil {
		_ = dst.Close()
		return systemError(err, "open %s", srcPath)
	}
	defer func() { _ = src.Close() }()

	if err := filterLines(src, dst, mountpoint); err != nil {
		_ = dst.Close()
		return systemError(err, "copy %s to %s", srcPath, dstPath)
	}
	return closeFile(dst)
}

func filterLines(r io.Reader, w io.Writer, mountpoint string) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)
	for {
		line, err := br.ReadString('\n')
		if line != "" && !matchesMountpoint(line, mountpoint) {
			if _, werr := bw.WriteString(line); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

func closeFile(f *os.File) error {
	if err := f.Close(); err != nil {
		return systemError(err, "close %s", f.Name())
	}
	return nil
}

// Begin starts a rewrite of the table with all lines for mountpoint removed.
// The caller must finish the returned Txn with Commit or Abort.
func (t *Table) Begin(mountpoint string) (*Txn, error) {
	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, systemError(err, "create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(t.path)+".*")
	if err != nil {
		return nil, systemError(err, "create temporary exports file")
	}
	name := tmp.Name()
	if err := tmp.Chmod(tableMode); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return nil, systemError(err, "chmod %s", name)
	}
	_ = tmp.Close()

	if err := FilterCopy(t.path, name, mountpoint); err != nil {
		_ = os.Remove(name)
		return nil, err
	}

	f, err := os.OpenFile(name, os.O_RDWR|os.O_APPEND, tableMode)
	if err != nil {
		_ = os.Remove(name)
		return nil, systemError(err, "open %s", name)
	}
	open, err := endsUnterminated(f)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return nil, systemError(err, "read %s", name)
	}
	return &Txn{table: t, tmp: f, unterminated: open}, nil
}

// endsUnterminated reports whether f is non-empty and its last byte is not a newline.
func endsUnterminated(f *os.File) (bool, error) {
	fi, err := f.Stat()
	if err != nil || fi.Size() == 0 {
		return false, err
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, fi.Size()-1); err != nil {
		return false, err
	}
	return last[0] != '\n', nil
}

// Replace renames tmpPath over the table. The temporary file is removed if the
// rename fails.
func (t *Table) Replace(tmpPath string) error {
	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		_ = os.Remove(tmpPath)
		return systemError(err, "create %s", dir)
	}
	if err := os.Rename(tmpPath, t.path); err != nil {
		_ = os.Remove(tmpPath)
		return systemError(err, "rename %s", tmpPath)
	}
	return nil
}

// Exists reports whether the table has at least one line for mountpoint.
// A missing table exports nothing.
func (t *Table) Exists(mountpoint string) (bool, error) {
	found := false
	err := t.eachLine(func(line string) bool {
		found = matchesMountpoint(line, mountpoint)
		return !found
	})
	return found, err
}

// List parses every entry in the table. Blank lines and comments are skipped.
func (t *Table) List() ([]ExportEntry, error) {
	var entries []ExportEntry
	err := t.eachLine(func(line string) bool {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			return true
		}
		entries = append(entries, parseEntry(line))
		return true
	})
	return entries, err
}

// parseEntry splits "path host(opts)" into its parts.
func parseEntry(line string) ExportEntry {
	path, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	host, opts, found := strings.Cut(rest, "(")
	if found {
		opts = strings.TrimSuffix(opts, ")")
	}
	return ExportEntry{Path: path, Host: host, Options: opts}
}

// eachLine streams the table, stopping when fn returns false.
func (t *Table) eachLine(fn func(line string) bool) error {
	f, err := os.Open(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return systemError(err, "open %s", t.path)
	}
	defer func() { _ = f.Close() }()

	br := bufio.NewReader(f)
	for {
		line, err := br.ReadString('\n')
		if line != "" && !fn(line) {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return systemError(err, "read %s", t.path)
		}
	}
}

// Txn is an in-progress rewrite of the table held in a temporary file.
type Txn struct {
	table *Table
	tmp   *os.File
	done  bool
	// unterminated is set while the copied table ends without a newline.
	unterminated bool
}

// Append writes one rendered line and syncs it to disk. A copied last line
// without a newline is terminated first so the new entry starts its own line.
func (x *Txn) Append(line string) error {
	if x.unterminated {
		line = "\n" + line
	}
	if _, err := x.tmp.WriteString(line); err != nil {
		return systemError(err, "write %s", x.tmp.Name())
	}
	x.unterminated = false
	if err := x.table.sync(x.tmp); err != nil {
		return systemError(err, "sync %s", x.tmp.Name())
	}
	return nil
}

// Commit publishes the rewritten table.
func (x *Txn) Commit() error {
	if x.done {
		return nil
	}
	x.done = true
	name := x.tmp.Name()
	if err := x.table.sync(x.tmp); err != nil {
		_ = x.tmp.Close()
		_ = os.Remove(name)
		return systemError(err, "sync %s", name)
	}
	if err := x.tmp.Close(); err != nil {
		_ = os.Remove(name)
		return systemError(err, "close %s", name)
	}
	return x.table.Replace(name)
}

// Abort discards the rewrite. It is a no-op after Commit.
func (x *Txn) Abort() {
	if x.done {
		return
	}
	x.done = true
	_ = x.tmp.Close()
	_ = os.Remove(x.tmp.Name())
}
