// ABOUTME: Online database backups
// ABOUTME: Snapshots with VACUUM INTO, gzips the copy and lists existing archives
package db

import (
	"compress/gzip"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const backupSuffix = ".db.gz"

type BackupInfo struct {
	Name      string    `json:"name"`
	Path      string    `json:"-"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Backup writes a gzipped snapshot of the live database into dir.
// File names are ULIDs so they sort by creation time.
func Backup(ctx context.Context, db *sql.DB, dir string, now time.Time) (*BackupInfo, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	id := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy())
	name := "postman-" + strings.ToLower(id.String())
	snapshot := filepath.Join(dir, name+".db")
	defer os.Remove(snapshot)

	if _, err := db.ExecContext(ctx, `VACUUM INTO ?`, snapshot); err != nil {
		return nil, fmt.Errorf("failed to snapshot database: %w", err)
	}

	archive := filepath.Join(dir, name+backupSuffix)
	if err := gzipFile(snapshot, archive); err != nil {
		os.Remove(archive)
		return nil, err
	}

	st, err := os.Stat(archive)
	if err != nil {
		return nil, err
	}
	return &BackupInfo{Name: filepath.Base(archive), Path: archive, Size: st.Size(), CreatedAt: now.UTC()}, nil
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	zw := gzip.NewWriter(out)
	zw.Name = filepath.Base(src)
	if _, err := io.Copy(zw, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to compress backup: %w", err)
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ListBackups returns the archives in dir, newest first. A missing dir is empty.
func ListBackups(dir string) ([]BackupInfo, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var backups []BackupInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), backupSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}

		created := info.ModTime().UTC()
		idPart := strings.TrimSuffix(strings.TrimPrefix(e.Name(), "postman-"), backupSuffix)
		if id, err := ulid.ParseStrict(strings.ToUpper(idPart)); err == nil {
			created = ulid.Time(id.Time()).UTC()
		}

		backups = append(backups, BackupInfo{
			Name:      e.Name(),
			Path:      filepath.Join(dir, e.Name()),
			Size:      info.Size(),
			CreatedAt: created,
		})
	}

	slices.SortFunc(backups, func(a, b BackupInfo) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return backups, nil
}
