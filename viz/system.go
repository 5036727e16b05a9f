// ABOUTME: System health report for administrators
// ABOUTME: Table sizes, runtime memory, recent backups and the admin audit trail
package viz

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"time"

	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/models"
)

const (
	reportBackups   = 10
	reportAdminLogs = 20
)

type RuntimeStats struct {
	GoVersion    string  `json:"go_version"`
	NumCPU       int     `json:"num_cpu"`
	Goroutines   int     `json:"goroutines"`
	HeapAllocMB  float64 `json:"heap_alloc_mb"`
	SysMB        float64 `json:"sys_mb"`
	NumGC        uint32  `json:"num_gc"`
	UptimeSecond int64   `json:"uptime_seconds"`
}

type SystemReport struct {
	Tables        []db.TableCount   `json:"tables"`
	DatabaseBytes int64             `json:"database_bytes"`
	Runtime       RuntimeStats      `json:"runtime"`
	Backups       []db.BackupInfo   `json:"backups"`
	AdminLogs     []models.AdminLog `json:"admin_logs"`
}

// GenerateSystemReport collects storage and process statistics. startedAt is
// when the serving process came up.
func GenerateSystemReport(ctx context.Context, database *sql.DB, backupDir string, startedAt, now time.Time) (*SystemReport, error) {
	tables, err := db.TableCounts(ctx, database)
	if err != nil {
		return nil, err
	}
	size, err := db.DatabaseSize(ctx, database)
	if err != nil {
		return nil, fmt.Errorf("failed to read database size: %w", err)
	}
	backups, err := db.ListBackups(backupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	logs, err := db.ListAdminLogs(ctx, database, reportAdminLogs)
	if err != nil {
		return nil, fmt.Errorf("failed to list admin logs: %w", err)
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return &SystemReport{
		Tables:        tables,
		DatabaseBytes: size,
		Runtime: RuntimeStats{
			GoVersion:    runtime.Version(),
			NumCPU:       runtime.NumCPU(),
			Goroutines:   runtime.NumGoroutine(),
			HeapAllocMB:  toMB(mem.HeapAlloc),
			SysMB:        toMB(mem.Sys),
			NumGC:        mem.NumGC,
			UptimeSecond: int64(now.Sub(startedAt).Seconds()),
		},
		Backups:   backups[:min(reportBackups, len(backups))],
		AdminLogs: logs,
	}, nil
}

func toMB(b uint64) float64 {
	return float64(b) / (1 << 20)
}
