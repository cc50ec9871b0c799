package metrics

import (
	"os"
	"runtime"
	"strings"

	"github.com/dustin/go-humanize"
)

// SysHealth is a snapshot of process memory and of the on-disk travel data.
type SysHealth struct {
	AllocMB      uint64
	SysMB        uint64
	NumGC        uint32
	Goroutines   int
	DBSize       string
	Snapshots    int
	SnapshotSize string
}

// GetSysHealth reads runtime memory stats, the size of the database file at
// dbPath and the JSON snapshots under snapshotDir. Missing paths count as empty.
func GetSysHealth(dbPath, snapshotDir string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	h := SysHealth{
		AllocMB:    m.Alloc / 1024 / 1024,
		SysMB:      m.Sys / 1024 / 1024,
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
	}

	var dbBytes uint64
	if info, err := os.Stat(dbPath); err == nil {
		dbBytes = uint64(info.Size())
	}
	h.DBSize = humanize.IBytes(dbBytes)

	n, size := snapshotUsage(snapshotDir)
	h.Snapshots = n
	h.SnapshotSize = humanize.IBytes(size)
	return h
}

func snapshotUsage(dir string) (count int, size uint64) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		count++
		size += uint64(info.Size())
	}
	return count, size
}
