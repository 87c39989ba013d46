package health

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// DataDirChecker probes that the document root exists and is writable by
// creating and removing a marker file. Every persisted entity lives under
// this directory, so losing it means the service cannot do useful work.
type DataDirChecker struct {
	dir     string
	healthy atomic.Int32
	log     zerolog.Logger
}

func NewDataDirChecker(dir string, log zerolog.Logger) *DataDirChecker {
	c := &DataDirChecker{dir: dir, log: log}
	c.healthy.Store(0)
	return c
}

func (c *DataDirChecker) Name() string { return "datadir" }

// IsHealthy returns the cached probe result.
func (c *DataDirChecker) IsHealthy() bool { return c.healthy.Load() == 1 }

// Start probes immediately and then on every tick until ctx is canceled.
func (c *DataDirChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.probe()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.probe()
		}
	}
}

func (c *DataDirChecker) probe() {
	marker := filepath.Join(c.dir, ".healthprobe")
	err := os.WriteFile(marker, []byte("ok"), 0644)
	if err == nil {
		err = os.Remove(marker)
	}
	if err != nil {
		c.healthy.Store(0)
		c.log.Error().Err(err).Str("dir", c.dir).Msg("data dir probe failed")
		return
	}
	c.healthy.Store(1)
}
