// Package drivejob tracks runs of the external drive rescan/upload scripts.
// Job records are JSON documents; the "currently running" pointer is kept in
// process memory only and reconciled against the records on every status
// query, so a crashed process leaves no permanently stuck job.
package drivejob

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/menucockpit/server/internal/docstore"
	"github.com/menucockpit/server/internal/model"
)

// Job types.
const (
	TypeRescan = "rescan"
	TypeUpload = "upload"
)

var progressRx = regexp.MustCompile(`\[(\d+)/(\d+)\]`)

// Progress is the last [scanned/total] marker tailed from a job's log.
type Progress struct {
	Scanned int `json:"scanned"`
	Total   int `json:"total"`
}

// StatusResult is a job record plus live progress.
type StatusResult struct {
	Job      *model.DriveJob `json:"job"`
	Progress *Progress       `json:"progress,omitempty"`
}

// Tracker launches and observes drive subprocess jobs.
type Tracker struct {
	store        *docstore.Store
	rescanScript string
	uploadScript string
	jobsDir      string
	logsDir      string
	minInterval  time.Duration
	maxRuntime   time.Duration
	log          zerolog.Logger

	mu sync.Mutex
	// runningRescan is a best-effort in-process guard only; it resets on
	// restart, which is why Status probes recorded pids.
	runningRescan string
	lastLaunch    time.Time
	// supervised holds job ids owned by a live supervisor goroutine in this
	// process; their records are left to that goroutine, never self-healed.
	supervised map[string]bool

	now func() time.Time
}

// New creates a tracker.
func New(store *docstore.Store, rescanScript, uploadScript, jobsDir, logsDir string, minInterval, maxRuntime time.Duration, log zerolog.Logger) *Tracker {
	return &Tracker{
		store:        store,
		rescanScript: rescanScript,
		uploadScript: uploadScript,
		jobsDir:      jobsDir,
		logsDir:      logsDir,
		minInterval:  minInterval,
		maxRuntime:   maxRuntime,
		log:          log,
		supervised:   make(map[string]bool),
		now:          time.Now,
	}
}

func (t *Tracker) jobPath(jobID string) string {
	return filepath.Join(t.jobsDir, jobID+".json")
}

// Rescan launches the rescan subprocess. Rejected with a conflict while a
// rescan is already in flight and with a rate limit before the minimum
// interval between launches has elapsed.
func (t *Tracker) Rescan(ctx context.Context) (*model.DriveJob, error) {
	t.mu.Lock()
	if t.runningRescan != "" {
		running := t.runningRescan
		t.mu.Unlock()
		return nil, model.NewConflictError("rescan_in_progress",
			"a rescan is already running", map[string]string{"job_id": running})
	}
	if !t.lastLaunch.IsZero() {
		elapsed := t.now().Sub(t.lastLaunch)
		if elapsed < t.minInterval {
			wait := int((t.minInterval - elapsed).Seconds()) + 1
			t.mu.Unlock()
			return nil, model.RateLimitedError{RetryAfterSec: wait}
		}
	}
	t.lastLaunch = t.now()
	t.mu.Unlock()

	return t.launch(ctx, TypeRescan, t.rescanScript, nil)
}

// LaunchUpload starts the upload subprocess for one recipe. Uploads are
// tracked but not mutually exclusive with rescans.
func (t *Tracker) LaunchUpload(ctx context.Context, recipeID string) (*model.DriveJob, error) {
	return t.launch(ctx, TypeUpload, t.uploadScript, []string{recipeID})
}

// launch persists a queued record, spawns the script with stdout/stderr
// redirected to the job's log file, flips the record to running and hands
// off to the supervisor goroutine.
func (t *Tracker) launch(ctx context.Context, jobType, script string, args []string) (*model.DriveJob, error) {
	jobID := uuid.NewString()
	job := &model.DriveJob{
		JobID:      jobID,
		Type:       jobType,
		Status:     model.JobQueued,
		CreatedAt:  t.timestamp(),
		ScriptPath: script,
		LogPath:    filepath.Join(t.logsDir, jobID+".log"),
	}
	if err := t.store.Write(t.jobPath(jobID), job); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(t.logsDir, 0755); err != nil {
		return nil, t.fail(job, fmt.Sprintf("failed to create log dir: %v", err))
	}
	logFile, err := os.Create(job.LogPath)
	if err != nil {
		return nil, t.fail(job, fmt.Sprintf("failed to create log file: %v", err))
	}

	cmd := exec.Command(script, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	if err := cmd.Start(); err != nil {
		logFile.Close()
		return nil, t.fail(job, fmt.Sprintf("failed to spawn: %v", err))
	}

	job.Status = model.JobRunning
	job.StartedAt = t.timestamp()
	job.PID = cmd.Process.Pid
	// The rescan guard must be published before the supervisor goroutine
	// exists: a fast-exiting subprocess would otherwise race supervise's
	// cleanup and leave a terminal job id stuck in the guard forever.
	t.mu.Lock()
	t.supervised[jobID] = true
	if jobType == TypeRescan {
		t.runningRescan = jobID
	}
	t.mu.Unlock()
	if err := t.store.Write(t.jobPath(jobID), job); err != nil {
		t.log.Error().Err(err).Str("job_id", jobID).Msg("failed to persist running job")
	}
	t.log.Info().Str("job_id", jobID).Str("type", jobType).Int("pid", job.PID).Msg("drive job started")

	go t.supervise(job, cmd, logFile)
	return job, nil
}

// supervise waits for the subprocess, enforcing the maximum-runtime
// watchdog, and records the terminal status.
func (t *Tracker) supervise(job *model.DriveJob, cmd *exec.Cmd, logFile *os.File) {
	defer logFile.Close()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(t.maxRuntime)
	defer timer.Stop()

	var waitErr error
	killed := false
	select {
	case waitErr = <-done:
	case <-timer.C:
		killed = true
		_ = cmd.Process.Kill()
		waitErr = <-done
	}

	exitCode := 0
	if exitErr, ok := waitErr.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else if waitErr != nil {
		exitCode = -1
	}
	job.ExitCode = &exitCode
	job.FinishedAt = t.timestamp()

	switch {
	case killed:
		job.Status = model.JobFailed
		job.Error = fmt.Sprintf("killed by watchdog after %s", t.maxRuntime)
		t.log.Error().Str("job_id", job.JobID).Msg("drive job killed by watchdog")
	case waitErr != nil:
		job.Status = model.JobFailed
		job.Error = model.SubprocessError{JobID: job.JobID, Message: waitErr.Error()}.Error()
		t.log.Error().Str("job_id", job.JobID).Int("exit_code", exitCode).Msg("drive job failed")
	default:
		job.Status = model.JobDone
		t.log.Info().Str("job_id", job.JobID).Msg("drive job finished")
	}

	if err := t.store.Write(t.jobPath(job.JobID), job); err != nil {
		t.log.Error().Err(err).Str("job_id", job.JobID).Msg("failed to persist terminal job")
	}

	t.mu.Lock()
	delete(t.supervised, job.JobID)
	if t.runningRescan == job.JobID {
		t.runningRescan = ""
	}
	t.mu.Unlock()
}

// fail records a job that never got off the ground.
func (t *Tracker) fail(job *model.DriveJob, msg string) error {
	job.Status = model.JobFailed
	job.Error = msg
	job.FinishedAt = t.timestamp()
	if err := t.store.Write(t.jobPath(job.JobID), job); err != nil {
		t.log.Error().Err(err).Str("job_id", job.JobID).Msg("failed to persist failed job")
	}
	return model.SubprocessError{JobID: job.JobID, Message: msg}
}

// Status looks up a job record, by id or latest by document modification
// time when id is empty. A record stuck in running whose process is dead is
// retroactively marked failed: the in-memory guard does not survive process
// restarts, so the record itself must be self-healing. Terminal records are
// never modified.
func (t *Tracker) Status(ctx context.Context, jobID string) (*StatusResult, error) {
	if jobID == "" {
		latest, err := t.latestJobID()
		if err != nil {
			return nil, err
		}
		if latest == "" {
			return nil, model.NewNotFoundError("job", "latest")
		}
		jobID = latest
	}

	var job model.DriveJob
	if err := t.store.ReadInto(t.jobPath(jobID), &job); err != nil {
		if docstore.IsRecoverable(err) {
			return nil, model.NewNotFoundError("job", jobID)
		}
		return nil, err
	}

	t.mu.Lock()
	owned := t.supervised[jobID]
	t.mu.Unlock()

	if job.Status == model.JobRunning && !owned && !pidAlive(job.PID) {
		job.Status = model.JobFailed
		job.Error = "process died without recording a result"
		job.FinishedAt = t.timestamp()
		if err := t.store.Write(t.jobPath(jobID), &job); err != nil {
			return nil, err
		}
		t.mu.Lock()
		if t.runningRescan == jobID {
			t.runningRescan = ""
		}
		t.mu.Unlock()
		t.log.Warn().Str("job_id", jobID).Int("pid", job.PID).Msg("stale running job marked failed")
	}

	res := &StatusResult{Job: &job}
	if p := tailProgress(job.LogPath); p != nil {
		res.Progress = p
	}
	return res, nil
}

// latestJobID returns the job document with the most recent modification time.
func (t *Tracker) latestJobID() (string, error) {
	entries, err := os.ReadDir(t.jobsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	var latest string
	var latestMod time.Time
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestMod) {
			latestMod = info.ModTime()
			latest = e.Name()[:len(e.Name())-len(".json")]
		}
	}
	return latest, nil
}

// pidAlive probes a process with signal 0.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// tailProgress parses the last [scanned/total] marker from the end of a log
// file. Nil when the log is absent or carries no marker yet.
func tailProgress(logPath string) *Progress {
	f, err := os.Open(logPath)
	if err != nil {
		return nil
	}
	defer f.Close()

	const tailBytes = 64 * 1024
	info, err := f.Stat()
	if err != nil {
		return nil
	}
	offset := int64(0)
	if info.Size() > tailBytes {
		offset = info.Size() - tailBytes
	}
	buf := make([]byte, info.Size()-offset)
	if _, err := f.ReadAt(buf, offset); err != nil {
		return nil
	}

	matches := progressRx.FindAllSubmatch(buf, -1)
	if len(matches) == 0 {
		return nil
	}
	last := matches[len(matches)-1]
	scanned, _ := strconv.Atoi(string(last[1]))
	total, _ := strconv.Atoi(string(last[2]))
	return &Progress{Scanned: scanned, Total: total}
}

func (t *Tracker) timestamp() string {
	return t.now().UTC().Format(time.RFC3339)
}
