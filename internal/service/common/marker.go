//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/superbinary-trigger/internal/logger"
)

// MarkerFilename marks an artifact directory that is being published right now.
// The leading dot keeps it out of classification.
const MarkerFilename = ".superbinary-trigger.pid"

// ErrRunInProgress is returned when another live process holds the marker.
var ErrRunInProgress = errors.New("another publish run is in progress")

// Marker is a PID file guarding an artifact directory against parallel publish runs.
type Marker struct {
	// path is the marker file location.
	path string
}

// AcquireMarker creates the marker in dir. A marker left by a dead process is replaced.
func AcquireMarker(ctx context.Context, dir string) (*Marker, error) {
	path := filepath.Join(dir, MarkerFilename)

	logger.Debug(ctx, "Checking for the presence of a run marker")

	if owner, alive := markerOwner(path); alive {
		return nil, fmt.Errorf("%w (pid %d, marker %s)", ErrRunInProgress, owner, path)
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale run marker: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w (marker %s)", ErrRunInProgress, path)
		}

		return nil, fmt.Errorf("create run marker: %w", err)
	}

	_, err = file.WriteString(strconv.Itoa(os.Getpid()))
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(path)

		return nil, fmt.Errorf("write run marker: %w", err)
	}

	return &Marker{path: path}, nil
}

// Release removes the marker.
func (m *Marker) Release(ctx context.Context) {
	if m == nil {
		return
	}

	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnKV(ctx, "Unable to remove run marker", "path", m.path, "error", err)
	}
}

// markerOwner returns the PID recorded in the marker and whether that process is still alive.
func markerOwner(path string) (int, bool) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return 0, false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err != nil || pid <= 0 || pid == os.Getpid() {
		return pid, false
	}

	process, err := ps.FindProcess(pid)
	if err != nil || process == nil {
		return pid, false
	}

	return pid, true
}
