package scanner

import (
	"context"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/memgraph/memgraph/config"
	"github.com/memgraph/memgraph/memerr"
	"github.com/pkg/errors"
)

// cloneTimeout is the scanner's own wall-clock bound on a shallow clone,
// per spec.md §5 ("Shallow clone in the scanner has its own wall-clock
// bound").
const cloneTimeout = 2 * time.Minute

// shallowClone clones url into a fresh temp directory with the configured
// depth and branch, shelling out to the system git binary rather than
// vendoring a pure-Go git implementation — grounded on
// vjache-cie/pkg/tools/git.go's os/exec.Command("git", …) usage, which is
// the only git integration technique present anywhere in the pack.
// Returns the temp dir and a cleanup func the caller must defer
// unconditionally, so the clone is removed on every return path and while
// a panic unwinds through the caller.
func shallowClone(ctx context.Context, url string, remote *config.RemoteConfig) (dir string, cleanup func(), err error) {
	depth, branch := 1, "main"
	if remote != nil {
		if remote.Depth > 0 {
			depth = remote.Depth
		}
		if remote.Branch != "" {
			branch = remote.Branch
		}
	}

	tmp, err := os.MkdirTemp("", "memgraph-scan-*")
	if err != nil {
		return "", nil, errors.Wrap(err, "scanner: creating clone temp dir")
	}
	cleanup = func() { os.RemoveAll(tmp) }

	cloneCtx, cancel := context.WithTimeout(ctx, cloneTimeout)
	defer cancel()

	cmd := exec.CommandContext(cloneCtx, "git", "clone",
		"--depth", strconv.Itoa(depth), "--branch", branch, "--single-branch", url, tmp)
	if out, runErr := cmd.CombinedOutput(); runErr != nil {
		cleanup()
		return "", nil, errors.Wrapf(memerr.Target, "scanner: git clone failed: %s", string(out))
	}

	return tmp, cleanup, nil
}
