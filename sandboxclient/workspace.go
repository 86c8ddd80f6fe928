package sandboxclient

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
)

// MaterializeWorkspace writes zipBytes to a fresh temp file under dir so it
// can be referenced by path in a SandboxValidateRequest (the sandbox API
// takes a workspace_zip_path, not an inline blob). The returned cleanup
// function removes the temp directory; callers defer it the way the Python
// evaluator's `finally: shutil.rmtree(tmp_dir, ...)` does.
func MaterializeWorkspace(dir string, uid int64, taskID string, zipBytes []byte) (path string, cleanup func(), err error) {
	tmpDir, err := os.MkdirTemp(dir, fmt.Sprintf("alphacore-eval-%d-%s-", uid, taskID))
	if err != nil {
		return "", nil, err
	}
	cleanup = func() { os.RemoveAll(tmpDir) }

	zipPath := filepath.Join(tmpDir, "workspace.zip")
	if err := os.WriteFile(zipPath, zipBytes, 0o600); err != nil {
		cleanup()
		return "", nil, err
	}
	return zipPath, cleanup, nil
}

// ValidateZipStructure opens zipBytes and reports whether it parses as a
// well-formed zip archive, used as a cheap pre-submission sanity check
// before paying for a sandbox round trip.
func ValidateZipStructure(zipBytes []byte) error {
	r, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return fmt.Errorf("sandboxclient: not a valid zip archive: %w", err)
	}
	if len(r.File) == 0 {
		return fmt.Errorf("sandboxclient: zip archive is empty")
	}
	return nil
}
