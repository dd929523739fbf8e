// Package fsutil holds small filesystem helpers wired into the Result
// discipline.
package fsutil

import (
	"os"

	"github.com/NeddX/pciemgrd/pkg/result"
)

// ReadToString reads the entire file at path. Any failure is reported as
// IOError.
func ReadToString(path string) result.Result[string] {
	data, err := os.ReadFile(path)
	if err != nil {
		return result.Fail[string](result.NewErrf(result.IOError, "failed to read %s: %v", path, err))
	}
	return result.Ok(string(data))
}
