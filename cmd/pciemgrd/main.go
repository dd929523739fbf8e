// Command pciemgrd is the fleet-management daemon entrypoint: it builds the
// Application singleton from argv, runs the CLI pipeline, and if the RC
// role was selected, serves until the process is killed.
package main

import (
	"fmt"
	"os"

	"github.com/NeddX/pciemgrd/internal/app"
)

func main() {
	newResult := app.New(os.Args)
	if newResult.IsErr() {
		fmt.Fprintln(os.Stderr, newResult.UnwrapErr().Error())
		os.Exit(int(newResult.UnwrapErr().Code()))
	}
	a := newResult.Unwrap()

	if r := a.Init(); r.IsErr() {
		e := r.UnwrapErr()
		fmt.Fprintln(os.Stderr, e.Error())
		os.Exit(int(e.Code()))
	}

	if r := a.Run(); r.IsErr() {
		e := r.UnwrapErr()
		fmt.Fprintln(os.Stderr, e.Error())
		os.Exit(int(e.Code()))
	}
}
