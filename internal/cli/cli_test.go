package cli

import (
	"testing"

	"github.com/NeddX/pciemgrd/internal/logging"
	"github.com/NeddX/pciemgrd/pkg/result"
)

func TestRegistrationOrderWinsOverArgvOrder(t *testing.T) {
	var fired []string

	c := New([]string{"bin", "--rc", "--daemon"}, logging.New())
	c.AddArgument(Arg{
		Aliases: [2]string{"--daemon", ""},
		Type:    Option,
		Delegate: func(subArgs []string) result.Result[result.Void] {
			fired = append(fired, "daemon")
			return result.OkVoid()
		},
	})
	c.AddArgument(Arg{
		Aliases: [2]string{"--rc", ""},
		Type:    Option,
		Delegate: func(subArgs []string) result.Result[result.Void] {
			fired = append(fired, "rc")
			return result.OkVoid()
		},
	})

	if r := c.DispatchArguments(); r.IsErr() {
		t.Fatalf("unexpected error: %v", r.UnwrapErr())
	}
	if len(fired) != 2 || fired[0] != "daemon" || fired[1] != "rc" {
		t.Fatalf("expected daemon before rc, got %v", fired)
	}
}

func TestUnknownCommand(t *testing.T) {
	c := New([]string{"bin", "--foo"}, logging.New())
	c.AddArgument(Arg{
		Aliases: [2]string{"--daemon", ""},
		Type:    Option,
		Delegate: func(subArgs []string) result.Result[result.Void] {
			return result.OkVoid()
		},
	})

	r := c.DispatchArguments()
	if !r.IsErr() {
		t.Fatalf("expected an error")
	}
	e := r.UnwrapErr()
	if e.Kind != result.UnknownCommand {
		t.Fatalf("expected UnknownCommand, got %v", e.Kind)
	}
}

func TestSubCommandStopsUnknownWalk(t *testing.T) {
	c := New([]string{"bin", "rc", "reboot"}, logging.New())
	c.AddArgument(Arg{
		Aliases: [2]string{"rc", ""},
		Type:    SubCommand,
		Delegate: func(subArgs []string) result.Result[result.Void] {
			return result.OkVoid()
		},
	})

	if r := c.DispatchArguments(); r.IsErr() {
		t.Fatalf("unexpected error: %v", r.UnwrapErr())
	}
}

func TestBareInvocationPrintsUsage(t *testing.T) {
	c := New([]string{"bin"}, logging.New())
	r := c.DispatchArguments()
	if r.IsErr() {
		t.Fatalf("unexpected error: %v", r.UnwrapErr())
	}
	if r.Unwrap() != false {
		t.Fatalf("expected false for bare invocation")
	}
}
