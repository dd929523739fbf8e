package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	clipkg "github.com/NeddX/pciemgrd/internal/cli"
	"github.com/NeddX/pciemgrd/internal/logging"
	"github.com/NeddX/pciemgrd/internal/strutil"
	"github.com/NeddX/pciemgrd/pkg/proto"
	"github.com/NeddX/pciemgrd/pkg/result"
)

// registerCLI builds the descriptor table in the exact order and with the
// exact delegate behaviors SPEC_FULL.md §4.G names. Registration order is
// the scan order: --daemon always resolves before --rootcomplex regardless
// of argv order, which is what lets refreshPrefix see the final daemon
// flag by the time the role flag runs.
func (a *Application) registerCLI() {
	a.cli.AddArgument(clipkg.Arg{
		Aliases:  [2]string{"--daemon", "-d"},
		Desc:     "Run as a daemon, redirecting the log to " + daemonLogPath,
		Type:     clipkg.Option,
		Delegate: a.cliDaemon,
	})
	a.cli.AddArgument(clipkg.Arg{
		Aliases:  [2]string{"--rootcomplex", "-r"},
		Desc:     "Run as the Root Complex coordinator",
		Type:     clipkg.Option,
		Delegate: a.cliRootComplex,
	})
	a.cli.AddArgument(clipkg.Arg{
		Aliases:  [2]string{"--crewstation", "-cs"},
		Desc:     "Run as a crew station",
		Type:     clipkg.Option,
		Delegate: a.cliCrewStation,
	})
	a.cli.AddArgument(clipkg.Arg{
		Aliases:  [2]string{"--concentrator", "-ct"},
		Desc:     "Run as a concentrator",
		Type:     clipkg.Option,
		Delegate: a.cliConcentrator,
	})
	a.cli.AddArgument(clipkg.Arg{
		Aliases:  [2]string{"--camconf", "-cf"},
		Desc:     "Load the camera configuration document at =path",
		Type:     clipkg.Option,
		Delegate: a.cliCamConf,
	})
	a.cli.AddArgument(clipkg.Arg{
		Aliases:  [2]string{"--leave", "-l"},
		Desc:     "Leave a multicast group: --leave <group>",
		Type:     clipkg.SubCommand,
		Delegate: a.cliLeave,
	})
	a.cli.AddArgument(clipkg.Arg{
		Aliases:  [2]string{"--join", "-j"},
		Desc:     "Join a multicast group: --join <group>",
		Type:     clipkg.SubCommand,
		Delegate: a.cliJoin,
	})
	a.cli.AddArgument(clipkg.Arg{
		Aliases:  [2]string{"--sendstr", "-s"},
		Desc:     "Send a string message to the RC: --sendstr=<value>",
		Type:     clipkg.SubCommand,
		Delegate: a.cliSendStr,
	})
	a.cli.AddArgument(clipkg.Arg{
		Aliases:  [2]string{"root", "rc"},
		Desc:     "Talk to the Root Complex directly, e.g. 'rc reboot'",
		Type:     clipkg.SubCommand,
		Delegate: a.cliRoot,
	})
	a.cli.AddArgument(clipkg.Arg{
		Aliases:  [2]string{"gst", ""},
		Desc:     "Launch gst-launch-1.0 for every configured camera",
		Type:     clipkg.SubCommand,
		Delegate: a.cliGst,
	})
}

func valueOf(tok string) string {
	idx := strings.IndexByte(tok, '=')
	if idx < 0 {
		return ""
	}
	return tok[idx+1:]
}

// refreshPrefix recomputes the logger's component prefix from the current
// role and daemon flags: "EP"/"RP", suffixed with "d" in daemon mode.
func (a *Application) refreshPrefix() {
	base := logging.DefaultPrefix
	if a.isRootComplex {
		base = "RP"
	}
	if a.isDaemon {
		base += "d"
	}
	a.logger = a.logger.WithPrefix(base)
}

func (a *Application) cliDaemon(subArgs []string) result.Result[result.Void] {
	file, err := os.OpenFile(daemonLogPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return result.FailVoid(result.NewErrf(result.IOError, "failed to open %s: %v", daemonLogPath, err))
	}
	a.logger.SetOutput(logging.MultiWriter(file, os.Stdout))
	a.isDaemon = true
	a.refreshPrefix()
	return result.OkVoid()
}

func (a *Application) cliRootComplex(subArgs []string) result.Result[result.Void] {
	if os.Getuid() != 0 {
		return result.FailVoid(result.NewErrf(result.InvalidOperation, "--rootcomplex requires root privileges"))
	}
	a.isRootComplex = true
	a.refreshPrefix()
	return result.OkVoid()
}

func (a *Application) cliCrewStation(subArgs []string) result.Result[result.Void] {
	a.isCrewStation = true
	return result.OkVoid()
}

func (a *Application) cliConcentrator(subArgs []string) result.Result[result.Void] {
	if a.isCrewStation {
		return result.FailVoid(result.NewErrf(result.InvalidOperation, "--concentrator conflicts with --crewstation"))
	}
	a.isConcentrator = true
	return result.OkVoid()
}

func (a *Application) cliCamConf(subArgs []string) result.Result[result.Void] {
	path := valueOf(subArgs[0])
	if path == "" {
		return result.FailVoid(result.NewErrf(result.UnknownArgument, "--camconf requires a =path value"))
	}
	docResult := a.parser.ParseDocument(path)
	if docResult.IsErr() {
		return result.FailVoid(docResult.UnwrapErr())
	}
	a.camConfPath = path
	return result.OkVoid()
}

func (a *Application) cliLeave(subArgs []string) result.Result[result.Void] {
	gid, err := parseGroupArg(subArgs)
	if err != nil {
		return result.FailVoid(*err)
	}
	if r := a.ConnectToRC(); r.IsErr() {
		return r
	}
	pkt := proto.NewPacket(proto.Leave)
	proto.Push[uint8](pkt, gid)
	if r := proto.BeginSend(a.clientSocket.Conn(), pkt); r.IsErr() {
		return r
	}
	return a.awaitClientAck()
}

func (a *Application) cliJoin(subArgs []string) result.Result[result.Void] {
	gid, err := parseGroupArg(subArgs)
	if err != nil {
		return result.FailVoid(*err)
	}
	if r := a.ConnectToRC(); r.IsErr() {
		return r
	}
	pkt := proto.NewPacket(proto.Join)
	proto.Push[uint8](pkt, gid)
	if r := proto.BeginSend(a.clientSocket.Conn(), pkt); r.IsErr() {
		return r
	}
	return a.awaitClientAck()
}

func parseGroupArg(subArgs []string) (uint8, *result.Err) {
	if len(subArgs) < 2 {
		e := result.NewErrf(result.UnknownArgument, "%s requires a group id", subArgs[0])
		return 0, &e
	}
	v, err := strconv.ParseUint(subArgs[1], 10, 8)
	if err != nil {
		e := result.NewErrf(result.UnknownArgument, "invalid group id %q", subArgs[1])
		return 0, &e
	}
	return uint8(v), nil
}

func (a *Application) cliSendStr(subArgs []string) result.Result[result.Void] {
	value := valueOf(subArgs[0])
	if r := a.ConnectToRC(); r.IsErr() {
		return r
	}
	pkt := proto.NewPacket(proto.String)
	pkt.PushString(value)
	if r := proto.BeginSend(a.clientSocket.Conn(), pkt); r.IsErr() {
		return r
	}
	return a.awaitClientAck()
}

func (a *Application) cliRoot(subArgs []string) result.Result[result.Void] {
	if r := a.ConnectToRC(); r.IsErr() {
		return r
	}
	if len(subArgs) < 2 {
		fmt.Println("Usage: rc reboot")
		return result.OkVoid()
	}
	word := strutil.Lower(subArgs[1])
	if word != "reboot" {
		return result.FailVoid(result.NewErrf(result.UnknownSubCommand, "unknown rc subcommand: %s", subArgs[1]))
	}
	if r := proto.BeginSend(a.clientSocket.Conn(), proto.NewPacket(proto.Reboot)); r.IsErr() {
		return r
	}
	respResult := proto.BeginReceive(a.clientSocket.Conn())
	if respResult.IsErr() {
		return result.FailVoid(respResult.UnwrapErr())
	}
	resp := respResult.Unwrap()
	if resp.Type() == proto.Err {
		return result.FailVoid(resp.ExtractErr())
	}
	a.logger.Infof("RC rebooting...")
	return result.OkVoid()
}

func (a *Application) awaitClientAck() result.Result[result.Void] {
	respResult := proto.BeginReceive(a.clientSocket.Conn())
	if respResult.IsErr() {
		return result.FailVoid(respResult.UnwrapErr())
	}
	resp := respResult.Unwrap()
	if resp.Type() == proto.Err {
		return result.FailVoid(resp.ExtractErr())
	}
	return result.OkVoid()
}
