// Package app wires the CLI dispatcher, the net handler, and the camera
// configuration model into the Application singleton: role resolution, the
// connect-to-RC client sequence, and every server-side packet handler.
package app

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/NeddX/pciemgrd/internal/camconf"
	clipkg "github.com/NeddX/pciemgrd/internal/cli"
	"github.com/NeddX/pciemgrd/internal/fsutil"
	"github.com/NeddX/pciemgrd/internal/logging"
	"github.com/NeddX/pciemgrd/internal/nethandler"
	"github.com/NeddX/pciemgrd/pkg/netsock"
	"github.com/NeddX/pciemgrd/pkg/proto"
	"github.com/NeddX/pciemgrd/pkg/result"
)

const (
	rcListenAddr    = ":7777"
	rcDialAddr      = "127.0.0.1:7777"
	vlinkConfPath   = "/etc/vlink.conf"
	daemonLogPath   = "/var/log/pciepciemgr.log"
	gstLaunchBinary = "gst-launch-1.0"
)

// groupCount is the fixed capacity of the membership table (groups 0..62).
const groupCount = 63

// Application is the RC/Crew-Station/Concentrator process state. Per
// SPEC_FULL.md §9 it is realized as a process-wide once-initialized cell:
// New rejects re-initialization and Get panics before New has run.
type Application struct {
	argv   []string
	logger logging.Logger
	cli    *clipkg.CLI

	isRootComplex  bool
	isCrewStation  bool
	isConcentrator bool
	isDaemon       bool
	started        bool

	camConfPath string
	parser      camconf.Parser

	listener   *netsock.Listener
	netHandler *nethandler.NetHandler

	clientSocket   *netsock.Socket
	localNodeID    uint8
	fetchedCameras []camconf.Camera

	groups [groupCount][]uint8

	rebooter Rebooter
}

var (
	instanceMu sync.Mutex
	instance   *Application
)

// New constructs the singleton Application. It fails InvalidState if one
// already exists, mirroring the original's New/Get contract.
func New(argv []string) result.Result[*Application] {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance != nil {
		return result.Fail[*Application](result.NewErr(result.InvalidState))
	}

	logger := logging.New()
	a := &Application{
		argv:     argv,
		logger:   logger,
		parser:   camconf.JSONParser{},
		rebooter: systemRebooter{},
	}
	a.cli = clipkg.New(argv, logger)
	a.registerCLI()

	instance = a
	return result.Ok(a)
}

// Get returns the process-wide Application. It panics if New has not run,
// matching the singleton's "only reachable after construction" contract.
func Get() *Application {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	if instance == nil {
		panic("app: Get called before New")
	}
	return instance
}

// Init runs the CLI pipeline (which may set role flags or dispatch a
// terminal subcommand; a subcommand returns here when its client session is
// done) and, if the RC flag ended up set, prepares the net handler and its
// packet table.
func (a *Application) Init() result.Result[result.Void] {
	r := a.cli.DispatchArguments()
	if r.IsErr() {
		return result.FailVoid(r.UnwrapErr())
	}

	if a.isRootComplex {
		listenResult := netsock.Listen(rcListenAddr)
		if listenResult.IsErr() {
			return result.FailVoid(listenResult.UnwrapErr())
		}
		a.listener = listenResult.Unwrap()
		a.netHandler = nethandler.New(a.listener, a.logger)
		a.registerPacketHandlers()
	}

	a.logger.Infof("pciemgrd initialized")
	a.started = true
	return result.OkVoid()
}

// Run enters server mode. It is a no-op (not an error) when the RC flag was
// never set, since a terminal subcommand or plain option pass may already
// have done everything this invocation needed.
func (a *Application) Run() result.Result[result.Void] {
	if !a.isRootComplex {
		return result.OkVoid()
	}
	a.netHandler.BeginPacketDispatch()
	a.netHandler.BeginAccept()
	return result.OkVoid()
}

// Stop shuts the net handler down, if one is running.
func (a *Application) Stop() {
	if a.netHandler != nil {
		a.netHandler.Stop()
		a.netHandler.Wait()
	}
	if a.listener != nil {
		a.listener.Close()
	}
}

// registerPacketHandlers wires every server-side handler onto the net
// handler's type-indexed table.
func (a *Application) registerPacketHandlers() {
	a.netHandler.AddPacketHandler(proto.String, a.Net_String)
	a.netHandler.AddPacketHandler(proto.Reboot, a.Net_Reboot)
	a.netHandler.AddPacketHandler(proto.Join, a.Net_Join)
	a.netHandler.AddPacketHandler(proto.Leave, a.Net_Leave)
	a.netHandler.AddPacketHandler(proto.GetCrewConfig, a.Net_GetCrewConfig)
	a.netHandler.AddPacketHandler(proto.GetCtrConfig, a.Net_GetCtrConfig)
}

// ConnectToRC implements the client-side connect sequence shared by every
// terminal subcommand: dial, read the local node id, handshake, then fetch
// whichever configuration this role needs.
func (a *Application) ConnectToRC() result.Result[result.Void] {
	sockResult := netsock.Connect(rcDialAddr)
	if sockResult.IsErr() {
		return result.FailVoid(sockResult.UnwrapErr())
	}
	a.clientSocket = sockResult.Unwrap()

	nodeIDResult := a.readLocalNodeID()
	if nodeIDResult.IsErr() {
		return result.FailVoid(nodeIDResult.UnwrapErr())
	}
	a.localNodeID = nodeIDResult.Unwrap()

	readyPkt := proto.NewPacket(proto.Ready)
	proto.Push[uint8](readyPkt, a.localNodeID)
	if r := proto.BeginSend(a.clientSocket.Conn(), readyPkt); r.IsErr() {
		return r
	}

	respResult := proto.BeginReceive(a.clientSocket.Conn())
	if respResult.IsErr() {
		return result.FailVoid(respResult.UnwrapErr())
	}
	if respResult.Unwrap().Type() != proto.Ok {
		return result.FailVoid(result.NewErr(result.NetReadyFailure))
	}

	if a.isCrewStation {
		if r := a.fetchCrewConfig(); r.IsErr() {
			return r
		}
	}
	if a.isConcentrator {
		if r := a.fetchConcentratorConfig(); r.IsErr() {
			return r
		}
	}
	return result.OkVoid()
}

func (a *Application) fetchCrewConfig() result.Result[result.Void] {
	if r := proto.BeginSend(a.clientSocket.Conn(), proto.NewPacket(proto.GetCrewConfig)); r.IsErr() {
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
	a.logger.Infof("%s", resp.PopString())
	return result.OkVoid()
}

func (a *Application) fetchConcentratorConfig() result.Result[result.Void] {
	if r := proto.BeginSend(a.clientSocket.Conn(), proto.NewPacket(proto.GetCtrConfig)); r.IsErr() {
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

	var payload struct {
		NodeID  uint8            `json:"nodeId"`
		Cameras []camconf.Camera `json:"cameras"`
	}
	if err := json.Unmarshal([]byte(resp.PopString()), &payload); err != nil {
		return result.FailVoid(result.NewErrf(result.JsonParseError, "failed to parse concentrator config: %v", err))
	}
	for _, c := range payload.Cameras {
		if v := c.Validate(); v.IsErr() {
			return v
		}
	}
	a.fetchedCameras = payload.Cameras
	return result.OkVoid()
}

// readLocalNodeID parses the single "KEY=<nodeId>" line of /etc/vlink.conf.
func (a *Application) readLocalNodeID() result.Result[uint8] {
	contentResult := fsutil.ReadToString(vlinkConfPath)
	if contentResult.IsErr() {
		return result.Fail[uint8](contentResult.UnwrapErr())
	}
	line := strings.TrimSpace(contentResult.Unwrap())
	idx := strings.IndexByte(line, '=')
	if idx < 0 {
		return result.Fail[uint8](result.NewErrf(result.IOError, "malformed %s: missing '='", vlinkConfPath))
	}
	var id uint
	if _, err := fmt.Sscanf(line[idx+1:], "%d", &id); err != nil || id > 255 {
		return result.Fail[uint8](result.NewErrf(result.IOError, "malformed node id in %s", vlinkConfPath))
	}
	return result.Ok(uint8(id))
}

// groupIndex validates gid against the fixed membership table's capacity.
func groupIndex(gid uint8) (int, bool) {
	if int(gid) >= groupCount {
		return 0, false
	}
	return int(gid), true
}

// containsNode reports whether nodeID already appears in members.
func containsNode(members []uint8, nodeID uint8) bool {
	for _, m := range members {
		if m == nodeID {
			return true
		}
	}
	return false
}

// removeNode returns members with nodeID removed, and whether it was present.
func removeNode(members []uint8, nodeID uint8) ([]uint8, bool) {
	for i, m := range members {
		if m == nodeID {
			return append(members[:i], members[i+1:]...), true
		}
	}
	return members, false
}
