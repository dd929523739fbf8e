package app

import (
	"encoding/json"

	"github.com/NeddX/pciemgrd/internal/camconf"
	"github.com/NeddX/pciemgrd/internal/endpoint"
	"github.com/NeddX/pciemgrd/pkg/proto"
	"github.com/NeddX/pciemgrd/pkg/result"
)

// Net_String logs the drained payload and acknowledges.
func (a *Application) Net_String(ep *endpoint.Endpoint, p *proto.Packet) result.Result[result.Void] {
	a.logger.Infof("%s", p.PopString())
	ep.Send(proto.OkPacket())
	return result.OkVoid()
}

// Net_Reboot replies Ok before the reboot syscall, since that call does not
// return: the peer would otherwise time out waiting for an acknowledgement
// that never arrives.
func (a *Application) Net_Reboot(ep *endpoint.Endpoint, p *proto.Packet) result.Result[result.Void] {
	ep.Send(proto.OkPacket())
	a.logger.Warnf("RC reboot requested by endpoint %d", ep.ID)
	if err := a.rebooter.Reboot(); err != nil {
		a.logger.Errorf("reboot failed: %v", err)
	}
	return result.OkVoid()
}

// Net_Join adds ep.ID to the requested group, rejecting a duplicate join.
func (a *Application) Net_Join(ep *endpoint.Endpoint, p *proto.Packet) result.Result[result.Void] {
	gid := proto.Pop[uint8](p)
	idx, ok := groupIndex(gid)
	if !ok {
		return result.FailVoid(result.NewErrf(result.InvalidOperation, "group %d out of range", gid))
	}
	if containsNode(a.groups[idx], ep.ID) {
		return result.FailVoid(result.NewErrf(result.InvalidOperation, "Already in group %d", gid))
	}
	a.groups[idx] = append(a.groups[idx], ep.ID)
	ep.Send(proto.OkPacket())
	return result.OkVoid()
}

// Net_Leave removes ep.ID from the requested group, rejecting a leave
// without a prior join.
func (a *Application) Net_Leave(ep *endpoint.Endpoint, p *proto.Packet) result.Result[result.Void] {
	gid := proto.Pop[uint8](p)
	idx, ok := groupIndex(gid)
	if !ok {
		return result.FailVoid(result.NewErrf(result.InvalidOperation, "group %d out of range", gid))
	}
	remaining, removed := removeNode(a.groups[idx], ep.ID)
	if !removed {
		return result.FailVoid(result.NewErrf(result.InvalidOperation, "Not in group %d. Join first", gid))
	}
	a.groups[idx] = remaining
	ep.Send(proto.OkPacket())
	return result.OkVoid()
}

// Net_GetCrewConfig reloads the camera document and replies with the
// matching crew station's group list as JSON.
func (a *Application) Net_GetCrewConfig(ep *endpoint.Endpoint, p *proto.Packet) result.Result[result.Void] {
	doc, err := a.reloadCamConf()
	if err != nil {
		return result.FailVoid(*err)
	}
	cs, found := doc.CrewStationByID(ep.ID)
	if !found {
		return result.FailVoid(result.NewErr(result.NotFound))
	}
	groups, _ := json.Marshal(cs.Groups)
	ep.Send(proto.NewStringPacket(string(groups)))
	return result.OkVoid()
}

// Net_GetCtrConfig reloads the camera document and replies with the
// cameras covering the matching crew station's groups, per its node id.
func (a *Application) Net_GetCtrConfig(ep *endpoint.Endpoint, p *proto.Packet) result.Result[result.Void] {
	doc, err := a.reloadCamConf()
	if err != nil {
		return result.FailVoid(*err)
	}
	cs, found := doc.CrewStationByID(ep.ID)
	if !found {
		return result.FailVoid(result.NewErr(result.InvalidOperation))
	}

	body := struct {
		NodeID  uint8 `json:"nodeId"`
		Cameras any   `json:"cameras"`
	}{NodeID: ep.ID, Cameras: doc.CamerasForGroups(cs.Groups)}

	encoded, _ := json.Marshal(body)
	ep.Send(proto.NewStringPacket(string(encoded)))
	return result.OkVoid()
}

func (a *Application) reloadCamConf() (*camconf.Document, *result.Err) {
	r := a.parser.ParseDocument(a.camConfPath)
	if r.IsErr() {
		e := r.UnwrapErr()
		return nil, &e
	}
	return r.Unwrap(), nil
}
