// Package camconf holds the camera/crew-station configuration document and
// the capability boundary used to parse it: the data shapes, their
// validation invariant, the Parser interface, and a default
// encoding/json-backed JSONParser.
package camconf

import (
	"encoding/json"
	"os"

	"github.com/NeddX/pciemgrd/pkg/result"
)

// Camera is a single camera record as declared in the configuration
// document. Validation invariant: ID<=16, FPS<=30, 640<=Width<=1920,
// 480<=Height<=1080.
type Camera struct {
	ID          uint8  `json:"id"`
	NodeID      uint8  `json:"nodeId"`
	GroupID     uint8  `json:"groupId"`
	Width       uint16 `json:"width"`
	Height      uint16 `json:"height"`
	FPS         uint8  `json:"fps"`
	Depth       uint32 `json:"depth"`
	BufferCount uint32 `json:"bufferCount"`
	ComprFmt    string `json:"comprFmt"`
	VideoFmt    string `json:"videoFmt"`
	VideoDev    uint8  `json:"videoDev"`
}

// Validate enforces the record's documented invariant.
func (c Camera) Validate() result.Result[result.Void] {
	if c.ID > 16 {
		return result.FailVoid(result.NewErrf(result.InvalidCameraConfiguration, "camera id %d exceeds maximum of 16", c.ID))
	}
	if c.FPS > 30 {
		return result.FailVoid(result.NewErrf(result.InvalidCameraConfiguration, "camera %d fps %d exceeds maximum of 30", c.ID, c.FPS))
	}
	if c.Width < 640 || c.Width > 1920 {
		return result.FailVoid(result.NewErrf(result.InvalidCameraConfiguration, "camera %d width %d out of range [640,1920]", c.ID, c.Width))
	}
	if c.Height < 480 || c.Height > 1080 {
		return result.FailVoid(result.NewErrf(result.InvalidCameraConfiguration, "camera %d height %d out of range [480,1080]", c.ID, c.Height))
	}
	return result.OkVoid()
}

// CrewStation is a consumer declaration: a node id plus the groups it
// subscribes to. Nothing in this package checks that the referenced groups
// exist among concentrator cameras; CamerasForGroups simply returns no
// camera for a group that has none.
type CrewStation struct {
	NodeID uint8   `json:"nodeId"`
	Groups []uint8 `json:"groups"`
}

// ConcentratorEntry is a producer declaration: a node id plus the cameras it
// owns.
type ConcentratorEntry struct {
	NodeID  uint8    `json:"nodeId"`
	Cameras []Camera `json:"cameras"`
}

// Document is the full parsed configuration file.
type Document struct {
	CrewStations  []CrewStation       `json:"crewStations"`
	Concentrators []ConcentratorEntry `json:"concentrators"`
}

// Parser is the "parse document from path" capability the core consumes.
// The JSON format itself is not this package's concern beyond the default
// implementation below.
type Parser interface {
	ParseDocument(path string) result.Result[*Document]
}

// JSONParser is the default encoding/json-backed Parser.
type JSONParser struct{}

// ParseDocument reads and decodes the document at path.
func (JSONParser) ParseDocument(path string) result.Result[*Document] {
	data, err := os.ReadFile(path)
	if err != nil {
		return result.Fail[*Document](result.NewErrf(result.IOError, "failed to read camera config %s: %v", path, err))
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return result.Fail[*Document](result.NewErrf(result.JsonParseError, "failed to parse camera config %s: %v", path, err))
	}
	return result.Ok(&doc)
}

// Cameras flattens every camera declared across every concentrator,
// stamping each with the owning concentrator's NodeID (camera records do
// not carry their own).
func (d *Document) Cameras() []Camera {
	var all []Camera
	for _, c := range d.Concentrators {
		for _, cam := range c.Cameras {
			cam.NodeID = c.NodeID
			all = append(all, cam)
		}
	}
	return all
}

// CrewStationByID finds the crew station declaration for nodeID.
func (d *Document) CrewStationByID(nodeID uint8) (CrewStation, bool) {
	for _, cs := range d.CrewStations {
		if cs.NodeID == nodeID {
			return cs, true
		}
	}
	return CrewStation{}, false
}

// CamerasForGroups returns every camera whose id matches one of groups,
// mirroring Net_GetCtrConfigHandler's cam.id == group_id comparison.
func (d *Document) CamerasForGroups(groups []uint8) []Camera {
	set := make(map[uint8]bool, len(groups))
	for _, g := range groups {
		set[g] = true
	}
	var out []Camera
	for _, c := range d.Cameras() {
		if set[c.ID] {
			out = append(out, c)
		}
	}
	return out
}
