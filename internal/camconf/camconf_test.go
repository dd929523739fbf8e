package camconf

import (
	"encoding/json"
	"testing"
)

const sampleDoc = `{"crewStations":[{"nodeId":1,"groups":[3,4]}],"concentrators":[{"nodeId":2,"cameras":[{"id":3,"width":1280,"height":720,"fps":30,"depth":8,"bufferCount":4,"comprFmt":"raw","videoFmt":"UYVY","videoDev":0}]}]}`

func TestParseSampleDocument(t *testing.T) {
	var doc Document
	if err := json.Unmarshal([]byte(sampleDoc), &doc); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	cameras := doc.Cameras()
	if len(cameras) != 1 {
		t.Fatalf("expected 1 camera, got %d", len(cameras))
	}
	if cameras[0].NodeID != 2 || cameras[0].ID != 3 {
		t.Fatalf("unexpected camera record: %+v", cameras[0])
	}
}

func TestCameraValidation(t *testing.T) {
	valid := Camera{ID: 3, Width: 1280, Height: 720, FPS: 30}
	if v := valid.Validate(); v.IsErr() {
		t.Fatalf("expected valid camera, got %v", v.UnwrapErr())
	}

	invalid := Camera{ID: 20, Width: 1280, Height: 720, FPS: 30}
	if v := invalid.Validate(); v.IsOk() {
		t.Fatalf("expected id>16 to fail validation")
	}
}

func TestCrewStationLookupAndGroupFilter(t *testing.T) {
	var doc Document
	if err := json.Unmarshal([]byte(sampleDoc), &doc); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	cs, found := doc.CrewStationByID(1)
	if !found || len(cs.Groups) != 2 {
		t.Fatalf("expected crew station 1 with 2 groups, got %+v", cs)
	}
	cams := doc.CamerasForGroups(cs.Groups)
	if len(cams) != 1 || cams[0].ID != 3 {
		t.Fatalf("expected only camera 3 for groups %v, got %+v", cs.Groups, cams)
	}
}
