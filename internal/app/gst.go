package app

import (
	"fmt"
	"os/exec"

	"github.com/NeddX/pciemgrd/internal/camconf"
	"github.com/NeddX/pciemgrd/pkg/result"
)

// cliGst connects to the RC as a concentrator, fetches its camera list, and
// forks one gst-launch-1.0 child per camera.
func (a *Application) cliGst(subArgs []string) result.Result[result.Void] {
	a.isConcentrator = true
	if r := a.ConnectToRC(); r.IsErr() {
		return r
	}

	for _, cam := range a.fetchedCameras {
		cmd := exec.Command(gstLaunchBinary, gstPipelineArgs(cam)...)
		if err := cmd.Start(); err != nil {
			return result.FailVoid(result.NewErrf(result.ForkFailed, "failed to launch gst-launch-1.0 for camera %d: %v", cam.ID, err))
		}
		if err := cmd.Wait(); err != nil {
			a.logger.Warnf("gst-launch-1.0 for camera %d exited: %v", cam.ID, err)
		}
	}
	return result.OkVoid()
}

// gstPipelineArgs builds the fixed v4l2src pipeline referencing this
// camera's videoDev, width, height, fps, and videoFmt.
func gstPipelineArgs(cam camconf.Camera) []string {
	return []string{
		"v4l2src",
		fmt.Sprintf("device=/dev/video%d", cam.VideoDev),
		"!",
		fmt.Sprintf("video/x-raw,format=%s,width=%d,height=%d,framerate=%d/1", cam.VideoFmt, cam.Width, cam.Height, cam.FPS),
		"!",
		"autovideosink",
	}
}
