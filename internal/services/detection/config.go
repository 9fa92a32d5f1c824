package detection

import (
	"fmt"
	"strings"

	"nvr-orchestrator-go/internal/models"
)

// BuildConfig renders the motion daemon configuration for one camera. The
// daemon watches the camera stream and calls the recording webhooks on motion
// begin and end. The mask is always referenced: an empty ROI produces an
// all-zero mask, so such a camera never triggers.
func BuildConfig(cam models.Camera, threshold int, maskPath, webhookBase string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# camera %d (%s), generated, do not edit\n", cam.ID, cam.Name)
	b.WriteString("daemon off\n")
	b.WriteString("setup_mode off\n")
	fmt.Fprintf(&b, "netcam_url %s\n", cam.DetectionSource())
	fmt.Fprintf(&b, "threshold %d\n", threshold)
	fmt.Fprintf(&b, "mask_file %s\n", maskPath)
	b.WriteString("output_pictures off\n")
	b.WriteString("ffmpeg_output_movies off\n")
	fmt.Fprintf(&b, "on_event_start curl -s -X POST %s/start_record/%d\n", webhookBase, cam.ID)
	fmt.Fprintf(&b, "on_event_end curl -s -X POST %s/stop_record/%d\n", webhookBase, cam.ID)

	return b.String()
}
