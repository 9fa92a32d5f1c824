package models

// DetectionMode selects whether motion analysis drives recording for a camera
type DetectionMode string

const (
	DetectionOff        DetectionMode = "off"
	DetectionEvent      DetectionMode = "event"
	DetectionContinuous DetectionMode = "continuous"
)

// String returns the string representation of DetectionMode
func (dm DetectionMode) String() string {
	return string(dm)
}

// IsValid checks if the detection mode is valid
func (dm DetectionMode) IsValid() bool {
	switch dm {
	case DetectionOff, DetectionEvent, DetectionContinuous:
		return true
	default:
		return false
	}
}

// WantsDetection reports whether the mode requires a live motion-analysis process
func (dm DetectionMode) WantsDetection() bool {
	return dm == DetectionEvent || dm == DetectionContinuous
}

// Camera is one row of the external camera configuration store.
// The orchestrator only reads these; the CRUD API owns them.
type Camera struct {
	ID               int64         `json:"id"`
	Name             string        `json:"name"`
	Path             string        `json:"path"`
	RTSPURL          string        `json:"rtsp_url"`
	RTSPSubstreamURL string        `json:"rtsp_substream_url,omitempty"`
	OwnerID          int64         `json:"owner_id"`
	DetectionMode    DetectionMode `json:"detection_mode"`
	// MotionROI is a comma-separated list of cell indices (0-99) on a 10x10 grid
	MotionROI           string `json:"motion_roi"`
	MotionSensitivity   int    `json:"motion_sensitivity"`
	ContinuousRecording bool   `json:"continuous_recording"`
}

// DetectionSource returns the stream the motion-analysis process should watch:
// the low-bandwidth substream when configured, else the main stream.
func (c Camera) DetectionSource() string {
	if c.RTSPSubstreamURL != "" {
		return c.RTSPSubstreamURL
	}
	return c.RTSPURL
}
