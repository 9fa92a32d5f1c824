package models

import "time"

// RecordingEvent is one event-triggered clip. EndTime is nil exactly while
// the recording session that created it is still active.
type RecordingEvent struct {
	ID            int64      `json:"id"`
	CameraID      int64      `json:"camera_id"`
	OwnerID       int64      `json:"owner_id"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	Reason        string     `json:"reason"`
	VideoPath     string     `json:"video_path"`
	ThumbnailPath string     `json:"thumbnail_path,omitempty"`
}
