// Package store persists camera configuration and recording events in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"nvr-orchestrator-go/internal/models"
)

// ErrNotFound is returned when a camera or event does not exist.
var ErrNotFound = errors.New("store: not found")

// Store wraps the SQLite database holding cameras and recording events.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and applies the
// schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite handles one writer at a time
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS cameras (
	id                   INTEGER PRIMARY KEY,
	name                 TEXT NOT NULL,
	path                 TEXT NOT NULL,
	rtsp_url             TEXT NOT NULL,
	rtsp_substream_url   TEXT NOT NULL DEFAULT '',
	owner_id             INTEGER NOT NULL DEFAULT 0,
	detection_mode       TEXT NOT NULL DEFAULT 'off',
	motion_roi           TEXT NOT NULL DEFAULT '',
	motion_sensitivity   INTEGER NOT NULL DEFAULT 50,
	continuous_recording INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS recording_events (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	camera_id      INTEGER NOT NULL,
	owner_id       INTEGER NOT NULL DEFAULT 0,
	start_time     TEXT NOT NULL,
	end_time       TEXT,
	reason         TEXT NOT NULL DEFAULT '',
	video_path     TEXT NOT NULL DEFAULT '',
	thumbnail_path TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_events_camera ON recording_events(camera_id, start_time);
CREATE INDEX IF NOT EXISTS idx_events_start ON recording_events(start_time);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is usable.
func (s *Store) Ping() error {
	return s.db.Ping()
}

// Cameras returns every configured camera ordered by id.
func (s *Store) Cameras() ([]models.Camera, error) {
	rows, err := s.db.Query(`
		SELECT id, name, path, rtsp_url, rtsp_substream_url, owner_id,
		       detection_mode, motion_roi, motion_sensitivity, continuous_recording
		FROM cameras ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query cameras: %w", err)
	}
	defer rows.Close()

	var cams []models.Camera
	for rows.Next() {
		var c models.Camera
		var mode string
		if err := rows.Scan(&c.ID, &c.Name, &c.Path, &c.RTSPURL, &c.RTSPSubstreamURL,
			&c.OwnerID, &mode, &c.MotionROI, &c.MotionSensitivity, &c.ContinuousRecording); err != nil {
			return nil, fmt.Errorf("scan camera: %w", err)
		}
		c.DetectionMode = models.DetectionMode(mode)
		cams = append(cams, c)
	}
	return cams, rows.Err()
}

// Camera returns one camera by id, or ErrNotFound.
func (s *Store) Camera(id int64) (models.Camera, error) {
	var c models.Camera
	var mode string
	err := s.db.QueryRow(`
		SELECT id, name, path, rtsp_url, rtsp_substream_url, owner_id,
		       detection_mode, motion_roi, motion_sensitivity, continuous_recording
		FROM cameras WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Path, &c.RTSPURL, &c.RTSPSubstreamURL,
			&c.OwnerID, &mode, &c.MotionROI, &c.MotionSensitivity, &c.ContinuousRecording)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Camera{}, ErrNotFound
	}
	if err != nil {
		return models.Camera{}, fmt.Errorf("query camera %d: %w", id, err)
	}
	c.DetectionMode = models.DetectionMode(mode)
	return c, nil
}

// UpsertCamera inserts or replaces a camera row. The CRUD API is the usual
// writer; the orchestrator uses this for provisioning and tests.
func (s *Store) UpsertCamera(c models.Camera) error {
	_, err := s.db.Exec(`
		INSERT INTO cameras (id, name, path, rtsp_url, rtsp_substream_url, owner_id,
		                     detection_mode, motion_roi, motion_sensitivity, continuous_recording)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			path = excluded.path,
			rtsp_url = excluded.rtsp_url,
			rtsp_substream_url = excluded.rtsp_substream_url,
			owner_id = excluded.owner_id,
			detection_mode = excluded.detection_mode,
			motion_roi = excluded.motion_roi,
			motion_sensitivity = excluded.motion_sensitivity,
			continuous_recording = excluded.continuous_recording`,
		c.ID, c.Name, c.Path, c.RTSPURL, c.RTSPSubstreamURL, c.OwnerID,
		c.DetectionMode.String(), c.MotionROI, c.MotionSensitivity, c.ContinuousRecording)
	if err != nil {
		return fmt.Errorf("upsert camera %d: %w", c.ID, err)
	}
	return nil
}

// CreateEvent inserts an open recording event and returns its id.
func (s *Store) CreateEvent(e models.RecordingEvent) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO recording_events (camera_id, owner_id, start_time, reason, video_path, thumbnail_path)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.CameraID, e.OwnerID, e.StartTime.UTC().Format(time.RFC3339), e.Reason, e.VideoPath, e.ThumbnailPath)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("event id: %w", err)
	}
	return id, nil
}

// CloseEvent sets the end time of an open event.
func (s *Store) CloseEvent(id int64, endTime time.Time) error {
	res, err := s.db.Exec(`UPDATE recording_events SET end_time = ? WHERE id = ?`,
		endTime.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("close event %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetEventThumbnail records the generated thumbnail path for an event.
func (s *Store) SetEventThumbnail(id int64, path string) error {
	res, err := s.db.Exec(`UPDATE recording_events SET thumbnail_path = ? WHERE id = ?`, path, id)
	if err != nil {
		return fmt.Errorf("set thumbnail for event %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEvent removes an event row.
func (s *Store) DeleteEvent(id int64) error {
	_, err := s.db.Exec(`DELETE FROM recording_events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event %d: %w", id, err)
	}
	return nil
}

// Events lists events, newest first. cameraID 0 means all cameras; limit 0
// means no limit.
func (s *Store) Events(cameraID int64, limit int) ([]models.RecordingEvent, error) {
	query := `
		SELECT id, camera_id, owner_id, start_time, end_time, reason, video_path, thumbnail_path
		FROM recording_events`
	var args []any
	if cameraID != 0 {
		query += ` WHERE camera_id = ?`
		args = append(args, cameraID)
	}
	query += ` ORDER BY start_time DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// EventsOlderThan returns closed events whose start time is before cutoff,
// oldest first.
func (s *Store) EventsOlderThan(cutoff time.Time) ([]models.RecordingEvent, error) {
	rows, err := s.db.Query(`
		SELECT id, camera_id, owner_id, start_time, end_time, reason, video_path, thumbnail_path
		FROM recording_events
		WHERE end_time IS NOT NULL AND start_time < ?
		ORDER BY start_time ASC`,
		cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("query stale events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]models.RecordingEvent, error) {
	var events []models.RecordingEvent
	for rows.Next() {
		var e models.RecordingEvent
		var start string
		var end sql.NullString
		if err := rows.Scan(&e.ID, &e.CameraID, &e.OwnerID, &start, &end,
			&e.Reason, &e.VideoPath, &e.ThumbnailPath); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		t, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return nil, fmt.Errorf("parse event start time: %w", err)
		}
		e.StartTime = t
		if end.Valid {
			t, err := time.Parse(time.RFC3339, end.String)
			if err != nil {
				return nil, fmt.Errorf("parse event end time: %w", err)
			}
			e.EndTime = &t
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
