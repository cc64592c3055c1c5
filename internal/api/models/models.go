package models

import "github.com/smazurov/sidecarhost/internal/events"

// HealthData is the body of the health check.
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// VersionData describes the running build.
type VersionData struct {
	Version   string `json:"version" example:"1.2.0" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"a1b2c3d" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2025-01-27T10:30:00Z" doc:"Build timestamp"`
	BuildMode string `json:"build_mode" example:"release" doc:"debug or release"`
	GoVersion string `json:"go_version" example:"go1.24.11" doc:"Go toolchain version"`
	Platform  string `json:"platform" example:"linux/amd64" doc:"Operating system and architecture"`
}

type VersionResponse struct {
	Body VersionData
}

// PortRequest bounds how long a port query may wait.
type PortRequest struct {
	Timeout string `query:"timeout" example:"5s" doc:"Maximum time to wait for the backend port, defaults to the configured query timeout"`
}

// PortData is the backend port, present only when known.
type PortData struct {
	Port  *uint16 `json:"port,omitempty" example:"54321" doc:"Backend port, absent while unknown"`
	Known bool    `json:"known" example:"true" doc:"Whether the port has been discovered"`
}

type PortResponse struct {
	Body PortData
}

// StatusData is a snapshot of the backend supervisor.
type StatusData struct {
	Mode              string  `json:"mode" example:"sidecar" doc:"Launch mode: sidecar or attach-dev"`
	Port              *uint16 `json:"port,omitempty" example:"54321" doc:"Backend port, absent while unknown"`
	Known             bool    `json:"known" doc:"Whether the port has been discovered"`
	PID               int     `json:"pid,omitempty" example:"12345" doc:"Process ID of the spawned backend"`
	Running           bool    `json:"running" doc:"Whether the spawned backend is alive"`
	Closing           bool    `json:"closing" doc:"Whether shutdown has begun"`
	HandshakeAccepted int     `json:"handshake_accepted" doc:"Valid handshake lines seen"`
	HandshakeRejected int     `json:"handshake_rejected" doc:"Malformed handshake lines seen"`
	Exits             int     `json:"exits" doc:"Backend exits observed"`
}

type StatusResponse struct {
	Body StatusData
}

// CloseWindowData reports whether the close request was queued.
type CloseWindowData struct {
	Accepted bool `json:"accepted" doc:"False if the window is already closed or a request is pending"`
}

type CloseWindowResponse struct {
	Body CloseWindowData
}

// LogsRequest selects how much history to return.
type LogsRequest struct {
	Tail int `query:"tail" minimum:"0" default:"0" doc:"Return only the last N entries, 0 for all"`
}

// LogsData is the buffered log history.
type LogsData struct {
	Entries []events.LogEntryEvent `json:"entries" doc:"Log entries, oldest first"`
	Count   int                    `json:"count" doc:"Number of entries returned"`
}

type LogsResponse struct {
	Body LogsData
}
