package v1

import "github.com/erikmagkekse/nfs-exports/agent/share/nfs"

type ExportEntry = nfs.ExportEntry

// request models

type ShareRequest struct {
	Mountpoint string `json:"mountpoint"`
	Protocol   string `json:"protocol,omitempty"`
	Options    string `json:"options,omitempty"`
	Commit     bool   `json:"commit,omitempty"`
}

type ValidateRequest struct {
	Protocol string `json:"protocol,omitempty"`
	Options  string `json:"options"`
}

// response models

type ShareStatusResponse struct {
	Mountpoint string `json:"mountpoint"`
	Protocol   string `json:"protocol"`
	Shared     bool   `json:"shared"`
}

type ExportListResponse struct {
	Exports []ExportEntry `json:"exports"`
	Total   int           `json:"total"`
}

type HealthResponse struct {
	Status        string   `json:"status"`
	Version       string   `json:"version"`
	Commit        string   `json:"commit"`
	UptimeSeconds int      `json:"uptime_seconds"`
	Protocols     []string `json:"protocols"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
