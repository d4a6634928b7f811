package domain

import "time"

// ProgressSample is one cumulative byte counter reported while a request body
// is being transmitted.
type ProgressSample struct {
	Loaded int64 `json:"loaded"`
	Total  int64 `json:"total"`
}

type ProgressFunc func(ProgressSample)

type UploadState string

const (
	UploadIdle      UploadState = "idle"
	UploadSelecting UploadState = "selecting"
	UploadSelected  UploadState = "selected"
	UploadUploading UploadState = "uploading"
	UploadComplete  UploadState = "complete"
	UploadFailed    UploadState = "failed"
)

type TransferStatus string

const (
	TransferComplete TransferStatus = "complete"
	TransferFailed   TransferStatus = "failed"
	TransferCanceled TransferStatus = "canceled"
)

// TransferRecord is one upload attempt as kept in the local journal.
type TransferRecord struct {
	ID            string         `json:"id"`
	FileID        FileID         `json:"file_id,omitempty"`
	Name          string         `json:"name"`
	Size          int64          `json:"size"`
	Status        TransferStatus `json:"status"`
	Error         string         `json:"error,omitempty"`
	Bytes         int64          `json:"bytes"`
	Duration      time.Duration  `json:"duration"`
	BandwidthMbps string         `json:"bandwidth_mbps,omitempty"`
	StartedAt     time.Time      `json:"started_at"`
}

type FileEventType string

const (
	FileUploaded FileEventType = "file.uploaded"
	FileDeleted  FileEventType = "file.deleted"
)

type FileEvent struct {
	Type   FileEventType `json:"type"`
	FileID FileID        `json:"file_id"`
	Name   string        `json:"name,omitempty"`
	At     time.Time     `json:"at"`
}
