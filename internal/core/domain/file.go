package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type FileType string

const (
	FileTypePDF     FileType = "pdf"
	FileTypeVideo   FileType = "video"
	FileTypeUnknown FileType = "unknown"
)

func ParseFileType(raw string) FileType {
	switch FileType(strings.ToLower(strings.TrimSpace(raw))) {
	case FileTypePDF:
		return FileTypePDF
	case FileTypeVideo:
		return FileTypeVideo
	default:
		return FileTypeUnknown
	}
}

func (t *FileType) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = FileTypeUnknown
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode file type: %w", err)
	}
	*t = ParseFileType(raw)
	return nil
}

// FileID is the server-assigned record identifier. Some deployments serve it
// as a JSON number, so both forms decode into the same string value.
type FileID string

func (id *FileID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode file id: %w", err)
		}
		*id = FileID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode file id: %w", err)
	}
	*id = FileID(n.String())
	return nil
}

func (id FileID) String() string {
	return string(id)
}

type UploadedFile struct {
	ID            FileID    `json:"id"`
	Title         string    `json:"title"`
	OriginalName  string    `json:"originalname"`
	Filename      string    `json:"filename,omitempty"`
	Size          int64     `json:"size"`
	UploadDate    time.Time `json:"uploadDate"`
	FileType      FileType  `json:"fileType"`
	ExtractedText string    `json:"extractedText,omitempty"`
	Snippet       string    `json:"snippet,omitempty"`
}

func (f UploadedFile) DisplayName() string {
	switch {
	case strings.TrimSpace(f.Title) != "":
		return f.Title
	case f.OriginalName != "":
		return f.OriginalName
	default:
		return f.Filename
	}
}

// UnmarshalJSON decodes a record as served. A missing fileType decodes as
// FileTypeUnknown, and an uploadDate that is not a recognised timestamp is
// left zero instead of failing the whole record.
func (f *UploadedFile) UnmarshalJSON(data []byte) error {
	type plain UploadedFile
	aux := struct {
		*plain
		UploadDate json.RawMessage `json:"uploadDate"`
	}{plain: (*plain)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("decode file record: %w", err)
	}
	f.UploadDate = parseUploadDate(aux.UploadDate)
	if f.FileType == "" {
		f.FileType = FileTypeUnknown
	}
	return nil
}

var uploadDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	time.DateTime,
	time.DateOnly,
	time.RFC1123,
}

func parseUploadDate(raw json.RawMessage) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}
	}
	if raw[0] != '"' {
		// epoch milliseconds
		var ms int64
		if err := json.Unmarshal(raw, &ms); err == nil && ms > 0 {
			return time.UnixMilli(ms).UTC()
		}
		return time.Time{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}
	}
	s = strings.TrimSpace(s)
	for _, layout := range uploadDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// LocalFile is a file chosen on the local machine, ready to be uploaded.
type LocalFile struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
	Pages    int    `json:"pages,omitempty"`
}

func (f LocalFile) FileType() FileType {
	switch {
	case f.MimeType == "application/pdf":
		return FileTypePDF
	case strings.HasPrefix(f.MimeType, "video/"):
		return FileTypeVideo
	default:
		return FileTypeUnknown
	}
}

// ViewerSource is what an embedded document viewer needs to render a record.
type ViewerSource struct {
	File      UploadedFile `json:"file"`
	FileURL   string       `json:"file_url"`
	SourceURL string       `json:"source_url"`
}
