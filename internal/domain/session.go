package domain

import "time"

// SessionState is a node of the workbench state machine.
type SessionState string

const (
	StateEmpty        SessionState = "empty"
	StateFileSelected SessionState = "file_selected"
	StatePreviewed    SessionState = "previewed"
	StateExtracting   SessionState = "extracting"
	StateExtracted    SessionState = "extracted"
)

// SessionView is the read-only projection of a session handed to the page.
type SessionView struct {
	ID                     string             `json:"id"`
	State                  SessionState       `json:"state"`
	File                   *UploadedDocument  `json:"file,omitempty"`
	Preview                *PreviewDescriptor `json:"preview,omitempty"`
	Fields                 []FormFieldRecord  `json:"fields"`
	HasAutoFill            bool               `json:"has_auto_fill"`
	Error                  string             `json:"error,omitempty"`
	Extracting             bool               `json:"extracting"`
	DownloadingInteractive bool               `json:"downloading_interactive"`
	DownloadingRaw         bool               `json:"downloading_raw"`
	UpdatedAt              time.Time          `json:"updated_at"`
}

// SurfaceEdit is one user edit on the editable surface. Index is the
// position of the control among all input, textarea and select elements
// in document order.
type SurfaceEdit struct {
	Index   int     `json:"index"`
	Value   *string `json:"value,omitempty"`
	Checked *bool   `json:"checked,omitempty"`
}
