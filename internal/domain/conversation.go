package domain

import (
	"encoding/json"
	"regexp"
)

// Message represents a rendered turn in the conversation (user or assistant).
type Message struct {
	ID   MessageID
	Role Role
	Text string

	// RelatedQuestion holds the user text that produced an assistant
	// reply. Used only when reporting feedback.
	RelatedQuestion string

	// Attachment is the file that accompanied a user message, if any.
	Attachment *Attachment

	CreatedAt Timestamp
}

// Attachment is the single pending file (image or PDF) queued for the
// next submission.
type Attachment struct {
	DataURL  string // data:<mime>;base64,<payload>
	MimeType string
	FileName string
}

const PDFMimeType = "application/pdf"

func (a *Attachment) IsPDF() bool {
	return a.MimeType == PDFMimeType
}

var dataURLRe = regexp.MustCompile(`^data:(.+);base64,(.+)$`)

// Base64Payload splits the data URL into its MIME type and raw base64
// payload. When the stored value is not a data URL, the payload is
// returned as-is with the attachment's own MIME type.
func (a *Attachment) Base64Payload() (mimeType, payload string) {
	if m := dataURLRe.FindStringSubmatch(a.DataURL); m != nil {
		return m[1], m[2]
	}
	return a.MimeType, a.DataURL
}

// Session is the conversation state the server owns. History and
// Context are opaque: the client stores and forwards them verbatim and
// never interprets their contents.
type Session struct {
	ID      SessionID
	History json.RawMessage
	Context string
}
