package model

import "time"

// Document statuses. A document is created in "processing" because ingestion
// runs synchronously with the upload request; "pending" is reserved for a
// future queued ingestion path and is never assigned today.
const (
	DocumentStatusPending    = "pending"
	DocumentStatusProcessing = "processing"
	DocumentStatusDone       = "done"
	DocumentStatusError      = "error"
)

// Document purposes partition which feature may retrieve a document's chunks.
const (
	PurposeConsultant = "consultant"
	PurposeRAGSession = "rag_session"
)

// Supported source file types.
const (
	FileTypePDF   = "pdf"
	FileTypeImage = "image"
)

type Document struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Filename  string    `gorm:"size:256;not null" json:"filename"`
	FileType  string    `gorm:"size:16;not null" json:"file_type"`
	Purpose   string    `gorm:"size:32;not null;index" json:"purpose"`
	Status    string    `gorm:"size:16;not null;index" json:"status"`
	ErrorMsg  *string   `gorm:"type:text" json:"error_msg"`
	RawText   *string   `gorm:"type:text" json:"raw_text,omitempty"`
	Category  string    `gorm:"size:64" json:"category,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	Chunks []DocumentChunk `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func ValidPurpose(p string) bool {
	return p == PurposeConsultant || p == PurposeRAGSession
}
