package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// DocumentChunk is the unit of embedding and retrieval: a bounded-length
// substring of a document's extracted text plus its embedding vector.
// ChunkIndex is 0-based and contiguous within a document; it and DocumentID
// are immutable after insert, while ChunkText and Embedding may be edited
// together (a text edit requires re-embedding).
type DocumentChunk struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	DocumentID uint            `gorm:"not null;index" json:"document_id"`
	ChunkIndex int             `gorm:"not null" json:"chunk_index"`
	ChunkText  string          `gorm:"type:text;not null" json:"chunk_text"`
	Embedding  pgvector.Vector `gorm:"type:vector(1536)" json:"-"`
	CreatedAt  time.Time       `json:"created_at"`
}
