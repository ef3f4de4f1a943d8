// Package mail defines the boundary to upstream message sources. Fetching is
// out of scope here; callers plug in whatever transport they have and hand
// messages to the extraction pipeline.
package mail

import (
	"context"

	"github.com/joseph-ayodele/claims-extractor/internal/entity"
)

// Message is one inbound document: body text plus any attachment files
// already written to disk.
type Message struct {
	Meta            entity.EmailMetadata
	Body            string
	AttachmentPaths []string
}

// Source yields messages to process. Implementations own connection
// lifecycle; Fetch returns whatever is currently available.
type Source interface {
	Fetch(ctx context.Context) ([]Message, error)
}

// SliceSource is a fixed in-memory Source, used when documents arrive as
// files rather than through a mailbox.
type SliceSource []Message

func (s SliceSource) Fetch(_ context.Context) ([]Message, error) {
	return []Message(s), nil
}
