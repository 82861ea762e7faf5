package ingest

import "errors"

// ErrUnreadable indicates a document could not be parsed at all.
// Individual unreadable pages within an otherwise valid PDF are skipped
// without raising this.
var ErrUnreadable = errors.New("document unreadable")
