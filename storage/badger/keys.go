package badger

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/querent/core"
)

// Key prefixes for different data types
const (
	documentRecordPrefix    = "docrec"
	documentWorkspacePrefix = "docws"
	chunkRecordPrefix       = "churec"
	chunkDocumentPrefix     = "chudoc"
	chunkWorkspacePrefix    = "chuws"
	termPostingPrefix       = "term"
	noteRecordPrefix        = "noterec"
	noteWorkspacePrefix     = "notews"
)

// workspaceKeySafe reports whether a workspace id can be embedded in the
// ':'-separated key scheme. A workspace id containing ':' would produce a
// scan prefix that overlaps another workspace's keys, so writes reject it
// (core validation) and reads treat it as a workspace that cannot exist.
func workspaceKeySafe(workspaceID string) bool {
	return !strings.Contains(workspaceID, ":")
}

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentRecordPrefix, id))
}

// makeDocumentWorkspaceKey generates a composite key for the workspace
// document index. Format: prefix:workspace:timestamp:id
func makeDocumentWorkspaceKey(workspaceID string, createdAt time.Time, id core.ID) []byte {
	prefix := documentWorkspacePrefix + ":" + workspaceID + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, []byte(prefix))
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeDocumentWorkspacePrefix generates the scan prefix for a workspace's
// document index.
func makeDocumentWorkspacePrefix(workspaceID string) []byte {
	return []byte(documentWorkspacePrefix + ":" + workspaceID + ":")
}

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkRecordPrefix, id))
}

// makeChunkDocumentKey generates a composite key for the document chunk index.
// Format: prefix:documentID:index
func makeChunkDocumentKey(documentID core.ID, index int) []byte {
	prefix := chunkDocumentPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, []byte(prefix))
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(index))
	return buf
}

// makeChunkDocumentPrefix generates the scan prefix for a document's chunks.
func makeChunkDocumentPrefix(documentID core.ID) []byte {
	prefix := chunkDocumentPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, []byte(prefix))
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	return buf
}

// makeChunkWorkspaceKey generates a composite key for the workspace chunk index.
// Format: prefix:workspace:chunkID
func makeChunkWorkspaceKey(workspaceID string, id core.ID) []byte {
	prefix := chunkWorkspacePrefix + ":" + workspaceID + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, []byte(prefix))
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeChunkWorkspacePrefix generates the scan prefix for a workspace's chunks.
func makeChunkWorkspacePrefix(workspaceID string) []byte {
	return []byte(chunkWorkspacePrefix + ":" + workspaceID + ":")
}

// makeTermPostingKey generates a composite key for the lexical term index.
// Format: prefix:workspace:token:chunkID
func makeTermPostingKey(workspaceID, token string, id core.ID) []byte {
	prefix := termPostingPrefix + ":" + workspaceID + ":" + token + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, []byte(prefix))
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeTermPostingPrefix generates the scan prefix for one term's postings
// within a workspace.
func makeTermPostingPrefix(workspaceID, token string) []byte {
	return []byte(termPostingPrefix + ":" + workspaceID + ":" + token + ":")
}

// makeNoteKey generates a key for a note by ID.
func makeNoteKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", noteRecordPrefix, id))
}

// makeNoteWorkspaceKey generates a composite key for the workspace note index.
// Format: prefix:workspace:timestamp:id
func makeNoteWorkspaceKey(workspaceID string, createdAt time.Time, id core.ID) []byte {
	prefix := noteWorkspacePrefix + ":" + workspaceID + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, []byte(prefix))
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialNoteWorkspaceKey generates a partial key for note range queries.
// Format: prefix:workspace:timestamp
func makePartialNoteWorkspaceKey(workspaceID string, createdAt time.Time) []byte {
	prefix := noteWorkspacePrefix + ":" + workspaceID + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, []byte(prefix))
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	return buf
}
