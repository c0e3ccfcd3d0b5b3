// Package drive is the hierarchical storage engine: the folder/file tree,
// its structural invariants, quota admission, cascading operations (move,
// rename, purge, zip export) and share-token access.
//
// Stores are mutated only through this package; the HTTP layer never
// touches the tree or the blob store directly. Within one owner's tree,
// structural mutations are serialized by a per-owner lock so a concurrent
// purge and move cannot produce a dangling parent reference. Different
// owners never contend.
package drive

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/dalemusser/stratacloud/internal/app/store/file"
	"github.com/dalemusser/stratacloud/internal/app/store/folder"
	userstore "github.com/dalemusser/stratacloud/internal/app/store/users"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Service orchestrates the tree index, the quota ledger and the blob store.
type Service struct {
	db      *mongo.Database
	folders *folder.Store
	files   *file.Store
	users   *userstore.Store
	blobs   storage.Store
	logger  *zap.Logger

	mu    sync.Mutex
	locks map[primitive.ObjectID]*sync.Mutex
}

// New creates a new drive service.
func New(db *mongo.Database, blobs storage.Store, logger *zap.Logger) *Service {
	return &Service{
		db:      db,
		folders: folder.New(db),
		files:   file.New(db),
		users:   userstore.New(db),
		blobs:   blobs,
		logger:  logger,
		locks:   make(map[primitive.ObjectID]*sync.Mutex),
	}
}

// lockOwner acquires the exclusive structural-mutation lock for one owner's
// tree and returns the release func. Locks are created on first use and
// kept for the service lifetime; the per-owner footprint is one mutex.
func (s *Service) lockOwner(ownerID primitive.ObjectID) func() {
	s.mu.Lock()
	l, ok := s.locks[ownerID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[ownerID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// storagePath builds the blob locator for a new upload:
// user_<owner-hex>/<folder-hex|root>/<uuid-hex><ext>. The random segment
// prevents filename collisions; the owner prefix groups one owner's
// payloads for operational cleanup. Paths are never shared between two
// file records.
func storagePath(ownerID primitive.ObjectID, folderID *primitive.ObjectID, displayName string) string {
	folderPart := "root"
	if folderID != nil {
		folderPart = "folder_" + folderID.Hex()
	}
	ext := filepath.Ext(displayName)
	name := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	return fmt.Sprintf("user_%s/%s/%s", ownerID.Hex(), folderPart, name)
}

// countingReader counts bytes as they pass through so the file record is
// created with the size actually persisted, not the client-declared one.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// notFoundOr maps mongo's no-documents sentinel to the engine taxonomy and
// wraps anything else as a store fault.
func notFoundOr(err error, format string, args ...any) error {
	if err == mongo.ErrNoDocuments {
		return errKind(KindNotFound, format, args...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
