package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/anonto42/walltribe/backend/internal/models"
)

type fact struct {
	userID  uint
	imageID string
}

// ReactionRepository is an in-memory repositories.ReactionRepository with
// one set per relation, mirroring the (user_id, image_id) unique indexes.
type ReactionRepository struct {
	mu    sync.RWMutex
	facts map[models.ReactionKind]map[fact]struct{}
}

// NewReactionRepository creates an empty ReactionRepository
func NewReactionRepository() *ReactionRepository {
	facts := make(map[models.ReactionKind]map[fact]struct{}, len(models.ReactionKinds))
	for _, kind := range models.ReactionKinds {
		facts[kind] = make(map[fact]struct{})
	}
	return &ReactionRepository{facts: facts}
}

func (r *ReactionRepository) relation(kind models.ReactionKind) (map[fact]struct{}, error) {
	set, ok := r.facts[kind]
	if !ok {
		return nil, fmt.Errorf("unknown reaction kind %q", kind)
	}
	return set, nil
}

// InsertFact adds the fact, reporting whether it was new
func (r *ReactionRepository) InsertFact(ctx context.Context, kind models.ReactionKind, userID uint, imageID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, err := r.relation(kind)
	if err != nil {
		return false, err
	}
	key := fact{userID, imageID}
	if _, ok := set[key]; ok {
		return false, nil
	}
	set[key] = struct{}{}
	return true, nil
}

// DeleteFact removes the fact, reporting whether it existed
func (r *ReactionRepository) DeleteFact(ctx context.Context, kind models.ReactionKind, userID uint, imageID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, err := r.relation(kind)
	if err != nil {
		return false, err
	}
	key := fact{userID, imageID}
	if _, ok := set[key]; !ok {
		return false, nil
	}
	delete(set, key)
	return true, nil
}

// HasFact reports whether the fact exists
func (r *ReactionRepository) HasFact(ctx context.Context, kind models.ReactionKind, userID uint, imageID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, err := r.relation(kind)
	if err != nil {
		return false, err
	}
	_, ok := set[fact{userID, imageID}]
	return ok, nil
}

// CountFacts returns the number of users holding kind on imageID
func (r *ReactionRepository) CountFacts(ctx context.Context, kind models.ReactionKind, imageID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, err := r.relation(kind)
	if err != nil {
		return 0, err
	}
	var n int64
	for key := range set {
		if key.imageID == imageID {
			n++
		}
	}
	return n, nil
}

// GetUserFactImageIDs returns which of imageIDs userID holds kind on
func (r *ReactionRepository) GetUserFactImageIDs(ctx context.Context, kind models.ReactionKind, userID uint, imageIDs []string) (map[string]bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, err := r.relation(kind)
	if err != nil {
		return nil, err
	}
	held := make(map[string]bool)
	for _, imageID := range imageIDs {
		if _, ok := set[fact{userID, imageID}]; ok {
			held[imageID] = true
		}
	}
	return held, nil
}

// DeleteFactsByImageID removes every fact referencing imageID
func (r *ReactionRepository) DeleteFactsByImageID(ctx context.Context, imageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, set := range r.facts {
		for key := range set {
			if key.imageID == imageID {
				delete(set, key)
			}
		}
	}
	return nil
}
