package repositories

import (
	"context"
	"fmt"

	"github.com/anonto42/walltribe/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionRepository defines the interface for the like, dislike and favorite fact tables.
// InsertFact and DeleteFact are conditional: they report whether the fact actually changed,
// so callers move the image counters only when it did.
type ReactionRepository interface {
	InsertFact(ctx context.Context, kind models.ReactionKind, userID uint, imageID string) (bool, error)
	DeleteFact(ctx context.Context, kind models.ReactionKind, userID uint, imageID string) (bool, error)
	HasFact(ctx context.Context, kind models.ReactionKind, userID uint, imageID string) (bool, error)
	CountFacts(ctx context.Context, kind models.ReactionKind, imageID string) (int64, error)
	GetUserFactImageIDs(ctx context.Context, kind models.ReactionKind, userID uint, imageIDs []string) (map[string]bool, error)
	DeleteFactsByImageID(ctx context.Context, imageID string) error
}

// PostgresReactionRepository implements ReactionRepository for PostgreSQL
type PostgresReactionRepository struct {
	db *gorm.DB
}

// NewPostgresReactionRepository creates a new PostgresReactionRepository
func NewPostgresReactionRepository(db *gorm.DB) *PostgresReactionRepository {
	return &PostgresReactionRepository{db: db}
}

// factModel returns a row of the table backing kind
func factModel(kind models.ReactionKind, userID uint, imageID string) (interface{}, error) {
	switch kind {
	case models.KindLike:
		return &models.Like{UserID: userID, ImageID: imageID}, nil
	case models.KindDislike:
		return &models.Dislike{UserID: userID, ImageID: imageID}, nil
	case models.KindFavorite:
		return &models.Favorite{UserID: userID, ImageID: imageID}, nil
	}
	return nil, fmt.Errorf("unknown reaction kind %q", kind)
}

// InsertFact creates the fact unless it already exists
func (r *PostgresReactionRepository) InsertFact(ctx context.Context, kind models.ReactionKind, userID uint, imageID string) (bool, error) {
	row, err := factModel(kind, userID, imageID)
	if err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}, {Name: "image_id"}}, DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteFact removes the fact if present
func (r *PostgresReactionRepository) DeleteFact(ctx context.Context, kind models.ReactionKind, userID uint, imageID string) (bool, error) {
	row, err := factModel(kind, 0, "")
	if err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).Where("user_id = ? AND image_id = ?", userID, imageID).Delete(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// HasFact checks if the user holds the fact for the image
func (r *PostgresReactionRepository) HasFact(ctx context.Context, kind models.ReactionKind, userID uint, imageID string) (bool, error) {
	row, err := factModel(kind, 0, "")
	if err != nil {
		return false, err
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(row).Where("user_id = ? AND image_id = ?", userID, imageID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountFacts returns the cardinality of the relation for one image
func (r *PostgresReactionRepository) CountFacts(ctx context.Context, kind models.ReactionKind, imageID string) (int64, error) {
	row, err := factModel(kind, 0, "")
	if err != nil {
		return 0, err
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(row).Where("image_id = ?", imageID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GetUserFactImageIDs returns the subset of imageIDs for which the user holds the fact
func (r *PostgresReactionRepository) GetUserFactImageIDs(ctx context.Context, kind models.ReactionKind, userID uint, imageIDs []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(imageIDs) == 0 {
		return result, nil
	}
	row, err := factModel(kind, 0, "")
	if err != nil {
		return nil, err
	}
	var ids []string
	err = r.db.WithContext(ctx).Model(row).
		Where("user_id = ? AND image_id IN ?", userID, imageIDs).
		Pluck("image_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

// DeleteFactsByImageID removes every like, dislike and favorite of the image
func (r *PostgresReactionRepository) DeleteFactsByImageID(ctx context.Context, imageID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, kind := range models.ReactionKinds {
			row, err := factModel(kind, 0, "")
			if err != nil {
				return err
			}
			if err := tx.Where("image_id = ?", imageID).Delete(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
