package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/walltribe/backend/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ImageRepository defines the interface for image data operations
type ImageRepository interface {
	CreateImage(ctx context.Context, image *models.Image) error
	GetImageByID(ctx context.Context, id string) (*models.Image, error)
	GetImagesByOwnerIDs(ctx context.Context, ownerIDs []uint) ([]models.Image, error)
	GetAllImageIDs(ctx context.Context) ([]string, error)
	MarkDeleting(ctx context.Context, id string) error
	DeleteImage(ctx context.Context, id string) error
	BeginUpdate(ctx context.Context, id string) (token string, err error)
	EndUpdate(ctx context.Context, id, token string) error
	IncrementCounter(ctx context.Context, id string, kind models.ReactionKind, delta int64) error
	SetCounters(ctx context.Context, id string, counters models.Counters, revision int64, staleBefore time.Time) (bool, error)
}

// notDeleting matches images that still accept reactions
var notDeleting = bson.M{"$ne": true}

// MongoImageRepository implements ImageRepository for MongoDB
type MongoImageRepository struct {
	collection *mongo.Collection
}

// NewMongoImageRepository creates a new MongoImageRepository
func NewMongoImageRepository(db *mongo.Database) *MongoImageRepository {
	return &MongoImageRepository{collection: db.Collection("images")}
}

// EnsureIndexes creates the owner/creation index used by the feed query
func (r *MongoImageRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

func objectID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return objID, nil
}

// CreateImage creates a new image with zeroed counters
func (r *MongoImageRepository) CreateImage(ctx context.Context, image *models.Image) error {
	image.ID = primitive.NewObjectID()
	image.CreatedAt = time.Now()
	image.LikeCount, image.DislikeCount, image.FavoriteCount = 0, 0, 0
	image.Revision, image.Pending, image.Deleting = 0, nil, false
	_, err := r.collection.InsertOne(ctx, image)
	return err
}

// GetImageByID retrieves an image by ID from MongoDB
func (r *MongoImageRepository) GetImageByID(ctx context.Context, id string) (*models.Image, error) {
	objID, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var image models.Image
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&image)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &image, nil
}

// GetImagesByOwnerIDs retrieves every image owned by one of ownerIDs, newest first.
// Images being deleted are left out.
func (r *MongoImageRepository) GetImagesByOwnerIDs(ctx context.Context, ownerIDs []uint) ([]models.Image, error) {
	images := []models.Image{}
	if len(ownerIDs) == 0 {
		return images, nil
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"owner_id": bson.M{"$in": ownerIDs}, "deleting": notDeleting}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &images); err != nil {
		return nil, err
	}
	return images, nil
}

// GetAllImageIDs returns the hex ID of every image
func (r *MongoImageRepository) GetAllImageIDs(ctx context.Context) ([]string, error) {
	cursor, err := r.collection.Find(ctx, bson.D{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID.Hex())
	}
	return ids, cursor.Err()
}

// MarkDeleting flags the image so that no new reaction can start on it
func (r *MongoImageRepository) MarkDeleting(ctx context.Context, id string) error {
	objID, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": bson.M{"deleting": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteImage deletes an image by ID from MongoDB
func (r *MongoImageRepository) DeleteImage(ctx context.Context, id string) error {
	objID, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementCounter atomically adds delta to the counter caching kind
func (r *MongoImageRepository) IncrementCounter(ctx context.Context, id string, kind models.ReactionKind, delta int64) error {
	objID, err := objectID(id)
	if err != nil {
		return err
	}
	field := kind.CounterField()
	if field == "" {
		return fmt.Errorf("unknown reaction kind %q", kind)
	}
	filter := bson.M{"_id": objID, "deleting": notDeleting}
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{field: delta}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// BeginUpdate registers a reaction in flight and bumps the revision.
// It fails with ErrNotFound once the image is gone or being deleted.
func (r *MongoImageRepository) BeginUpdate(ctx context.Context, id string) (string, error) {
	objID, err := objectID(id)
	if err != nil {
		return "", err
	}

	token := uuid.NewString()
	update := bson.M{
		"$inc":  bson.M{"revision": 1},
		"$push": bson.M{"pending": models.PendingUpdate{Token: token, StartedAt: time.Now()}},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID, "deleting": notDeleting}, update)
	if err != nil {
		return "", err
	}
	if res.MatchedCount == 0 {
		return "", ErrNotFound
	}
	return token, nil
}

// EndUpdate clears the marker left by BeginUpdate. A deleted image is not an error.
func (r *MongoImageRepository) EndUpdate(ctx context.Context, id, token string) error {
	objID, err := objectID(id)
	if err != nil {
		return err
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$pull": bson.M{"pending": bson.M{"token": token}}})
	return err
}

// SetCounters overwrites all three counters if the image is still at revision.
// Markers older than staleBefore are dropped in the same write. It reports
// false when the revision moved or the image disappeared.
func (r *MongoImageRepository) SetCounters(ctx context.Context, id string, counters models.Counters, revision int64, staleBefore time.Time) (bool, error) {
	objID, err := objectID(id)
	if err != nil {
		return false, err
	}
	update := bson.M{
		"$set": bson.M{
			"like_count":     counters.Likes,
			"dislike_count":  counters.Dislikes,
			"favorite_count": counters.Favorites,
		},
		"$pull": bson.M{"pending": bson.M{"started_at": bson.M{"$lte": staleBefore}}},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID, "revision": revision}, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}
