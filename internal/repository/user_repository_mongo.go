package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sandeepkv93/movie-catalog-backend/internal/domain"
	"github.com/sandeepkv93/movie-catalog-backend/internal/observability"
)

const UsersCollection = "users"

// mongoUser mirrors the document layout of the legacy users collection.
type mongoUser struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	FullName    string        `bson:"fullName"`
	Email       string        `bson:"email"`
	Password    string        `bson:"password,omitempty"`
	Image       string        `bson:"image,omitempty"`
	IsAdmin     bool          `bson:"isAdmin"`
	LikedMovies []string      `bson:"likedMovies"`
	CreatedAt   time.Time     `bson:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt"`
}

func (d *mongoUser) toDomain() *domain.User {
	likes := d.LikedMovies
	if likes == nil {
		likes = []string{}
	}
	return &domain.User{
		ID:           d.ID.Hex(),
		FullName:     d.FullName,
		Email:        d.Email,
		PasswordHash: d.Password,
		Image:        d.Image,
		IsAdmin:      d.IsAdmin,
		LikedMovies:  likes,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

var publicProjection = bson.D{{Key: "password", Value: 0}}

type MongoUserRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &MongoUserRepository{
		coll: db.Collection(UsersCollection),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// EnsureUserIndexes creates the unique email index. Safe to call on every start.
func EnsureUserIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
	})
	if err != nil {
		return fmt.Errorf("create users email index: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) Create(ctx context.Context, user *domain.User) error {
	now := r.now()
	doc := mongoUser{
		ID:          bson.NewObjectID(),
		FullName:    user.FullName,
		Email:       user.Email,
		Password:    user.PasswordHash,
		Image:       user.Image,
		IsAdmin:     user.IsAdmin,
		LikedMovies: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := r.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		err = ErrDuplicateEmail
	}
	if err == nil {
		user.ID = doc.ID.Hex()
		user.LikedMovies = doc.LikedMovies
		user.CreatedAt = now
		user.UpdatedAt = now
	}
	observability.RecordRepositoryOperation(ctx, "user", "create", outcomeFor(err))
	return err
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := r.findOne(ctx, id, options.FindOne())
	observability.RecordRepositoryOperation(ctx, "user", "find_by_id", outcomeFor(err))
	return u, err
}

func (r *MongoUserRepository) FindPublicByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := r.findOne(ctx, id, options.FindOne().SetProjection(publicProjection))
	observability.RecordRepositoryOperation(ctx, "user", "find_public_by_id", outcomeFor(err))
	return u, err
}

func (r *MongoUserRepository) findOne(ctx context.Context, id string, opts *options.FindOneOptionsBuilder) (*domain.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidUserID
	}
	return r.decodeOne(r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}, opts))
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := r.decodeOne(r.coll.FindOne(ctx, bson.D{{Key: "email", Value: email}}))
	observability.RecordRepositoryOperation(ctx, "user", "find_by_email", outcomeFor(err))
	return u, err
}

func (r *MongoUserRepository) decodeOne(res *mongo.SingleResult) (*domain.User, error) {
	var doc mongoUser
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *MongoUserRepository) List(ctx context.Context) ([]domain.User, error) {
	opts := options.Find().
		SetProjection(publicProjection).
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	users, err := r.find(ctx, opts)
	observability.RecordRepositoryOperation(ctx, "user", "list", outcomeFor(err))
	return users, err
}

func (r *MongoUserRepository) ListPaged(ctx context.Context, req PageRequest) (PageResult[domain.User], error) {
	req = req.Normalize()
	total, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "user", "list_paged", "error")
		return PageResult[domain.User]{}, err
	}
	opts := options.Find().
		SetProjection(publicProjection).
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(req.Offset())).
		SetLimit(int64(req.PageSize))
	items, err := r.find(ctx, opts)
	observability.RecordRepositoryOperation(ctx, "user", "list_paged", outcomeFor(err))
	if err != nil {
		return PageResult[domain.User]{}, err
	}
	return newPageResult(req, items, total), nil
}

func (r *MongoUserRepository) find(ctx context.Context, opts *options.FindOptionsBuilder) ([]domain.User, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []mongoUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(docs))
	for i := range docs {
		users = append(users, *docs[i].toDomain())
	}
	return users, nil
}

func (r *MongoUserRepository) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) error {
	set := bson.D{{Key: "updatedAt", Value: r.now()}}
	if update.FullName != "" {
		set = append(set, bson.E{Key: "fullName", Value: update.FullName})
	}
	if update.Email != "" {
		set = append(set, bson.E{Key: "email", Value: update.Email})
	}
	if update.Image != "" {
		set = append(set, bson.E{Key: "image", Value: update.Image})
	}
	err := r.updateByID(ctx, id, bson.D{{Key: "$set", Value: set}})
	if mongo.IsDuplicateKeyError(err) {
		err = ErrDuplicateEmail
	}
	observability.RecordRepositoryOperation(ctx, "user", "update_profile", outcomeFor(err))
	return err
}

func (r *MongoUserRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	err := r.updateByID(ctx, id, bson.D{{Key: "$set", Value: bson.D{
		{Key: "password", Value: hash},
		{Key: "updatedAt", Value: r.now()},
	}}})
	observability.RecordRepositoryOperation(ctx, "user", "update_password", outcomeFor(err))
	return err
}

func (r *MongoUserRepository) SetAdmin(ctx context.Context, email string, isAdmin bool) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "email", Value: strings.TrimSpace(strings.ToLower(email))}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "isAdmin", Value: isAdmin},
			{Key: "updatedAt", Value: r.now()},
		}}},
	)
	if err == nil && res.MatchedCount == 0 {
		err = ErrUserNotFound
	}
	observability.RecordRepositoryOperation(ctx, "user", "set_admin", outcomeFor(err))
	return err
}

func (r *MongoUserRepository) DeleteNonAdmin(ctx context.Context, id string) error {
	err := r.deleteNonAdmin(ctx, id)
	observability.RecordRepositoryOperation(ctx, "user", "delete", outcomeFor(err))
	return err
}

func (r *MongoUserRepository) deleteNonAdmin(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidUserID
	}
	res, err := r.coll.DeleteOne(ctx, bson.D{
		{Key: "_id", Value: oid},
		{Key: "isAdmin", Value: bson.D{{Key: "$ne", Value: true}}},
	})
	if err != nil {
		return err
	}
	if res.DeletedCount > 0 {
		return nil
	}
	n, err := r.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrAdminProtected
	}
	return ErrUserNotFound
}

func (r *MongoUserRepository) LikedMovies(ctx context.Context, userID string) ([]string, error) {
	u, err := r.findOne(ctx, userID, options.FindOne().SetProjection(bson.D{{Key: "likedMovies", Value: 1}}))
	observability.RecordRepositoryOperation(ctx, "user", "liked_movies", outcomeFor(err))
	if err != nil {
		return nil, err
	}
	return u.LikedMovies, nil
}

// AddLikedMovie appends movieID only while it is absent, in one atomic update.
func (r *MongoUserRepository) AddLikedMovie(ctx context.Context, userID, movieID string) ([]string, error) {
	likes, err := r.addLikedMovie(ctx, userID, movieID)
	observability.RecordRepositoryOperation(ctx, "user", "add_liked_movie", outcomeFor(err))
	return likes, err
}

func (r *MongoUserRepository) addLikedMovie(ctx context.Context, userID, movieID string) ([]string, error) {
	oid, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrInvalidUserID
	}
	filter := bson.D{
		{Key: "_id", Value: oid},
		{Key: "likedMovies", Value: bson.D{{Key: "$ne", Value: movieID}}},
	}
	update := bson.D{
		{Key: "$push", Value: bson.D{{Key: "likedMovies", Value: movieID}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: r.now()}}},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.D{{Key: "likedMovies", Value: 1}})

	var doc mongoUser
	err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return doc.toDomain().LikedMovies, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	n, err := r.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrMovieAlreadyLiked
	}
	return nil, ErrUserNotFound
}

func (r *MongoUserRepository) ClearLikedMovies(ctx context.Context, userID string) error {
	err := r.updateByID(ctx, userID, bson.D{{Key: "$set", Value: bson.D{
		{Key: "likedMovies", Value: []string{}},
		{Key: "updatedAt", Value: r.now()},
	}}})
	observability.RecordRepositoryOperation(ctx, "user", "clear_liked_movies", outcomeFor(err))
	return err
}

func (r *MongoUserRepository) updateByID(ctx context.Context, id string, update bson.D) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidUserID
	}
	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
