package mongodb

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/madrasahapp/madrasah/core/class"
)

type classRepository struct {
	classes *mongo.Collection
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *mongo.Database) class.Repository {
	return &classRepository{classes: db.Collection(classesCollection)}
}

// classDoc is the stored shape of a class.Class. NameLower backs the
// case-insensitive uniqueness index.
type classDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	NameLower string             `bson:"nameLower"`
	IsActive  bool               `bson:"isActive"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func newClassDoc(cls class.Class) classDoc {
	doc := classDoc{
		Name:      cls.Name,
		NameLower: strings.ToLower(cls.Name),
		IsActive:  cls.IsActive,
		CreatedAt: cls.CreatedAt,
		UpdatedAt: cls.UpdatedAt,
	}
	if id, err := primitive.ObjectIDFromHex(cls.ID); err == nil {
		doc.ID = id
	}
	return doc
}

func (doc classDoc) toClass() class.Class {
	return class.Class{
		ID:        doc.ID.Hex(),
		Name:      doc.Name,
		IsActive:  doc.IsActive,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func (repo *classRepository) CheckNameUniqueness(ctx context.Context, name string, excluded ...class.Class) error {
	filter := bson.M{"nameLower": strings.ToLower(name)}
	exclIDs := make(bson.A, 0, len(excluded))
	for _, cls := range excluded {
		if id, err := primitive.ObjectIDFromHex(cls.ID); err == nil {
			exclIDs = append(exclIDs, id)
		}
	}
	if len(exclIDs) > 0 {
		filter["_id"] = bson.M{"$nin": exclIDs}
	}

	err := repo.classes.FindOne(ctx, filter).Err()
	if err == nil {
		return class.ErrNameExists
	}
	if err != mongo.ErrNoDocuments {
		return errors.Wrap(err, "checking class name uniqueness")
	}
	return nil
}

func (repo *classRepository) CreateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	doc := newClassDoc(cls)
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	if _, err := repo.classes.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return class.Class{}, class.ErrNameExists
		}
		return class.Class{}, errors.Wrap(err, "inserting class")
	}
	return doc.toClass(), nil
}

func (repo *classRepository) GetClass(ctx context.Context, filter class.GetFilter) (class.Class, error) {
	var query bson.M
	switch {
	case filter.ID != "":
		id, err := primitive.ObjectIDFromHex(filter.ID)
		if err != nil {
			return class.Class{}, class.ErrNotFound
		}
		query = bson.M{"_id": id}
	case filter.Name != "":
		query = bson.M{"nameLower": strings.ToLower(filter.Name)}
	default:
		return class.Class{}, class.ErrNotFound
	}

	var doc classDoc
	if err := repo.classes.FindOne(ctx, query).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return class.Class{}, class.ErrNotFound
		}
		return class.Class{}, errors.Wrap(err, "finding class")
	}
	return doc.toClass(), nil
}

func (repo *classRepository) FilterClasses(ctx context.Context, filter class.QueryFilter) ([]class.Class, int, error) {
	query := bson.M{}
	if filter.Search != "" {
		query["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
	}

	total, err := repo.classes.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, errors.Wrap(err, "counting classes")
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	if filter.Limit > 0 {
		opts = opts.SetSkip(int64((filter.Page - 1) * filter.Limit)).SetLimit(int64(filter.Limit))
	}
	cursor, err := repo.classes.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying classes")
	}

	var docs []classDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, 0, errors.Wrap(err, "decoding classes")
	}
	classes := make([]class.Class, 0, len(docs))
	for _, doc := range docs {
		classes = append(classes, doc.toClass())
	}
	return classes, int(total), nil
}

func (repo *classRepository) UpdateClass(ctx context.Context, cls class.Class, isActive *bool) (class.Class, error) {
	id, err := primitive.ObjectIDFromHex(cls.ID)
	if err != nil {
		return class.Class{}, class.ErrNotFound
	}

	set := bson.M{
		"name":      cls.Name,
		"nameLower": strings.ToLower(cls.Name),
		"updatedAt": cls.UpdatedAt,
	}
	if isActive != nil {
		set["isActive"] = *isActive
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated classDoc
	if err = repo.classes.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return class.Class{}, class.ErrNotFound
		}
		return class.Class{}, errors.Wrap(err, "updating class")
	}
	return updated.toClass(), nil
}

func (repo *classRepository) DeleteClass(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return class.ErrNotFound
	}
	res, err := repo.classes.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errors.Wrap(err, "deleting class")
	}
	if res.DeletedCount == 0 {
		return class.ErrNotFound
	}
	return nil
}
