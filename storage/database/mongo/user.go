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

	"github.com/madrasahapp/madrasah/core/user"
)

type userRepository struct {
	users *mongo.Collection
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *mongo.Database) user.Repository {
	return &userRepository{users: db.Collection(usersCollection)}
}

// userDoc is the stored shape of a user.User.
type userDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Email         string             `bson:"email"`
	Phone         string             `bson:"phone,omitempty"`
	Password      []byte             `bson:"password"`
	Role          string             `bson:"role"`
	FirstName     string             `bson:"firstName"`
	LastName      string             `bson:"lastName"`
	IsActive      bool               `bson:"isActive"`
	CreatedBy     string             `bson:"createdBy,omitempty"`
	Subjects      []string           `bson:"subjects,omitempty"`
	StudentID     string             `bson:"studentId,omitempty"`
	Grade         string             `bson:"grade,omitempty"`
	Section       string             `bson:"section,omitempty"`
	ClassID       string             `bson:"classId,omitempty"`
	ParentContact *parentContactDoc  `bson:"parentContact,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

type parentContactDoc struct {
	FatherName  string `bson:"fatherName,omitempty"`
	MotherName  string `bson:"motherName,omitempty"`
	FatherPhone string `bson:"fatherPhone,omitempty"`
	MotherPhone string `bson:"motherPhone,omitempty"`
	Address     string `bson:"address,omitempty"`
}

func newUserDoc(usr user.User) userDoc {
	doc := userDoc{
		Email:     usr.Email,
		Phone:     usr.Phone,
		Password:  usr.PasswordHash,
		Role:      string(usr.Role),
		FirstName: usr.FirstName,
		LastName:  usr.LastName,
		IsActive:  usr.IsActive,
		CreatedBy: usr.CreatedBy,
		Subjects:  usr.Subjects,
		StudentID: usr.StudentID,
		Grade:     usr.Grade,
		Section:   usr.Section,
		ClassID:   usr.ClassID,
		CreatedAt: usr.CreatedAt,
		UpdatedAt: usr.UpdatedAt,
	}
	if id, err := primitive.ObjectIDFromHex(usr.ID); err == nil {
		doc.ID = id
	}
	if pc := usr.ParentContact; pc != nil {
		doc.ParentContact = &parentContactDoc{
			FatherName:  pc.FatherName,
			MotherName:  pc.MotherName,
			FatherPhone: pc.FatherPhone,
			MotherPhone: pc.MotherPhone,
			Address:     pc.Address,
		}
	}
	return doc
}

func (doc userDoc) toUser() user.User {
	usr := user.User{
		ID:           doc.ID.Hex(),
		Email:        doc.Email,
		Phone:        doc.Phone,
		Role:         user.Role(doc.Role),
		FirstName:    doc.FirstName,
		LastName:     doc.LastName,
		IsActive:     doc.IsActive,
		PasswordHash: doc.Password,
		CreatedBy:    doc.CreatedBy,
		Subjects:     doc.Subjects,
		StudentID:    doc.StudentID,
		Grade:        doc.Grade,
		Section:      doc.Section,
		ClassID:      doc.ClassID,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
	if pc := doc.ParentContact; pc != nil {
		usr.ParentContact = &user.ParentContact{
			FatherName:  pc.FatherName,
			MotherName:  pc.MotherName,
			FatherPhone: pc.FatherPhone,
			MotherPhone: pc.MotherPhone,
			Address:     pc.Address,
		}
	}
	return usr
}

func (repo *userRepository) CheckUniqueness(ctx context.Context, email, phone, studentID string, excluded ...user.User) error {
	exclIDs := make(bson.A, 0, len(excluded))
	for _, usr := range excluded {
		if id, err := primitive.ObjectIDFromHex(usr.ID); err == nil {
			exclIDs = append(exclIDs, id)
		}
	}

	check := func(field, value string, dupErr error) error {
		if value == "" {
			return nil
		}
		filter := bson.M{field: value}
		if len(exclIDs) > 0 {
			filter["_id"] = bson.M{"$nin": exclIDs}
		}
		err := repo.users.FindOne(ctx, filter).Err()
		if err == nil {
			return dupErr
		}
		if err != mongo.ErrNoDocuments {
			return errors.Wrapf(err, "checking %s uniqueness", field)
		}
		return nil
	}

	if err := check("email", email, user.ErrEmailExists); err != nil {
		return err
	}
	if err := check("phone", phone, user.ErrPhoneExists); err != nil {
		return err
	}
	return check("studentId", studentID, user.ErrStudentIDExists)
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	doc := newUserDoc(usr)
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	if _, err := repo.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, duplicateKeyError(err)
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return doc.toUser(), nil
}

// duplicateKeyError maps a duplicate-key write error to the sentinel of the
// unique index that tripped. Inserts are validated first, so this only fires
// on a validate-then-insert race.
func duplicateKeyError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "phone"):
		return user.ErrPhoneExists
	case strings.Contains(msg, "studentId"):
		return user.ErrStudentIDExists
	default:
		return user.ErrEmailExists
	}
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var query bson.M
	switch {
	case filter.ID != "":
		id, err := primitive.ObjectIDFromHex(filter.ID)
		if err != nil {
			return user.User{}, user.ErrNotFound
		}
		query = bson.M{"_id": id}
	case filter.Email != "":
		query = bson.M{"email": filter.Email}
	case filter.Phone != "":
		query = bson.M{"phone": filter.Phone}
	case filter.StudentID != "":
		query = bson.M{"studentId": filter.StudentID}
	default:
		return user.User{}, user.ErrNotFound
	}

	var doc userDoc
	if err := repo.users.FindOne(ctx, query).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "finding user")
	}
	return doc.toUser(), nil
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, int, error) {
	query := bson.M{}
	if filter.Role != "" {
		query["role"] = string(filter.Role)
	}
	if filter.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"firstName": re},
			bson.M{"lastName": re},
			bson.M{"email": re},
			bson.M{"phone": re},
			bson.M{"studentId": re},
		}
	}

	total, err := repo.users.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, errors.Wrap(err, "counting users")
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit > 0 {
		opts = opts.SetSkip(int64((filter.Page - 1) * filter.Limit)).SetLimit(int64(filter.Limit))
	}
	cursor, err := repo.users.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying users")
	}

	var docs []userDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, 0, errors.Wrap(err, "decoding users")
	}
	users := make([]user.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, doc.toUser())
	}
	return users, int(total), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	id, err := primitive.ObjectIDFromHex(usr.ID)
	if err != nil {
		return user.User{}, user.ErrNotFound
	}

	update := newUserUpdate(usr, isActive)

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated userDoc
	if err = repo.users.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return updated.toUser(), nil
}

// newUserUpdate builds the update document. Empty phone and studentId are
// $unset rather than written back: the sparse unique indexes only exempt
// missing fields, an empty string would still occupy an index key and
// collide with the next phoneless user.
func newUserUpdate(usr user.User, isActive *bool) bson.M {
	doc := newUserDoc(usr)
	set := bson.M{
		"email":     doc.Email,
		"password":  doc.Password,
		"firstName": doc.FirstName,
		"lastName":  doc.LastName,
		"updatedAt": doc.UpdatedAt,
	}
	unset := bson.M{}
	if doc.Phone != "" {
		set["phone"] = doc.Phone
	} else {
		unset["phone"] = ""
	}
	switch usr.Role {
	case user.RoleTeacher:
		set["subjects"] = doc.Subjects
	case user.RoleStudent:
		if doc.StudentID != "" {
			set["studentId"] = doc.StudentID
		} else {
			unset["studentId"] = ""
		}
		set["grade"] = doc.Grade
		set["section"] = doc.Section
		set["classId"] = doc.ClassID
		set["parentContact"] = doc.ParentContact
	}
	if isActive != nil {
		set["isActive"] = *isActive
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func (repo *userRepository) CountStudentsByClass(ctx context.Context, classID string) (int, error) {
	count, err := repo.users.CountDocuments(ctx, bson.M{"role": string(user.RoleStudent), "classId": classID})
	if err != nil {
		return 0, errors.Wrap(err, "counting students by class")
	}
	return int(count), nil
}
