package mongodb

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jwalitptl/slotbook-api/internal/model"
	"github.com/jwalitptl/slotbook-api/internal/repository"
)

type doctorRepository struct {
	collection *mongo.Collection
}

func NewDoctorRepository(db *mongo.Database) repository.DoctorRepository {
	return &doctorRepository{collection: db.Collection(collectionDoctors)}
}

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	if doctor.ID == uuid.Nil {
		doctor.ID = uuid.New()
	}
	doctor.CreatedAt = now()
	doctor.UpdatedAt = doctor.CreatedAt

	_, err := r.collection.InsertOne(ctx, newDoctorDocument(doctor))
	return translate("create doctor", err)
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()}, "get doctor")
}

func (r *doctorRepository) GetByEmail(ctx context.Context, email string) (*model.Doctor, error) {
	return r.findOne(ctx, bson.M{"email": email}, "get doctor by email")
}

func (r *doctorRepository) findOne(ctx context.Context, filter bson.M, op string) (*model.Doctor, error) {
	var doc doctorDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(op, err)
	}
	return doc.model()
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	doctor.UpdatedAt = now()
	update := bson.M{"$set": bson.M{
		"name":          doctor.Name,
		"specialty":     doctor.Specialty,
		"price":         doctor.Price,
		"experience":    doctor.Experience,
		"gender":        doctor.Gender,
		"certification": doctor.Certification,
		"updated_at":    doctor.UpdatedAt,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": doctor.ID.String()}, update, options.Update().SetUpsert(false))
	if err != nil {
		return translate("update doctor", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("update doctor: %w", repository.ErrNotFound)
	}
	return nil
}

func (r *doctorRepository) List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	filter := bson.M{}
	if filters != nil && filters.Specialty != "" {
		filter["specialty"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(filters.Specialty) + "$", Options: "i"}
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, translate("list doctors", err)
	}
	defer cursor.Close(ctx)

	var docs []doctorDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translate("decode doctors", err)
	}

	doctors := make([]*model.Doctor, 0, len(docs))
	for i := range docs {
		d, err := docs[i].model()
		if err != nil {
			return nil, fmt.Errorf("failed to decode doctor %s: %w", docs[i].ID, err)
		}
		doctors = append(doctors, d)
	}
	return doctors, nil
}
