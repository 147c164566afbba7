package mongodb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jwalitptl/slotbook-api/internal/model"
	"github.com/jwalitptl/slotbook-api/internal/repository"
)

type patientRepository struct {
	collection *mongo.Collection
}

func NewPatientRepository(db *mongo.Database) repository.PatientRepository {
	return &patientRepository{collection: db.Collection(collectionPatients)}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	if patient.ID == uuid.Nil {
		patient.ID = uuid.New()
	}
	patient.CreatedAt = now()
	patient.UpdatedAt = patient.CreatedAt

	_, err := r.collection.InsertOne(ctx, newPatientDocument(patient))
	return translate("create patient", err)
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()}, "get patient")
}

func (r *patientRepository) GetByEmail(ctx context.Context, email string) (*model.Patient, error) {
	return r.findOne(ctx, bson.M{"email": email}, "get patient by email")
}

func (r *patientRepository) findOne(ctx context.Context, filter bson.M, op string) (*model.Patient, error) {
	var doc patientDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(op, err)
	}
	return doc.model()
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	patient.UpdatedAt = now()
	update := bson.M{"$set": bson.M{
		"name":          patient.Name,
		"city":          patient.City,
		"date_of_birth": patient.DateOfBirth,
		"gender":        patient.Gender,
		"contact":       patient.Contact,
		"blood_group":   patient.BloodGroup,
		"avatar_url":    patient.AvatarURL,
		"updated_at":    patient.UpdatedAt,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": patient.ID.String()}, update)
	if err != nil {
		return translate("update patient", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("update patient: %w", repository.ErrNotFound)
	}
	return nil
}
