package mongodb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jwalitptl/slotbook-api/internal/model"
	"github.com/jwalitptl/slotbook-api/internal/repository"
)

type slotRepository struct {
	collection *mongo.Collection
}

func NewSlotRepository(db *mongo.Database) repository.SlotRepository {
	return &slotRepository{collection: db.Collection(collectionSlots)}
}

func (r *slotRepository) Create(ctx context.Context, slot *model.Slot) error {
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	slot.CreatedAt = now()
	slot.UpdatedAt = slot.CreatedAt

	_, err := r.collection.InsertOne(ctx, newSlotDocument(slot))
	return translate("create slot", err)
}

func (r *slotRepository) Get(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	var doc slotDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		return nil, translate("get slot", err)
	}
	return doc.model()
}

func (r *slotRepository) List(ctx context.Context, filters *model.SlotFilters) ([]*model.Slot, error) {
	filter := bson.M{}
	if filters != nil {
		if filters.DoctorID != nil {
			filter["doctor_id"] = filters.DoctorID.String()
		}
		if filters.PatientID != nil {
			filter["patient_id"] = filters.PatientID.String()
		}
		if filters.Booked != nil {
			filter["booked"] = *filters.Booked
		}
		if filters.OnlyAvailable {
			filter["booked"] = false
			filter["status"] = string(model.SlotStatusAvailable)
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate("list slots", err)
	}
	defer cursor.Close(ctx)

	var docs []slotDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translate("decode slots", err)
	}

	slots := make([]*model.Slot, 0, len(docs))
	for i := range docs {
		s, err := docs[i].model()
		if err != nil {
			return nil, fmt.Errorf("failed to decode slot %s: %w", docs[i].ID, err)
		}
		slots = append(slots, s)
	}
	return slots, nil
}

// UpdateIfStatus relies on single-document atomicity: the filter pins the expected status.
func (r *slotRepository) UpdateIfStatus(ctx context.Context, slot *model.Slot, expected model.SlotStatus) error {
	slot.UpdatedAt = now()
	doc := newSlotDocument(slot)

	set := bson.M{
		"booked":     doc.Booked,
		"patient_id": doc.PatientID,
		"status":     doc.Status,
		"report":     doc.Report,
		"updated_at": doc.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if doc.Prescription != nil {
		set["prescription"] = doc.Prescription
	} else {
		update["$unset"] = bson.M{"prescription": ""}
	}

	filter := bson.M{"_id": doc.ID, "status": string(expected)}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return translate("update slot", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}
	return r.missReason(ctx, slot.ID, "update slot")
}

func (r *slotRepository) DeleteIfStatus(ctx context.Context, id uuid.UUID, expected model.SlotStatus) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id.String(), "status": string(expected)})
	if err != nil {
		return translate("delete slot", err)
	}
	if result.DeletedCount > 0 {
		return nil
	}
	return r.missReason(ctx, id, "delete slot")
}

func (r *slotRepository) missReason(ctx context.Context, id uuid.UUID, op string) error {
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id.String()}, options.Count().SetLimit(1))
	if err != nil {
		return translate(op, err)
	}
	if count == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, repository.ErrStaleState)
}
