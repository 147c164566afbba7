package mongodb

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/jwalitptl/slotbook-api/internal/model"
	"github.com/jwalitptl/slotbook-api/internal/repository"
)

func countResponse(n int64) bson.D {
	ns := mtest.TestDb + "." + collectionSlots
	if n < 0 {
		return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch)
	}
	return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: n}})
}

func TestSlotConditionalWrites(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	newSlot := func() *model.Slot {
		return &model.Slot{
			Base:     model.Base{ID: uuid.New()},
			DoctorID: uuid.New(),
			Date:     "2024-06-02",
			Time:     "10:00",
			Status:   model.SlotStatusCancelled,
		}
	}

	mt.Run("update applied", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1},
		))
		err := NewSlotRepository(mt.DB).UpdateIfStatus(ctx, newSlot(), model.SlotStatusPending)
		assert.NoError(mt, err)

		started := mt.GetStartedEvent()
		if assert.NotNil(mt, started) {
			assert.Equal(mt, "update", started.CommandName)
		}
	})

	mt.Run("update on changed status is stale", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			countResponse(1),
		)
		err := NewSlotRepository(mt.DB).UpdateIfStatus(ctx, newSlot(), model.SlotStatusPending)
		assert.ErrorIs(mt, err, repository.ErrStaleState)
	})

	mt.Run("update on missing slot", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			countResponse(-1),
		)
		err := NewSlotRepository(mt.DB).UpdateIfStatus(ctx, newSlot(), model.SlotStatusPending)
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("delete on changed status is stale", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
			countResponse(1),
		)
		err := NewSlotRepository(mt.DB).DeleteIfStatus(ctx, uuid.New(), model.SlotStatusAvailable)
		assert.ErrorIs(mt, err, repository.ErrStaleState)
	})

	mt.Run("delete on missing slot", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
			countResponse(-1),
		)
		err := NewSlotRepository(mt.DB).DeleteIfStatus(ctx, uuid.New(), model.SlotStatusAvailable)
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("delete applied", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		err := NewSlotRepository(mt.DB).DeleteIfStatus(ctx, uuid.New(), model.SlotStatusAvailable)
		assert.NoError(mt, err)
	})

	mt.Run("duplicate insert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))
		err := NewDoctorRepository(mt.DB).Create(ctx, &model.Doctor{Email: "grey@clinic.test"})
		assert.ErrorIs(mt, err, repository.ErrDuplicate)
	})
}
