package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jwalitptl/slotbook-api/internal/config"
	"github.com/jwalitptl/slotbook-api/internal/repository"
)

const (
	collectionDoctors  = "doctors"
	collectionPatients = "patients"
	collectionSlots    = "slots"
)

// NewClient connects and pings the server described by cfg.
func NewClient(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo database: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongo database: %w", err)
	}

	log.Info().Str("database", cfg.Database).Msg("connected to mongo database")
	return client, nil
}

type store struct {
	client   *mongo.Client
	doctors  repository.DoctorRepository
	patients repository.PatientRepository
	slots    repository.SlotRepository
}

func NewStore(client *mongo.Client, dbName string) repository.Store {
	db := client.Database(dbName)
	return &store{
		client:   client,
		doctors:  NewDoctorRepository(db),
		patients: NewPatientRepository(db),
		slots:    NewSlotRepository(db),
	}
}

func (s *store) Doctors() repository.DoctorRepository   { return s.doctors }
func (s *store) Patients() repository.PatientRepository { return s.patients }
func (s *store) Slots() repository.SlotRepository       { return s.slots }

func (s *store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique email indexes and the slot lookup indexes.
func EnsureIndexes(ctx context.Context, client *mongo.Client, dbName string) error {
	db := client.Database(dbName)

	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		collectionDoctors: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "specialty", Value: 1}}},
		},
		collectionPatients: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		collectionSlots: {
			{Keys: bson.D{{Key: "doctor_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "patient_id", Value: 1}}},
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	log.Info().Str("database", dbName).Msg("mongo indexes ensured")
	return nil
}

func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, repository.ErrDuplicate)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func now() time.Time {
	// Mongo stores milliseconds; truncate so round trips compare equal.
	return time.Now().UTC().Truncate(time.Millisecond)
}
