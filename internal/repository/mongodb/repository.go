package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/carbontracker/internal/domain/models"
	"github.com/mamadbah2/carbontracker/internal/repository"
)

const (
	logsCollection        = "emission_logs"
	tripsCollection       = "vehicle_trips"
	electricityCollection = "electricity_uses"
	wasteCollection       = "waste_entries"
	fuelCollection        = "fuel_combustions"
)

// MongoDBRepository implements repository.Store for MongoDB.
type MongoDBRepository struct {
	client       *mongo.Client
	db           *mongo.Database
	transactions bool
	logger       *zap.Logger
}

var _ repository.Store = (*MongoDBRepository)(nil)

// NewMongoDBRepository creates a new MongoDB repository. When transactions is
// true, Atomically uses multi-document transactions (replica set required).
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, transactions bool, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	r := &MongoDBRepository{
		client:       client,
		db:           client.Database(dbName),
		transactions: transactions,
		logger:       logger,
	}
	if err := r.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	if _, err := r.db.Collection(logsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: -1}},
	}); err != nil {
		return fmt.Errorf("failed to index %s: %w", logsCollection, err)
	}

	for _, name := range []string{tripsCollection, electricityCollection, wasteCollection, fuelCollection} {
		if _, err := r.db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "emission_log_id", Value: 1}},
		}); err != nil {
			return fmt.Errorf("failed to index %s: %w", name, err)
		}
	}
	return nil
}

// CreateLog inserts a new emission log.
func (r *MongoDBRepository) CreateLog(ctx context.Context, log *models.EmissionLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if _, err := r.db.Collection(logsCollection).InsertOne(ctx, log); err != nil {
		return fmt.Errorf("failed to insert emission log: %w", err)
	}
	return nil
}

// GetLog loads a log by ID.
func (r *MongoDBRepository) GetLog(ctx context.Context, id string) (models.EmissionLog, error) {
	var log models.EmissionLog
	err := r.db.Collection(logsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&log)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.EmissionLog{}, fmt.Errorf("emission log %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return models.EmissionLog{}, fmt.Errorf("failed to load emission log %s: %w", id, err)
	}
	return log, nil
}

// SaveLog replaces an existing log document.
func (r *MongoDBRepository) SaveLog(ctx context.Context, log models.EmissionLog) error {
	res, err := r.db.Collection(logsCollection).ReplaceOne(ctx, bson.M{"_id": log.ID}, log)
	if err != nil {
		return fmt.Errorf("failed to update emission log %s: %w", log.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("emission log %s: %w", log.ID, repository.ErrNotFound)
	}
	return nil
}

// ListLogsByUser returns the user's logs, newest first.
func (r *MongoDBRepository) ListLogsByUser(ctx context.Context, userID string) ([]models.EmissionLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}})
	cursor, err := r.db.Collection(logsCollection).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list emission logs for user %s: %w", userID, err)
	}

	logs := []models.EmissionLog{}
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("failed to decode emission logs: %w", err)
	}
	return logs, nil
}

// ListLogIDs returns every log ID in creation order.
func (r *MongoDBRepository) ListLogIDs(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetProjection(bson.M{"_id": 1})
	cursor, err := r.db.Collection(logsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list emission log ids: %w", err)
	}

	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode emission log ids: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// AddVehicleTrip inserts a vehicle trip.
func (r *MongoDBRepository) AddVehicleTrip(ctx context.Context, trip *models.VehicleTrip) error {
	if trip.ID == "" {
		trip.ID = uuid.NewString()
	}
	return r.insert(ctx, tripsCollection, trip)
}

// AddElectricityUse inserts an electricity reading.
func (r *MongoDBRepository) AddElectricityUse(ctx context.Context, use *models.ElectricityUse) error {
	if use.ID == "" {
		use.ID = uuid.NewString()
	}
	return r.insert(ctx, electricityCollection, use)
}

// AddWasteDisposal inserts a waste batch.
func (r *MongoDBRepository) AddWasteDisposal(ctx context.Context, disposal *models.WasteDisposal) error {
	if disposal.ID == "" {
		disposal.ID = uuid.NewString()
	}
	return r.insert(ctx, wasteCollection, disposal)
}

// AddFuelCombustion inserts a fuel combustion record.
func (r *MongoDBRepository) AddFuelCombustion(ctx context.Context, combustion *models.FuelCombustion) error {
	if combustion.ID == "" {
		combustion.ID = uuid.NewString()
	}
	return r.insert(ctx, fuelCollection, combustion)
}

func (r *MongoDBRepository) insert(ctx context.Context, collection string, doc any) error {
	if _, err := r.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	return nil
}

// Activities loads the four child collections of a log. Outside a session
// the collections are queried concurrently; sessions are not goroutine-safe.
func (r *MongoDBRepository) Activities(ctx context.Context, logID string) (models.ActivitySet, error) {
	var set models.ActivitySet
	filter := bson.M{"emission_log_id": logID}

	g, gctx := errgroup.WithContext(ctx)
	if mongo.SessionFromContext(ctx) != nil {
		g.SetLimit(1)
	}
	g.Go(func() error { return r.findAll(gctx, tripsCollection, filter, &set.VehicleTrips) })
	g.Go(func() error { return r.findAll(gctx, electricityCollection, filter, &set.ElectricityUses) })
	g.Go(func() error { return r.findAll(gctx, wasteCollection, filter, &set.WasteDisposals) })
	g.Go(func() error { return r.findAll(gctx, fuelCollection, filter, &set.FuelCombustions) })

	if err := g.Wait(); err != nil {
		return models.ActivitySet{}, err
	}
	return set, nil
}

func (r *MongoDBRepository) findAll(ctx context.Context, collection string, filter any, out any) error {
	cursor, err := r.db.Collection(collection).Find(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", collection, err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", collection, err)
	}
	return nil
}

// Atomically runs fn in a multi-document transaction when enabled. Without
// transactions fn runs directly and callers rely on their own serialization.
func (r *MongoDBRepository) Atomically(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if !r.transactions {
		return fn(ctx, r)
	}

	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start mongodb session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc, r)
	})
	return err
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
