package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"campusrides/internal/models"
	"campusrides/pkg/logger"
)

const migrationsCollection = "migrations"

type Migration struct {
	Version     int
	Description string
	Up          func(ctx context.Context, db *mongo.Database) error
	Down        func(ctx context.Context, db *mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
	logger     *logger.Logger
}

func NewMigrator(db *mongo.Database, log *logger.Logger) *Migrator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Migrator{
		db:         db,
		migrations: getMigrations(),
		logger:     log.WithField("component", "migrator"),
	}
}

func (m *Migrator) Up(ctx context.Context) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version <= currentVersion {
			continue
		}

		log := m.logger.WithFields(map[string]interface{}{
			"version":     migration.Version,
			"description": migration.Description,
		})
		log.Info("Running migration")

		if err := migration.Up(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}
		if err := m.updateVersion(ctx, migration.Version); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}

		log.Info("Migration completed")
	}

	return nil
}

func (m *Migrator) Down(ctx context.Context, targetVersion int) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		migration := m.migrations[i]
		if migration.Version > currentVersion || migration.Version <= targetVersion {
			continue
		}

		m.logger.WithField("version", migration.Version).Info("Reverting migration")

		if err := migration.Down(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d rollback failed: %w", migration.Version, err)
		}

		previousVersion := targetVersion
		if i > 0 {
			previousVersion = m.migrations[i-1].Version
		}
		if err := m.updateVersion(ctx, previousVersion); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) getCurrentVersion(ctx context.Context) (int, error) {
	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection(migrationsCollection).FindOne(ctx, bson.D{}).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}

	return result.Version, nil
}

func (m *Migrator) updateVersion(ctx context.Context, version int) error {
	_, err := m.db.Collection(migrationsCollection).ReplaceOne(
		ctx,
		bson.D{},
		bson.D{{Key: "version", Value: version}, {Key: "updated_at", Value: time.Now().UTC()}},
		options.Replace().SetUpsert(true),
	)
	return err
}

func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create rides collection with search and owner indexes",
			Up:          createRidesIndexes,
			Down:        dropCollection("rides"),
		},
		{
			Version:     2,
			Description: "Create bookings collection with one active booking per rider and ride",
			Up:          createBookingsIndexes,
			Down:        dropCollection("bookings"),
		},
		{
			Version:     3,
			Description: "Create chats collection keyed by participant pair",
			Up:          createChatsIndexes,
			Down:        dropCollection("chats"),
		},
		{
			Version:     4,
			Description: "Create messages collection ordered by chat sequence",
			Up:          createMessagesIndexes,
			Down:        dropCollection("messages"),
		},
		{
			Version:     5,
			Description: "Create notifications collection with inbox indexes",
			Up:          createNotificationsIndexes,
			Down:        dropCollection("notifications"),
		},
		{
			Version:     6,
			Description: "Create cars and users collections",
			Up:          createCarsAndUsersIndexes,
			Down: func(ctx context.Context, db *mongo.Database) error {
				if err := db.Collection("cars").Drop(ctx); err != nil {
					return err
				}
				return db.Collection("users").Drop(ctx)
			},
		},
		{
			Version:     7,
			Description: "Rebuild chat pair keys with length-prefixed participant ids",
			Up:          rekeyChats,
			Down: func(ctx context.Context, db *mongo.Database) error {
				return nil
			},
		},
	}
}

func rekeyChats(ctx context.Context, db *mongo.Database) error {
	chats := db.Collection("chats")
	cursor, err := chats.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"participants": 1, "pair_key": 1}))
	if err != nil {
		return fmt.Errorf("failed to scan chats: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var chat models.Chat
		if err := cursor.Decode(&chat); err != nil {
			return fmt.Errorf("failed to decode chat: %w", err)
		}
		if len(chat.Participants) != 2 {
			continue
		}
		key := models.ChatPairKey(chat.Participants[0], chat.Participants[1])
		if key == chat.PairKey {
			continue
		}
		if _, err := chats.UpdateByID(ctx, chat.ID, bson.M{"$set": bson.M{"pair_key": key}}); err != nil {
			return fmt.Errorf("failed to rekey chat %s: %w", chat.ID.Hex(), err)
		}
	}
	return cursor.Err()
}

func dropCollection(name string) func(ctx context.Context, db *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		return db.Collection(name).Drop(ctx)
	}
}

// Collections are created explicitly because older servers refuse to create
// them implicitly inside a transaction.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) error {
	names, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}
	if len(names) > 0 {
		return nil
	}
	return db.CreateCollection(ctx, name)
}

func createIndexes(ctx context.Context, db *mongo.Database, collection string, indexes []mongo.IndexModel) error {
	if err := ensureCollection(ctx, db, collection); err != nil {
		return fmt.Errorf("failed to create %s collection: %w", collection, err)
	}
	if _, err := db.Collection(collection).Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create %s indexes: %w", collection, err)
	}
	return nil
}

func createRidesIndexes(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, "rides", []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "pickup_location", Value: 1},
				{Key: "destination_location", Value: 1},
				{Key: "status", Value: 1},
				{Key: "start_time", Value: 1},
			},
		},
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "car_id", Value: 1}}},
	})
}

func createBookingsIndexes(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, "bookings", []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "ride_id", Value: 1}, {Key: "rider_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_active_booking_per_rider").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": "active"}),
		},
		{Keys: bson.D{{Key: "ride_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "rider_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
}

func createChatsIndexes(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, "chats", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "pair_key", Value: 1}},
			Options: options.Index().SetName("uniq_pair_key").SetUnique(true),
		},
		{Keys: bson.D{{Key: "participants", Value: 1}, {Key: "updated_at", Value: -1}}},
	})
}

func createMessagesIndexes(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, "messages", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "chat_id", Value: 1}, {Key: "seq", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
}

func createNotificationsIndexes(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, "notifications", []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "read", Value: 1}}},
	})
}

func createCarsAndUsersIndexes(ctx context.Context, db *mongo.Database) error {
	if err := createIndexes(ctx, db, "cars", []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}); err != nil {
		return err
	}
	return createIndexes(ctx, db, "users", []mongo.IndexModel{
		{Keys: bson.D{{Key: "devices.token", Value: 1}}},
	})
}
