package database

import (
	"context"
	"fmt"
	"phonereuse/entity"
	"phonereuse/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionPhoneNumbers = "phone_numbers"
)

// MongoDB stores one document per phone number, keyed by phone_number.
type MongoDB struct {
	clientOptions *options.ClientOptions
	database      string
}

func NewMongoClient(conf *config.Config) *MongoDB {
	if !conf.Mongo.Enabled {
		return nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	client := &MongoDB{
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
	}
	return client
}

func (m *MongoDB) connect(ctx context.Context) (*mongo.Client, error) {
	connection, err := mongo.Connect(ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	return connection, nil
}

func (m *MongoDB) disconnect(ctx context.Context, connection *mongo.Client) {
	_ = connection.Disconnect(ctx)
}

func (m *MongoDB) Load(ctx context.Context) ([]entity.PhoneRecord, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionPhoneNumbers)
	cursor, err := collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("mongodb find: %w", err)
	}
	defer cursor.Close(ctx)

	records := make([]entity.PhoneRecord, 0)
	if err = cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("mongodb decode: %w", err)
	}
	return records, nil
}

// Save makes the collection hold exactly records. Records are upserted
// before stale numbers are deleted, so a failure part way leaves a superset
// of the previous and the new set, never fewer numbers.
func (m *MongoDB) Save(ctx context.Context, records []entity.PhoneRecord) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionPhoneNumbers)
	models, stale := saveModels(records)

	if len(models) > 0 {
		if _, err = collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true)); err != nil {
			return fmt.Errorf("mongodb bulk write: %w", err)
		}
	}
	if _, err = collection.DeleteMany(ctx, stale); err != nil {
		return fmt.Errorf("mongodb delete expired: %w", err)
	}
	return nil
}

// saveModels returns one upsert per record and the filter matching every
// stored number not in records.
func saveModels(records []entity.PhoneRecord) ([]mongo.WriteModel, bson.D) {
	keep := make(bson.A, 0, len(records))
	models := make([]mongo.WriteModel, 0, len(records))
	for i := range records {
		keep = append(keep, records[i].PhoneNumber)
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "phone_number", Value: records[i].PhoneNumber}}).
			SetReplacement(records[i]).
			SetUpsert(true))
	}
	return models, bson.D{{Key: "phone_number", Value: bson.D{{Key: "$nin", Value: keep}}}}
}

// EnsureIndexes creates the unique phone_number index.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionPhoneNumbers)
	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "phone_number", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongodb create index: %w", err)
	}
	return nil
}
