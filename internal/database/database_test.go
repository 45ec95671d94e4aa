package database

import (
	"testing"

	"phonereuse/entity"
	"phonereuse/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMongoClientDisabled(t *testing.T) {
	assert.Nil(t, NewMongoClient(&config.Config{}))
}

func TestNewMongoClientWithAuth(t *testing.T) {
	conf := &config.Config{Mongo: config.MongoConfig{
		Enabled:  true,
		Host:     "db.local",
		Port:     "27017",
		User:     "registry",
		Password: "secret",
		Database: "numbers",
	}}
	client := NewMongoClient(conf)
	require.NotNil(t, client)
	assert.Equal(t, "numbers", client.database)
	require.NotNil(t, client.clientOptions.Auth)
	assert.Equal(t, "registry", client.clientOptions.Auth.Username)
	assert.Equal(t, "numbers", client.clientOptions.Auth.AuthSource)
}

func TestNewSQLClientDisabled(t *testing.T) {
	_, err := NewSQLClient(&config.Config{})
	assert.ErrorContains(t, err, "disabled")
}

func TestSaveModelsUpsertEveryRecord(t *testing.T) {
	records := []entity.PhoneRecord{
		{PhoneNumber: "+10000000001", TimesUsed: 1},
		{PhoneNumber: "+10000000002", TimesUsed: 3},
	}

	models, stale := saveModels(records)

	require.Len(t, models, 2)
	for i, model := range models {
		replace, ok := model.(*mongo.ReplaceOneModel)
		require.True(t, ok)
		require.NotNil(t, replace.Upsert)
		assert.True(t, *replace.Upsert)
		assert.Equal(t, bson.D{{Key: "phone_number", Value: records[i].PhoneNumber}}, replace.Filter)
		assert.Equal(t, records[i], replace.Replacement)
	}
	assert.Equal(t, bson.D{{Key: "phone_number", Value: bson.D{{Key: "$nin", Value: bson.A{"+10000000001", "+10000000002"}}}}}, stale)
}

func TestSaveModelsEmptyDeletesAll(t *testing.T) {
	models, stale := saveModels(nil)

	assert.Empty(t, models)
	assert.Equal(t, bson.D{{Key: "phone_number", Value: bson.D{{Key: "$nin", Value: bson.A{}}}}}, stale)
}
