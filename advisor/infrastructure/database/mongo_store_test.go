package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/suletetes/techverse-advisor/advisor/domain/entity"
)

func TestIndexSpecFromDocument(t *testing.T) {
	doc := bson.D{
		{Key: "v", Value: int32(2)},
		{Key: "key", Value: bson.D{
			{Key: "user_id", Value: int32(1)},
			{Key: "created_at", Value: int32(-1)},
		}},
		{Key: "name", Value: "user_id_1_created_at_-1"},
	}

	spec := indexSpecFromDocument(doc)

	assert.Equal(t, "user_id_1_created_at_-1", spec.Name)
	require.Len(t, spec.Fields, 2)
	assert.Equal(t, entity.IndexField{Name: "user_id", Direction: 1}, spec.Fields[0])
	assert.Equal(t, entity.IndexField{Name: "created_at", Direction: -1}, spec.Fields[1])
}

func TestIndexSpecPreservesKeyOrder(t *testing.T) {
	doc := bson.D{
		{Key: "key", Value: bson.D{
			{Key: "status", Value: int32(1)},
			{Key: "visibility", Value: int32(1)},
		}},
		{Key: "name", Value: "status_1_visibility_1"},
	}

	spec := indexSpecFromDocument(doc)

	assert.Equal(t, "status,visibility", spec.NamesKey())
	assert.Equal(t, "status:1,visibility:1", spec.ExactKey())
}

func TestIndexSpecTextIndexGetsZeroDirections(t *testing.T) {
	doc := bson.D{
		{Key: "key", Value: bson.D{
			{Key: "title", Value: "text"},
			{Key: "description", Value: "text"},
		}},
		{Key: "name", Value: "title_text_description_text"},
	}

	spec := indexSpecFromDocument(doc)

	require.Len(t, spec.Fields, 2)
	assert.Equal(t, 0, spec.Fields[0].Direction)
	assert.Equal(t, "title:0,description:0", spec.ExactKey())
}

func TestDirectionValueCoercions(t *testing.T) {
	assert.Equal(t, 1, directionValue(int32(1)))
	assert.Equal(t, -1, directionValue(int64(-1)))
	assert.Equal(t, 1, directionValue(1))
	assert.Equal(t, -1, directionValue(float64(-1)))
	assert.Equal(t, 0, directionValue("2dsphere"))
}
