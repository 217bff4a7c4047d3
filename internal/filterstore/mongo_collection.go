package filterstore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// mongoRegionCollection adapts a *mongo.Collection to regionCollection.
type mongoRegionCollection struct {
	coll *mongo.Collection
}

func (m *mongoRegionCollection) FindOne(ctx context.Context, regionKey []byte) (*regionDocument, error) {
	var doc regionDocument
	err := m.coll.FindOne(ctx, bson.M{"_id": regionKey}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (m *mongoRegionCollection) InsertOne(ctx context.Context, doc regionDocument) error {
	_, err := m.coll.InsertOne(ctx, doc)
	return err
}

func (m *mongoRegionCollection) CompareAndSwap(ctx context.Context, regionKey []byte, expectedSeq int32, newBitArray []byte) (bool, error) {
	filter := bson.M{"_id": regionKey, "sequence_number": expectedSeq}
	update := bson.M{"$set": bson.M{
		"bit_array":       newBitArray,
		"sequence_number": expectedSeq + 1,
	}}
	res, err := m.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}
