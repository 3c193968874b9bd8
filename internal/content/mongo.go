package content

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/playperu/wattquiz/internal/wattquiz"
)

type factDoc struct {
	ID          string `bson:"_id"`
	Title       string `bson:"title"`
	Consumption int64  `bson:"consumption"`
	ImagePath   string `bson:"imagePath,omitempty"`
}

func (d factDoc) fact() wattquiz.Fact {
	return wattquiz.Fact{ID: d.ID, Title: d.Title, Consumption: uint64(d.Consumption), ImagePath: d.ImagePath}
}

// MongoStore implements Store on a MongoDB collection.
type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(ctx context.Context, db *mongo.Database) (*MongoStore, error) {
	coll := db.Collection("facts")
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "consumption", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("creating consumption index: %w", err)
	}
	return &MongoStore{collection: coll}, nil
}

func (s *MongoStore) Put(ctx context.Context, f wattquiz.Fact) error {
	doc := factDoc{ID: f.ID, Title: f.Title, Consumption: int64(f.Consumption), ImagePath: f.ImagePath}
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": f.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoStore) Get(ctx context.Context, id string) (wattquiz.Fact, error) {
	var doc factDoc
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return wattquiz.Fact{}, ErrNotFound
	}
	if err != nil {
		return wattquiz.Fact{}, err
	}
	return doc.fact(), nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Count(ctx context.Context) (int, error) {
	n, err := s.collection.CountDocuments(ctx, bson.D{})
	return int(n), err
}

func (s *MongoStore) RandomFact(ctx context.Context, flt wattquiz.Filter) (wattquiz.Fact, error) {
	cursor, err := s.collection.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: matchFilter(flt)}},
		{{Key: "$sample", Value: bson.D{{Key: "size", Value: 1}}}},
	})
	if err != nil {
		return wattquiz.Fact{}, fmt.Errorf("random fact: %w", err)
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		if err := cursor.Err(); err != nil {
			return wattquiz.Fact{}, fmt.Errorf("random fact: %w", err)
		}
		return wattquiz.Fact{}, fmt.Errorf("random fact: %w", ErrNotFound)
	}

	var doc factDoc
	if err := cursor.Decode(&doc); err != nil {
		return wattquiz.Fact{}, fmt.Errorf("decoding fact: %w", err)
	}
	return doc.fact(), nil
}

// matchFilter translates a Filter into a $match stage document.
func matchFilter(flt wattquiz.Filter) bson.M {
	consumption := bson.M{"$gte": int64(flt.Min)}
	if flt.Max != 0 {
		consumption["$lte"] = int64(flt.Max)
	}
	if len(flt.ExcludeValues) > 0 {
		values := make(bson.A, len(flt.ExcludeValues))
		for i, v := range flt.ExcludeValues {
			values[i] = int64(v)
		}
		consumption["$nin"] = values
	}

	match := bson.M{"consumption": consumption}
	if len(flt.ExcludeIDs) > 0 {
		match["_id"] = bson.M{"$nin": flt.ExcludeIDs}
	}
	return match
}
