package dataset

import (
	"context"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ajitpratap0/brainless/pkg/config"
	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/record"
)

// mongoSource reads documents from one collection. The _id field is dropped
// unless roles declare it.
type mongoSource struct {
	uri        string
	database   string
	collection string
	filter     bson.D
	keepID     bool
	limit      limiter
	client     *mongo.Client
	logger     *zap.Logger
}

func newMongoSource(cfg config.SourceConfig, logger *zap.Logger) (Source, error) {
	for field, value := range map[string]string{"dsn": cfg.DSN, "database": cfg.Database, "collection": cfg.Collection} {
		if err := requireField("mongodb", field, value); err != nil {
			return nil, err
		}
	}
	filter := bson.D{}
	if cfg.Filter != "" {
		if err := bson.UnmarshalExtJSON([]byte(cfg.Filter), false, &filter); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid mongodb filter").WithDetail("filter", cfg.Filter)
		}
	}
	_, keepID := cfg.Roles["_id"]
	return &mongoSource{
		uri:        cfg.DSN,
		database:   cfg.Database,
		collection: cfg.Collection,
		filter:     filter,
		keepID:     keepID,
		limit:      limiter(cfg.Limit),
		logger:     logger,
	}, nil
}

func (s *mongoSource) Read(ctx context.Context) ([]record.Record, error) {
	if s.client == nil {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.uri))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to connect to mongodb")
		}
		s.client = client
	}

	findOpts := options.Find()
	if s.limit > 0 {
		findOpts.SetLimit(int64(s.limit))
	}
	cursor, err := s.client.Database(s.database).Collection(s.collection).Find(ctx, s.filter, findOpts)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "mongodb find failed").
			WithDetail("collection", s.collection)
	}
	defer cursor.Close(ctx)

	var out []record.Record
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode mongodb document")
		}
		r := make(record.Record, len(doc))
		for k, v := range doc {
			if k == "_id" && !s.keepID {
				continue
			}
			if nv := normalizeBSON(v); nv != nil {
				r[k] = nv
			}
		}
		out = append(out, r)
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "mongodb cursor failed")
	}
	s.logger.Debug("mongodb read complete", zap.String("collection", s.collection), zap.Int("rows", len(out)))
	return out, nil
}

func (s *mongoSource) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func normalizeBSON(v interface{}) interface{} {
	switch x := v.(type) {
	case primitive.ObjectID:
		return x.Hex()
	case primitive.DateTime:
		return x.Time().Unix()
	case primitive.Decimal128:
		f, err := strconv.ParseFloat(x.String(), 64)
		if err != nil {
			return nil
		}
		return f
	case primitive.A:
		return normalize([]interface{}(x))
	case primitive.M, primitive.D:
		// Nested documents have no flat role.
		return nil
	case int32:
		return int64(x)
	default:
		return normalize(v)
	}
}
