package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/netgraph/pkg/pipeline"
)

// Mongo defaults.
const (
	DefaultMongoDatabase   = "netgraph"
	DefaultMongoCollection = "reports"
	mongoConnectTimeout    = 10 * time.Second
)

// MongoOptions configures [NewMongoStore].
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore keeps reports in a MongoDB collection. The report itself is
// stored as its JSON encoding next to the indexed fields, so the document
// layout never drifts from pipeline.Report.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type reportDoc struct {
	RunID     string    `bson:"_id"`
	GraphHash string    `bson:"graph_hash"`
	State     string    `bson:"state"`
	CreatedAt time.Time `bson:"created_at"`
	Payload   []byte    `bson:"payload"`
}

// NewMongoStore connects, pings and ensures the listing index.
func NewMongoStore(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	if opts.URI == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	if opts.Database == "" {
		opts.Database = DefaultMongoDatabase
	}
	if opts.Collection == "" {
		opts.Collection = DefaultMongoCollection
	}

	ctx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &MongoStore{
		client: client,
		coll:   client.Database(opts.Database).Collection(opts.Collection),
	}
	_, err = s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "graph_hash", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create index: %w", err)
	}
	return s, nil
}

func (s *MongoStore) Get(ctx context.Context, runID string) (*pipeline.Report, error) {
	var doc reportDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": runID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(runID)
	}
	if err != nil {
		return nil, fmt.Errorf("find report: %w", err)
	}
	return pipeline.UnmarshalReport(doc.Payload)
}

func (s *MongoStore) Put(ctx context.Context, report *pipeline.Report) error {
	if err := checkStorable(report); err != nil {
		return err
	}
	payload, err := pipeline.MarshalReport(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	doc := reportDoc{
		RunID:     report.RunID,
		GraphHash: report.GraphHash,
		State:     report.State.String(),
		CreatedAt: report.CreatedAt,
		Payload:   payload,
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": doc.RunID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("store report: %w", err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, runID string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": runID}); err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, opts ListOptions) ([]*pipeline.Report, error) {
	filter := bson.M{}
	if opts.GraphHash != "" {
		filter["graph_hash"] = opts.GraphHash
	}
	find := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	if opts.Limit > 0 {
		find.SetLimit(int64(opts.Limit))
	}

	cur, err := s.coll.Find(ctx, filter, find)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	var docs []reportDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode reports: %w", err)
	}

	out := make([]*pipeline.Report, 0, len(docs))
	for _, d := range docs {
		r, err := pipeline.UnmarshalReport(d.Payload)
		if err != nil {
			return nil, fmt.Errorf("parse report %s: %w", d.RunID, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *MongoStore) Cleanup(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("cleanup reports: %w", err)
	}
	return int(res.DeletedCount), nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

var _ Store = (*MongoStore)(nil)
