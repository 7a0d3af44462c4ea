package db

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"personnel-registry/internal/config"
	"personnel-registry/internal/model"
	"personnel-registry/pkg/errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// mongoRecord is the stored document. codeNoKey is always written next to
// codeNo so case-insensitive identity checks are plain index lookups.
type mongoRecord struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Name        string        `bson:"name"`
	Designation string        `bson:"designation"`
	WorkingArea string        `bson:"workingArea"`
	ValidUpto   *time.Time    `bson:"validUpto"`
	CodeNo      string        `bson:"codeNo"`
	CodeNoKey   string        `bson:"codeNoKey"`
	AdhaarNo    string        `bson:"adhaarNo"`
	CreatedAt   time.Time     `bson:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt"`
}

func toMongo(r *model.Record) mongoRecord {
	return mongoRecord{
		Name:        r.Name,
		Designation: r.Designation,
		WorkingArea: r.WorkingArea,
		ValidUpto:   r.ValidUpto,
		CodeNo:      r.CodeNo,
		CodeNoKey:   r.CodeNoKey(),
		AdhaarNo:    r.AdhaarNo,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (m mongoRecord) toModel() model.Record {
	var validUpto *time.Time
	if m.ValidUpto != nil {
		t := m.ValidUpto.UTC()
		validUpto = &t
	}
	return model.Record{
		ID:          m.ID.Hex(),
		Name:        m.Name,
		Designation: m.Designation,
		WorkingArea: m.WorkingArea,
		ValidUpto:   validUpto,
		CodeNo:      m.CodeNo,
		AdhaarNo:    m.AdhaarNo,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type MongoRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	timeout    time.Duration
}

func NewMongoRepository(ctx context.Context, cfg *config.Config) (*MongoRepository, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.Database.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Database.Mongo.Timeout)
	defer cancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoRepository{
		client:     client,
		collection: client.Database(cfg.Database.Mongo.Database).Collection(cfg.Database.Mongo.Collection),
		timeout:    cfg.Database.Mongo.Timeout,
	}, nil
}

func parseObjectID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, errors.ErrInvalidID
	}
	return oid, nil
}

func mongoIdentityFilter(f model.IdentityFilter) (bson.D, error) {
	or := bson.A{}
	if f.CodeNoKey != "" {
		or = append(or, bson.D{{Key: "codeNoKey", Value: f.CodeNoKey}})
	}
	if f.AdhaarNo != "" {
		or = append(or, bson.D{{Key: "adhaarNo", Value: f.AdhaarNo}})
	}

	filter := bson.D{{Key: "$or", Value: or}}
	if f.ExcludeID != "" {
		oid, err := parseObjectID(f.ExcludeID)
		if err != nil {
			return nil, err
		}
		filter = append(filter, bson.E{Key: "_id", Value: bson.D{{Key: "$ne", Value: oid}}})
	}
	return filter, nil
}

func (r *MongoRepository) FindOne(ctx context.Context, filter model.IdentityFilter) (*model.Record, error) {
	if filter.Empty() {
		return nil, errors.ErrNotFound
	}

	query, err := mongoIdentityFilter(filter)
	if err != nil {
		return nil, err
	}

	var doc mongoRecord
	if err := r.collection.FindOne(ctx, query).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find record: %w", err)
	}

	rec := doc.toModel()
	return &rec, nil
}

func (r *MongoRepository) Find(ctx context.Context, filter model.IdentityFilter) ([]model.Record, error) {
	if filter.Empty() {
		return nil, nil
	}

	query, err := mongoIdentityFilter(filter)
	if err != nil {
		return nil, err
	}
	return r.findMany(ctx, query)
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*model.Record, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var doc mongoRecord
	if err := r.collection.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find record: %w", err)
	}

	rec := doc.toModel()
	return &rec, nil
}

func (r *MongoRepository) FindAll(ctx context.Context) ([]model.Record, error) {
	return r.findMany(ctx, bson.D{})
}

func (r *MongoRepository) Search(ctx context.Context, q string) ([]model.Record, error) {
	pattern := bson.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
	return r.findMany(ctx, bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "codeNo", Value: pattern}},
		bson.D{{Key: "adhaarNo", Value: pattern}},
	}}})
}

func (r *MongoRepository) findMany(ctx context.Context, query bson.D) ([]model.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoRecord
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}

	records := make([]model.Record, len(docs))
	for i, d := range docs {
		records[i] = d.toModel()
	}
	return records, nil
}

func (r *MongoRepository) Insert(ctx context.Context, record *model.Record) error {
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	doc := toMongo(record)
	doc.ID = bson.NewObjectID()

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.ErrDuplicate
		}
		return fmt.Errorf("failed to insert record: %w", err)
	}

	record.ID = doc.ID.Hex()
	return nil
}

// InsertMany writes the records in order and stops at the first failure.
func (r *MongoRepository) InsertMany(ctx context.Context, records []*model.Record) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, len(records))
	ids := make([]bson.ObjectID, len(records))
	for i, rec := range records {
		rec.CreatedAt = now
		rec.UpdatedAt = now
		doc := toMongo(rec)
		doc.ID = bson.NewObjectID()
		ids[i] = doc.ID
		docs[i] = doc
	}

	if _, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.ErrDuplicate
		}
		return fmt.Errorf("failed to insert records: %w", err)
	}

	for i, rec := range records {
		rec.ID = ids[i].Hex()
	}
	return nil
}

func (r *MongoRepository) UpdateByID(ctx context.Context, id string, record *model.Record) (*model.Record, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "name", Value: record.Name},
		{Key: "designation", Value: record.Designation},
		{Key: "workingArea", Value: record.WorkingArea},
		{Key: "validUpto", Value: record.ValidUpto},
		{Key: "codeNo", Value: record.CodeNo},
		{Key: "codeNoKey", Value: record.CodeNoKey()},
		{Key: "adhaarNo", Value: record.AdhaarNo},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc mongoRecord
	err = r.collection.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, update, opts).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, errors.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to update record: %w", err)
	}

	rec := doc.toModel()
	return &rec, nil
}

func (r *MongoRepository) DeleteByID(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}

	res, err := r.collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if res.DeletedCount == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func (r *MongoRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	oids := make(bson.A, 0, len(ids))
	for _, id := range ids {
		oid, err := parseObjectID(id)
		if err != nil {
			return 0, err
		}
		oids = append(oids, oid)
	}

	res, err := r.collection.DeleteMany(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: oids}}}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete records: %w", err)
	}
	return res.DeletedCount, nil
}

// EnsureSchema backfills codeNoKey on documents written without it and
// creates the identity indexes. The unique indexes only cover non-empty
// values, so records carrying a single identity field do not collide. When
// stored records already share an identity the remaining indexes are still
// built and an *IdentityConflictError lists the shared values.
func (r *MongoRepository) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	backfill := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "codeNoKey", Value: bson.D{{Key: "$toLower", Value: bson.D{
				{Key: "$trim", Value: bson.D{{Key: "input", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$codeNo", ""}}}}}},
			}}}},
		}}},
	}
	if _, err := r.collection.UpdateMany(ctx, bson.D{{Key: "codeNoKey", Value: bson.D{{Key: "$exists", Value: false}}}}, backfill); err != nil {
		return fmt.Errorf("failed to backfill codeNoKey: %w", err)
	}

	nonEmpty := bson.D{{Key: "$gt", Value: ""}}
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "codeNoKey", Value: 1}},
			Options: options.Index().
				SetName("uniq_code_no_key").
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "codeNoKey", Value: nonEmpty}}),
		},
		{
			Keys: bson.D{{Key: "adhaarNo", Value: 1}},
			Options: options.Index().
				SetName("uniq_adhaar_no").
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "adhaarNo", Value: nonEmpty}}),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("created_at_desc"),
		},
	}

	conflicted := false
	for _, index := range indexes {
		_, err := r.collection.Indexes().CreateOne(ctx, index)
		if err == nil {
			continue
		}
		if mongo.IsDuplicateKeyError(err) {
			conflicted = true
			continue
		}
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	if !conflicted {
		return nil
	}

	var collisions []Collision
	for _, field := range []string{"codeNoKey", "adhaarNo"} {
		found, err := r.sharedValues(ctx, field)
		if err != nil {
			return fmt.Errorf("failed to list colliding %s values: %w", field, err)
		}
		collisions = append(collisions, found...)
	}
	return &IdentityConflictError{Collisions: collisions}
}

const maxReportedCollisions = 50

// sharedValues lists non-empty values of field held by more than one document.
func (r *MongoRepository) sharedValues(ctx context.Context, field string) ([]Collision, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: field, Value: bson.D{{Key: "$gt", Value: ""}}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + field},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$match", Value: bson.D{{Key: "count", Value: bson.D{{Key: "$gt", Value: 1}}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: maxReportedCollisions}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Value string `bson:"_id"`
		Count int    `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	collisions := make([]Collision, 0, len(rows))
	for _, row := range rows {
		collisions = append(collisions, Collision{Field: field, Value: row.Value, Count: row.Count})
	}
	return collisions, nil
}

func (r *MongoRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
