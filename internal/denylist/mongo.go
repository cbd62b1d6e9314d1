package denylist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/starford/torlist/internal/apperr"
	"github.com/starford/torlist/internal/models"
)

// MongoConfig selects the collection holding the denylist.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// Mongo is a Repository over a MongoDB collection. Entry ids are ObjectIDs.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

type mongoDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Hash      string             `bson:"hash"`
	Reason    string             `bson:"reason"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d mongoDoc) entry() models.DenylistEntry {
	return models.DenylistEntry{
		ID:        d.ID.Hex(),
		Hash:      d.Hash,
		Reason:    d.Reason,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// OpenMongo connects and pings the primary before returning.
func OpenMongo(ctx context.Context, cfg MongoConfig) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("denylist: mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("denylist: mongo ping: %w", err)
	}
	return newMongo(client, cfg), nil
}

func newMongo(client *mongo.Client, cfg MongoConfig) *Mongo {
	return &Mongo{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// Close disconnects the client.
func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// Ping checks the primary is reachable.
func (m *Mongo) Ping(ctx context.Context) error {
	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "denylist: ping", err)
	}
	return nil
}

func (m *Mongo) Insert(ctx context.Context, hash, reason string) (models.DenylistEntry, error) {
	now := m.now()
	doc := mongoDoc{ID: primitive.NewObjectID(), Hash: hash, Reason: reason, CreatedAt: now, UpdatedAt: now}
	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		return models.DenylistEntry{}, apperr.Wrap(apperr.KindUnavailable, "denylist: insert", err)
	}
	return doc.entry(), nil
}

func (m *Mongo) FindAll(ctx context.Context) ([]models.DenylistEntry, error) {
	const op = "denylist: find all"
	cur, err := m.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, op, err)
	}
	defer cur.Close(ctx)

	out := []models.DenylistEntry{}
	for cur.Next(ctx) {
		var doc mongoDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, op, err)
		}
		out = append(out, doc.entry())
	}
	if err := cur.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, op, err)
	}
	return out, nil
}

func (m *Mongo) FindByHash(ctx context.Context, hash string) (models.DenylistEntry, error) {
	return m.findOne(ctx, "denylist: find by hash", bson.M{"hash": hash},
		options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

// FindByID returns MalformedID for anything that is not a 24-char hex ObjectID.
func (m *Mongo) FindByID(ctx context.Context, id string) (models.DenylistEntry, error) {
	const op = "denylist: find by id"
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.DenylistEntry{}, apperr.Wrap(apperr.KindMalformedID, op, err)
	}
	return m.findOne(ctx, op, bson.M{"_id": oid})
}

func (m *Mongo) findOne(ctx context.Context, op string, filter bson.M, opts ...*options.FindOneOptions) (models.DenylistEntry, error) {
	var doc mongoDoc
	err := m.coll.FindOne(ctx, filter, opts...).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DenylistEntry{}, apperr.NotFound(op)
	}
	if err != nil {
		return models.DenylistEntry{}, apperr.Wrap(apperr.KindUnavailable, op, err)
	}
	return doc.entry(), nil
}

func (m *Mongo) Save(ctx context.Context, e models.DenylistEntry) (models.DenylistEntry, error) {
	const op = "denylist: save"
	oid, err := primitive.ObjectIDFromHex(e.ID)
	if err != nil {
		return models.DenylistEntry{}, apperr.Wrap(apperr.KindMalformedID, op, err)
	}
	e.UpdatedAt = m.now()
	res, err := m.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"hash":      e.Hash,
		"reason":    e.Reason,
		"updatedAt": e.UpdatedAt,
	}})
	if err != nil {
		return models.DenylistEntry{}, apperr.Wrap(apperr.KindUnavailable, op, err)
	}
	if res.MatchedCount == 0 {
		return models.DenylistEntry{}, apperr.NotFound(op)
	}
	return e, nil
}

func (m *Mongo) Remove(ctx context.Context, id string) error {
	const op = "denylist: remove"
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.Wrap(apperr.KindMalformedID, op, err)
	}
	res, err := m.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return apperr.Wrap(apperr.KindUnavailable, op, err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound(op)
	}
	return nil
}
