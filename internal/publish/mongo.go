// Package publish mirrors committed documents to external stores that serve
// the rendered pages.
package publish

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"blockeditor/internal/domain"
	"blockeditor/internal/logger"
	"blockeditor/internal/service"
)

const (
	queueSize    = 64
	writeTimeout = 5 * time.Second
)

// StateFunc loads the current state of a document.
type StateFunc func(documentID string) (*domain.DocumentState, error)

// pageRecord is the stored shape of a published document.
type pageRecord struct {
	ID        string        `bson:"_id"`
	Title     string        `bson:"title"`
	UpdatedAt time.Time     `bson:"updatedAt"`
	Blocks    []blockRecord `bson:"blocks"`
}

type blockRecord struct {
	ID       string `bson:"id"`
	Type     string `bson:"type"`
	Position int    `bson:"position"`
	Text     string `bson:"text,omitempty"`
	Data     bson.D `bson:"data"`
}

// sink is where records end up.
type sink interface {
	upsert(ctx context.Context, rec pageRecord) error
	remove(ctx context.Context, documentID string) error
}

type mongoSink struct {
	coll *mongo.Collection
}

func (s mongoSink) upsert(ctx context.Context, rec pageRecord) error {
	_, err := s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: rec.ID}}, rec, options.Replace().SetUpsert(true))
	return err
}

func (s mongoSink) remove(ctx context.Context, documentID string) error {
	_, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: documentID}})
	return err
}

type job struct {
	documentID string
	removed    bool
}

// MongoPublisher is an EventEmitter that copies every committed document
// into a MongoDB collection. Writes happen on a background worker, so Emit
// never blocks the editing session that triggered it.
type MongoPublisher struct {
	client *mongo.Client
	sink   sink
	state  StateFunc
	log    logger.Logger

	queue chan job
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

// Config selects the target collection.
type Config struct {
	URI        string
	Database   string
	Collection string
}

// NewMongoPublisher connects to MongoDB and starts the publishing worker.
func NewMongoPublisher(ctx context.Context, cfg Config, state StateFunc, log logger.Logger) (*MongoPublisher, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	p := newPublisher(mongoSink{coll: coll}, state, log)
	p.client = client
	log.Info("publishing documents to mongodb",
		logger.String("database", cfg.Database),
		logger.String("collection", cfg.Collection),
	)
	return p, nil
}

func newPublisher(s sink, state StateFunc, log logger.Logger) *MongoPublisher {
	p := &MongoPublisher{
		sink:  s,
		state: state,
		log:   log,
		queue: make(chan job, queueSize),
		done:  make(chan struct{}),
	}
	go p.run()
	return p
}

// Emit queues a publish for document changes and removals. Other events are
// ignored.
func (p *MongoPublisher) Emit(_ context.Context, event string, data any) {
	var j job
	switch event {
	case service.EventBlocksChanged:
	case service.EventDocumentRemoved:
		j.removed = true
	default:
		return
	}
	j.documentID = documentIDOf(data)
	if j.documentID == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.log.Warn("publisher closed, change not published", logger.String("document", j.documentID))
		return
	}
	select {
	case p.queue <- j:
	default:
		p.log.Warn("publish queue full, change dropped", logger.String("document", j.documentID))
	}
}

func (p *MongoPublisher) run() {
	defer close(p.done)
	for j := range p.queue {
		if err := p.publish(j); err != nil {
			p.log.Error("publish failed", logger.String("document", j.documentID), logger.Error(err))
		}
	}
}

func (p *MongoPublisher) publish(j job) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if j.removed {
		return p.sink.remove(ctx, j.documentID)
	}
	st, err := p.state(j.documentID)
	if errors.Is(err, domain.ErrNotFound) {
		return p.sink.remove(ctx, j.documentID)
	}
	if err != nil {
		return err
	}
	rec, err := toRecord(st)
	if err != nil {
		return err
	}
	return p.sink.upsert(ctx, rec)
}

// Close drains queued publishes and disconnects.
func (p *MongoPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	select {
	case <-p.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if p.client != nil {
		return p.client.Disconnect(ctx)
	}
	return nil
}

func toRecord(st *domain.DocumentState) (pageRecord, error) {
	rec := pageRecord{
		ID:        st.Document.ID,
		Title:     st.Document.Title,
		UpdatedAt: st.Document.UpdatedAt,
		Blocks:    make([]blockRecord, len(st.Blocks)),
	}
	for i, b := range st.Blocks {
		br := blockRecord{ID: b.ID, Type: string(b.Type), Position: i}
		if b.Data != nil {
			raw, err := domain.EncodePayload(b.Data)
			if err != nil {
				return pageRecord{}, err
			}
			if err := bson.UnmarshalExtJSON(raw, false, &br.Data); err != nil {
				return pageRecord{}, fmt.Errorf("block %s: convert payload: %w", b.ID, err)
			}
			br.Text = b.Data.Text()
		}
		rec.Blocks[i] = br
	}
	return rec, nil
}

// documentIDOf reads "documentId" from an event payload.
func documentIDOf(data any) string {
	switch d := data.(type) {
	case map[string]any:
		id, _ := d["documentId"].(string)
		return id
	case map[string]string:
		return d["documentId"]
	}
	return ""
}
