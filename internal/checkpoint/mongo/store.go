package mongo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/modchat/modchat/internal/checkpoint"
	"github.com/modchat/modchat/internal/domain"
)

const defaultDatabase = "modchat"

type checkpointDoc struct {
	ThreadKey     string        `bson:"thread_key"`
	ChannelValues channelValues `bson:"channel_values"`
	UpdatedAt     time.Time     `bson:"updated_at"`
}

type channelValues struct {
	Messages []messageDoc `bson:"messages"`
}

type messageDoc struct {
	Role    string `bson:"role"`
	Content string `bson:"content"`
}

// Store keeps checkpoints as documents in a checkpoints collection, one per
// thread key.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// New connects to MongoDB. The database name comes from the DSN path.
func New(ctx context.Context, dsn string) (checkpoint.Store, error) {
	clientOpts := options.Client().ApplyURI(dsn).SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	return &Store{
		client: client,
		coll:   client.Database(databaseName(dsn)).Collection("checkpoints"),
	}, nil
}

func databaseName(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return defaultDatabase
	}
	if name := strings.TrimPrefix(u.Path, "/"); name != "" {
		return name
	}
	return defaultDatabase
}

func (s *Store) Get(ctx context.Context, threadKey string) ([]domain.Message, error) {
	var doc checkpointDoc
	err := s.coll.FindOne(ctx, bson.M{"thread_key": threadKey}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, checkpoint.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	messages := make([]domain.Message, 0, len(doc.ChannelValues.Messages))
	for _, m := range doc.ChannelValues.Messages {
		messages = append(messages, domain.Message{Role: domain.Role(m.Role), Content: m.Content})
	}
	return messages, nil
}

func (s *Store) Put(ctx context.Context, threadKey string, messages []domain.Message) error {
	doc := checkpointDoc{ThreadKey: threadKey, UpdatedAt: time.Now().UTC()}
	doc.ChannelValues.Messages = make([]messageDoc, 0, len(messages))
	for _, m := range messages {
		doc.ChannelValues.Messages = append(doc.ChannelValues.Messages, messageDoc{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"thread_key": threadKey}, doc, opts); err != nil {
		return fmt.Errorf("failed to persist checkpoint: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}
