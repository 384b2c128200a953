package ioc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"groupreaper/internal/app"
	"groupreaper/internal/eventstore"
	"groupreaper/internal/nodestore"
	"groupreaper/internal/relational"
	"groupreaper/internal/similarity"
	"groupreaper/internal/store"
)

// InitDatabase 连接关系存储并建表。
func InitDatabase(ctx context.Context, cfg app.Config) (store.Store, func(), error) {
	db, err := relational.Open(ctx, relational.Config{
		Driver:   cfg.Database.Driver,
		DSN:      cfg.Database.DSN,
		MaxConns: cfg.Database.MaxConnections,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, func() { _ = db.Close() }, nil
}

// InitEventStore 构建事件存储客户端，只有 allow_memory 时才退回内存实现。
func InitEventStore(cfg app.Config, logger *zap.Logger) (eventstore.Store, error) {
	es := cfg.EventStore
	baseURL := strings.TrimSpace(es.BaseURL)
	if baseURL == "" {
		if !es.AllowMemory {
			return nil, fmt.Errorf("event_store.base_url is required unless event_store.allow_memory is set")
		}
		logger.Warn("event_store.base_url 未配置，使用内存事件存储")
		return eventstore.NewStaticStore(), nil
	}

	var tokenSource eventstore.TokenSource
	if es.AuthEndpoint != "" && es.Username != "" {
		ts, err := eventstore.NewPasswordTokenSource(eventstore.PasswordTokenConfig{
			Endpoint: es.AuthEndpoint,
			Username: es.Username,
			Password: es.Password,
			Timeout:  5 * time.Second,
		})
		if err != nil {
			return nil, err
		}
		tokenSource = ts
	} else if es.StaticToken != "" {
		tokenSource = &eventstore.StaticTokenSource{Value: es.StaticToken}
	}

	return eventstore.NewHTTPStore(eventstore.HTTPConfig{
		BaseURL:        baseURL,
		QueryAPI:       es.QueryAPI,
		TokenSource:    tokenSource,
		Timeout:        time.Duration(es.TimeoutSecond) * time.Second,
		AuthHeaderName: es.AuthHeader,
	})
}

// InitNodeStore 构建节点存储，只有 allow_memory 时才退回内存实现。
func InitNodeStore(ctx context.Context, cfg app.Config, logger *zap.Logger) (nodestore.Store, error) {
	ns := cfg.NodeStore
	if strings.TrimSpace(ns.Bucket) == "" {
		if !ns.AllowMemory {
			return nil, fmt.Errorf("node_store.bucket is required unless node_store.allow_memory is set")
		}
		logger.Warn("node_store.bucket 未配置，使用内存节点存储")
		return nodestore.NewMemoryStore(), nil
	}
	return nodestore.NewS3Store(ctx, nodestore.S3Config{
		Bucket:       ns.Bucket,
		Region:       ns.Region,
		Endpoint:     ns.Endpoint,
		Prefix:       ns.Prefix,
		AccessKey:    ns.AccessKey,
		SecretKey:    ns.SecretKey,
		UsePathStyle: ns.UsePathStyle,
	})
}

// InitSimilarityIndex 构建相似度索引，未配置 uri 时不启用。
func InitSimilarityIndex(ctx context.Context, cfg app.Config, logger *zap.Logger) (similarity.Index, func(), error) {
	if strings.TrimSpace(cfg.Neo4j.URI) == "" {
		logger.Warn("neo4j.uri 未配置，跳过相似度索引")
		return similarity.Noop{}, func() {}, nil
	}
	client, err := similarity.NewClient(ctx, similarity.Config{
		URI:                  cfg.Neo4j.URI,
		Username:             cfg.Neo4j.Username,
		Password:             cfg.Neo4j.Password,
		Database:             cfg.Neo4j.Database,
		MaxConnectionPool:    cfg.Neo4j.MaxConnectionPool,
		ConnectionTimeoutSec: cfg.Neo4j.ConnectTimeoutSecond,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = client.Close(context.Background()) }
	index := similarity.NewNeo4jIndex(client, logger.Named("similarity"))
	if err := index.Ensure(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	return index, cleanup, nil
}
