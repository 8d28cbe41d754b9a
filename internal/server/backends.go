package server

import (
	"context"
	"fmt"
	"io"

	"github.com/userhub/apiserver/config"
	"github.com/userhub/apiserver/internal/db"
	"github.com/userhub/apiserver/internal/mq"
	"github.com/userhub/apiserver/internal/services"
	"github.com/userhub/apiserver/internal/storage"
	"github.com/userhub/apiserver/internal/store"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type repositories struct {
	users   services.UserRepository
	avatars services.AvatarRepository
	closer  io.Closer
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func openRepositories(ctx context.Context, cfg config.Config) (repositories, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres, "":
		dbConn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return repositories{}, err
		}
		return repositories{
			users:   store.NewUserRepository(dbConn),
			avatars: store.NewAvatarRepository(dbConn),
			closer:  dbConn,
		}, nil
	case config.StoreMongo:
		client, database, err := db.OpenMongo(ctx, cfg.Mongo)
		if err != nil {
			return repositories{}, err
		}
		avatars := store.NewMongoAvatarRepository(database)
		if err := avatars.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return repositories{}, err
		}
		return repositories{
			users:   store.NewMongoUserRepository(database),
			avatars: avatars,
			closer:  mongoCloser(client),
		}, nil
	default:
		return repositories{}, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func mongoCloser(client *mongo.Client) io.Closer {
	return closerFunc(func() error {
		return client.Disconnect(context.Background())
	})
}

func openStorage(ctx context.Context, cfg config.Config) (*storage.Storage, error) {
	var backend storage.ObjectStorage
	switch cfg.StorageBackend {
	case config.StorageDisk, "":
		disk, err := storage.NewDiskStorage(cfg.UploadsDir)
		if err != nil {
			return nil, err
		}
		backend = disk
	case config.StorageMinio:
		client, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		backend = client
	case config.StorageGCS:
		client, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		backend = client
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	s := storage.NewStorage(backend)
	if err := s.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func openMQ(ctx context.Context, cfg config.Config) (mq.Backend, error) {
	switch cfg.MQ.Backend {
	case config.MQRabbitMQ, "":
		return mq.NewRabbitMQClient(cfg.RabbitMQ)
	case config.MQPubSub:
		return mq.NewPubSubClient(ctx, cfg.PubSub)
	case config.MQRedis:
		return mq.NewRedisClient(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.MQ.Backend)
	}
}
