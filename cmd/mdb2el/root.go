package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/timmy/mdb2el/internal/config"
	"github.com/timmy/mdb2el/internal/dispatch"
	"github.com/timmy/mdb2el/internal/engine"
	"github.com/timmy/mdb2el/internal/jobs"
	"github.com/timmy/mdb2el/internal/logger"
	"github.com/timmy/mdb2el/internal/repository"
	"github.com/timmy/mdb2el/internal/service"
	"github.com/timmy/mdb2el/internal/storage"
)

// RootOptions holds the flags of the root command.
type RootOptions struct {
	SettingsPath string
}

// NewRootCommand creates the mdb2el command. It reads mdb2el.ini from the working
// directory and copies each listed MongoDB collection into Elasticsearch.
func NewRootCommand(appLogger *logger.Logger) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "mdb2el",
		Short:         "Copy MongoDB collections into Elasticsearch indexes",
		Long:          fmt.Sprintf("Reads the jobs listed in %s and synchronizes each one, in file order.", jobs.ConfigFile),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), appLogger, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.SettingsPath, "settings", "", "path to the connection settings file")

	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

func run(ctx context.Context, appLogger *logger.Logger, opts *RootOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(opts.SettingsPath)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	filter, err := engine.ParseFindQuery(cfg.Sync.FindQuery)
	if err != nil {
		return err
	}

	// A source that cannot be created leaves the engine unavailable; jobs are
	// still loaded and the dispatcher reports the engine failure.
	var source engine.DocumentSource
	mongoSource, err := engine.NewMongoSource(ctx, &engine.MongoConfig{
		URI:     cfg.Mongo.ConnectionURI(),
		Timeout: cfg.Mongo.Timeout,
	})
	if err != nil {
		appLogger.WithError(err).Error("Failed to create MongoDB client")
	} else {
		source = mongoSource
		defer mongoSource.Close(context.Background())
	}

	indexer := engine.NewBulkIndexer(&engine.ElasticConfig{
		BaseURL:  cfg.Elasticsearch.BaseURL(),
		Username: cfg.Elasticsearch.Username,
		Password: cfg.Elasticsearch.Password,
		Timeout:  cfg.Elasticsearch.Timeout,
	})

	syncEngine := engine.New(source, indexer, &engine.Config{
		BatchSize: cfg.Sync.BatchSize,
		Filter:    filter,
	})

	var runs service.RunRecorder
	if cfg.Database.Enabled {
		db, err := repository.InitDB(&cfg.Database)
		if err != nil {
			appLogger.WithError(err).Warn("Run history disabled")
		} else {
			runs = repository.NewSyncRunRepository(db)
		}
	}

	var archive storage.ObjectStorage
	if cfg.Storage.Enabled {
		archive, err = newArchive(ctx, &cfg.Storage)
		if err != nil {
			appLogger.WithError(err).Warn("Report archiving disabled")
			archive = nil
		}
	}

	svc := service.NewSyncService(
		dispatch.New(syncEngine, appLogger),
		runs,
		archive,
		appLogger,
		&service.SyncConfig{
			ConfigFile:   jobs.ConfigFile,
			MaxEntries:   cfg.Jobs.MaxEntries,
			ReportPrefix: cfg.Storage.Prefix,
		},
	)

	svc.Run(ctx)
	return nil
}

func newArchive(ctx context.Context, cfg *config.StorageConfig) (storage.ObjectStorage, error) {
	store, err := storage.NewStorage(&storage.Config{
		Type:      storage.StorageType(cfg.Type),
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		UseSSL:    cfg.UseSSL,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		PublicURL: cfg.PublicURL,
	})
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return store, nil
}
