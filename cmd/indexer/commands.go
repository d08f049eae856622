package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchbot/internal/app"
	"github.com/kailas-cloud/searchbot/internal/domain/document"
	indexuc "github.com/kailas-cloud/searchbot/internal/usecase/index"
	"github.com/kailas-cloud/searchbot/internal/usecase/ingest"
)

// syncer uploads the data directory into the configured index.
type syncer struct {
	name    string
	ready   time.Duration
	dims    int
	indexes *indexuc.Service
	loader  *ingest.Service
	// uploaded holds the IDs written by the previous sync.
	uploaded map[string]struct{}
}

// newSyncer builds the clients a sync needs. The returned func releases them.
func newSyncer(ctx context.Context, st *state, dataDir string) (*syncer, func(), error) {
	cfg := &st.cfg
	if dataDir != "" {
		cfg.Ingest.DataDir = dataDir
	}

	client, err := app.NewSearchClient(cfg, st.logger)
	if err != nil {
		return nil, nil, err //nolint:wrapcheck // configuration error
	}
	embedding, err := app.NewEmbedding(ctx, cfg, st.logger)
	if err != nil {
		return nil, nil, err //nolint:wrapcheck // configuration error
	}

	// Vectors are only stored when the schema carries a vector field.
	var embedder ingest.Embedder
	if embedding != nil && cfg.Embedding.Dimensions > 0 {
		embedder = embedding.Embedder
	}

	loader, err := ingest.New(ingest.Config{
		DataDir:     cfg.Ingest.DataDir,
		URIPrefix:   cfg.Ingest.URIPrefix,
		Concurrency: cfg.Ingest.Concurrency,
		EmbedRPS:    cfg.Ingest.EmbedRPS,
		EmbedBurst:  cfg.Ingest.EmbedBurst,
	}, embedder, st.logger)
	if err != nil {
		embedding.Close()
		return nil, nil, fmt.Errorf("create loader: %w", err)
	}

	s := &syncer{
		name:    cfg.Search.IndexName,
		ready:   time.Duration(cfg.Search.ReadyTimeoutSec) * time.Second,
		dims:    cfg.Embedding.Dimensions,
		indexes: indexuc.New(client, client, st.logger),
		loader:  loader,
	}
	return s, embedding.Close, nil
}

// ensure creates the index when missing and waits until it accepts documents.
func (s *syncer) ensure(ctx context.Context) (bool, error) {
	created, err := s.indexes.EnsureIndex(ctx, indexuc.DefaultDefinition(s.name, s.dims))
	if err != nil {
		return false, fmt.Errorf("ensure index: %w", err)
	}
	if created {
		if err := s.indexes.WaitForReady(ctx, s.name, s.ready); err != nil {
			return true, fmt.Errorf("wait for index: %w", err)
		}
	}
	return created, nil
}

// sync reloads the data directory and uploads it.
func (s *syncer) sync(ctx context.Context) (int, error) {
	docs, err := s.loader.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load documents: %w", err)
	}
	return len(docs), s.upload(ctx, docs)
}

// upload writes docs and removes the documents of the previous upload that are no longer present.
func (s *syncer) upload(ctx context.Context, docs []document.Document) error {
	if err := s.indexes.UpsertDocuments(ctx, s.name, docs); err != nil {
		return fmt.Errorf("upload documents: %w", err)
	}

	current := make(map[string]struct{}, len(docs))
	for i := range docs {
		current[docs[i].ID()] = struct{}{}
	}
	var stale []string
	for id := range s.uploaded {
		if _, ok := current[id]; !ok {
			stale = append(stale, id)
		}
	}
	if err := s.indexes.DeleteDocuments(ctx, s.name, stale); err != nil {
		return fmt.Errorf("remove stale documents: %w", err)
	}

	s.uploaded = current
	return nil
}

func newSetupCmd(st *state) *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the index if missing and upload every file of the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			s, closeFn, err := newSyncer(ctx, st, dataDir)
			if err != nil {
				return err
			}
			defer closeFn()

			// Load first: a bad data directory must not leave an empty index behind.
			docs, err := s.loader.Load(ctx)
			if err != nil {
				return fmt.Errorf("load documents: %w", err)
			}
			created, err := s.ensure(ctx)
			if err != nil {
				return err
			}
			if err := s.upload(ctx, docs); err != nil {
				return err
			}
			n := len(docs)

			st.logger.Info("Index setup complete",
				zap.String("index", s.name),
				zap.Bool("created", created),
				zap.Int("documents", n),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "index %s: %d documents uploaded (created=%t)\n", s.name, n, created)
			return nil
		},
	}
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "directory of text files to upload (overrides ingest.data_dir)")
	return cmd
}

func newWatchCmd(st *state) *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the index in sync with the data directory until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, closeFn, err := newSyncer(ctx, st, dataDir)
			if err != nil {
				return err
			}
			defer closeFn()

			if _, err := s.ensure(ctx); err != nil {
				return err
			}
			n, err := s.sync(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "index %s: %d documents uploaded, watching %s\n",
				s.name, n, st.cfg.Ingest.DataDir)

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			defer watcher.Close()
			if err := watcher.Add(st.cfg.Ingest.DataDir); err != nil {
				return fmt.Errorf("watch %s: %w", st.cfg.Ingest.DataDir, err)
			}

			debounce := time.Duration(st.cfg.Ingest.WatchDebounceMs) * time.Millisecond
			watchLoop(ctx, watcher.Events, watcher.Errors, debounce, func(ctx context.Context) {
				n, err := s.sync(ctx)
				if err != nil {
					st.logger.Error("Resync failed", zap.Error(err))
					return
				}
				st.logger.Info("Index resynced", zap.String("index", s.name), zap.Int("documents", n))
			}, st.logger)
			return nil
		},
	}
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "directory of text files to watch (overrides ingest.data_dir)")
	return cmd
}

// watchLoop calls resync once the event stream has been quiet for debounce.
// Permission-only changes are ignored. Returns when ctx is done or events is closed.
func watchLoop(
	ctx context.Context,
	events <-chan fsnotify.Event,
	errs <-chan error,
	debounce time.Duration,
	resync func(context.Context),
	logger *zap.Logger,
) {
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			logger.Debug("Data directory changed", zap.String("event", ev.String()))
			timer.Reset(debounce)
		case err, ok := <-errs:
			if !ok {
				return
			}
			logger.Warn("Watcher error", zap.Error(err))
		case <-timer.C:
			resync(ctx)
		}
	}
}

func newDeleteCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete the index and all of its documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.NewSearchClient(&st.cfg, st.logger)
			if err != nil {
				return err //nolint:wrapcheck // configuration error
			}

			name := st.cfg.Search.IndexName
			if err := indexuc.New(client, client, st.logger).DeleteIndex(cmd.Context(), name); err != nil {
				return fmt.Errorf("delete index: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "index %s deleted\n", name)
			return nil
		},
	}
}

func newSearchCmd(st *state) *cobra.Command {
	var budget int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Render the retrieval context for a query, as the bot would see it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := app.NewSearchClient(&st.cfg, st.logger)
			if err != nil {
				return err //nolint:wrapcheck // configuration error
			}
			embedding, err := app.NewEmbedding(ctx, &st.cfg, st.logger)
			if err != nil {
				return err //nolint:wrapcheck // configuration error
			}
			defer embedding.Close()

			svc, err := app.NewSearchService(&st.cfg, client, embedding, st.logger)
			if err != nil {
				return err //nolint:wrapcheck // configuration error
			}

			rc, err := svc.RenderContext(ctx, strings.Join(args, " "), budget)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, rc.Text())
			fmt.Fprintf(out, "\n-- mode=%s tokens=%d truncated=%t documents=[%s]\n",
				svc.Mode(), rc.TokenCount(), rc.Truncated(), strings.Join(rc.Included(), ","))
			return nil
		},
	}
	cmd.Flags().IntVar(&budget, "budget", 0, "token budget for the rendered context (0 uses search.token_budget)")
	return cmd
}
