package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/kirillkom/insurance-clause-qa/internal/config"
	"github.com/kirillkom/insurance-clause-qa/internal/core/ports"
	"github.com/kirillkom/insurance-clause-qa/internal/core/usecase"
	"github.com/kirillkom/insurance-clause-qa/internal/infrastructure/chunking"
	"github.com/kirillkom/insurance-clause-qa/internal/infrastructure/evallog/jsonl"
	"github.com/kirillkom/insurance-clause-qa/internal/infrastructure/extractor"
	"github.com/kirillkom/insurance-clause-qa/internal/infrastructure/graph/neo4j"
	"github.com/kirillkom/insurance-clause-qa/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/insurance-clause-qa/internal/infrastructure/queue/nats"
	"github.com/kirillkom/insurance-clause-qa/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/insurance-clause-qa/internal/infrastructure/resilience"
	"github.com/kirillkom/insurance-clause-qa/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/insurance-clause-qa/internal/infrastructure/vector/qdrant"
)

// Options selects which parts of the application graph a binary needs.
type Options struct {
	// WithRegistry wires the Postgres document registry, object storage and the
	// NATS ingestion queue used by the API and the worker.
	WithRegistry bool

	ResilienceObserver resilience.Observer
	QueryObserver      usecase.QueryObserver
	IndexObserver      usecase.IndexObserver
}

type App struct {
	Config config.Config

	Classifier  *usecase.CategoryClassifier
	QueryUC     *usecase.QueryUseCase
	Indexer     *usecase.SegmentIndexer
	Evaluations *usecase.EvaluationQueryUseCase
	Vector      *qdrant.Client
	Executor    *resilience.Executor

	Queue     *nats.Queue
	Repo      *postgres.DocumentRepository
	IngestUC  *usecase.IngestDocumentUseCase
	ProcessUC *usecase.ProcessDocumentUseCase

	closers []func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (app *App, err error) {
	app = &App{Config: cfg}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	executor := resilience.NewExecutor(resilienceConfig(cfg))
	if opts.ResilienceObserver != nil {
		executor = executor.WithObserver(opts.ResilienceObserver)
	}
	app.Executor = executor

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel).
		WithResilience(executor).
		WithTimeout(cfg.OllamaTimeout).
		WithTemperature(cfg.OllamaTemperature)
	embedder := ollama.NewEmbedder(ollamaClient)

	app.Vector = qdrant.New(cfg.QdrantURL, cfg.QdrantCollection).
		WithResilience(executor).
		WithScoreThreshold(cfg.QdrantScoreThreshold).
		WithAPIKey(cfg.QdrantAPIKey)

	var db *sql.DB
	if opts.WithRegistry || cfg.EvalLogBackend == config.EvalBackendPostgres {
		if db, err = postgres.OpenDB(cfg.PostgresDSN); err != nil {
			return app, fmt.Errorf("open postgres: %w", err)
		}
		app.closers = append(app.closers, func() { _ = db.Close() })
		if err = postgres.EnsureSchema(ctx, db); err != nil {
			return app, fmt.Errorf("ensure schema: %w", err)
		}
	}

	evalLog, err := evaluationLog(cfg, db)
	if err != nil {
		return app, err
	}
	if evalLog != nil {
		app.Evaluations = usecase.NewEvaluationQueryUseCase(evalLog)
	}

	var judge ports.AnswerJudge
	if cfg.EvalJudgeEnabled {
		judge = ollama.NewJudge(ollamaClient)
	}

	app.Classifier = usecase.NewCategoryClassifier(ollamaClient)
	retriever := usecase.NewRetrievalOrchestrator(usecase.NewEmbeddingSearcher(embedder, app.Vector))
	app.QueryUC = usecase.NewQueryUseCase(app.Classifier, retriever, ollamaClient, usecase.QueryOptions{
		DefaultTopK:    cfg.RAGTopK,
		AnswerMaxChars: cfg.EvalAnswerMaxChars,
		Judge:          judge,
		EvalLog:        evalLog,
		Observer:       opts.QueryObserver,
	})

	var graph ports.HierarchyGraph
	if cfg.GraphEnabled() {
		g, err := neo4j.New(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase)
		if err != nil {
			return app, fmt.Errorf("init hierarchy graph: %w", err)
		}
		app.closers = append(app.closers, func() { _ = g.Close(context.Background()) })
		graph = g
	}
	segmenter := chunking.NewSegmenter(cfg.SegmentMaxRunes, cfg.SegmentOverlapRunes)
	app.Indexer = usecase.NewSegmentIndexer(segmenter, embedder, app.Vector, graph, opts.IndexObserver)

	if opts.WithRegistry {
		if err = app.wireRegistry(cfg, db, executor); err != nil {
			return app, err
		}
	}

	slog.Info("application_wired",
		"registry", opts.WithRegistry,
		"eval_log_backend", cfg.EvalLogBackend,
		"judge_enabled", judge != nil,
		"graph_enabled", graph != nil,
	)
	return app, nil
}

func (a *App) wireRegistry(cfg config.Config, db *sql.DB, executor *resilience.Executor) error {
	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		QueueGroup:         cfg.NATSQueueGroup,
		ResilienceExecutor: executor,
	})
	if err != nil {
		return fmt.Errorf("init message queue: %w", err)
	}
	a.closers = append(a.closers, queue.Close)
	a.Queue = queue

	a.Repo = postgres.NewDocumentRepository(db)
	router := extractor.NewRouter(storage)
	a.IngestUC = usecase.NewIngestDocumentUseCase(a.Repo, storage, queue).
		WithAllowedExtensions(router.SupportedExtensions()...)
	a.ProcessUC = usecase.NewProcessDocumentUseCase(a.Repo, router, a.Indexer)
	return nil
}

// DirectoryIngest builds a batch ingester reading documents straight from dir.
func (a *App) DirectoryIngest(dir string, workers int) (*usecase.BatchIngestUseCase, *localfs.Storage, *extractor.Router, error) {
	storage, err := localfs.New(dir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open source directory: %w", err)
	}
	router := extractor.NewRouter(storage)
	if workers <= 0 {
		workers = a.Config.IngestWorkers
	}
	return usecase.NewBatchIngestUseCase(router, a.Indexer, workers), storage, router, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func evaluationLog(cfg config.Config, db *sql.DB) (ports.EvaluationLog, error) {
	switch cfg.EvalLogBackend {
	case config.EvalBackendJSONL, "":
		log, err := jsonl.New(cfg.EvalLogPath)
		if err != nil {
			return nil, fmt.Errorf("init evaluation log: %w", err)
		}
		return log, nil
	case config.EvalBackendPostgres:
		return postgres.NewEvaluationRepository(db), nil
	case config.EvalBackendNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown EVAL_LOG_BACKEND %q", cfg.EvalLogBackend)
	}
}

func resilienceConfig(cfg config.Config) resilience.Config {
	rc := resilience.DefaultConfig()
	rc.RetryMaxAttempts = cfg.ResilienceRetryAttempts
	rc.RetryInitialBackoff = cfg.ResilienceRetryInitialBackoff
	rc.RetryMaxBackoff = cfg.ResilienceRetryMaxBackoff
	rc.BreakerEnabled = cfg.ResilienceBreakerEnabled
	rc.BreakerFailureRatio = cfg.ResilienceBreakerFailureRatio
	rc.BreakerOpenTimeout = cfg.ResilienceBreakerOpenTimeout
	return rc
}
