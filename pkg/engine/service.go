package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/raywall/dynamodb-migrator/dyndb"
	"github.com/raywall/dynamodb-migrator/migration"
	"github.com/raywall/dynamodb-migrator/pkg/awsconf"
	"github.com/raywall/dynamodb-migrator/pkg/config"
	"github.com/raywall/dynamodb-migrator/pkg/lock"
	"github.com/raywall/dynamodb-migrator/pkg/logger"
	"github.com/raywall/dynamodb-migrator/pkg/metrics"
	"github.com/raywall/dynamodb-migrator/pkg/observability"
	"github.com/raywall/dynamodb-migrator/pkg/report"
	"github.com/rs/zerolog"
)

// MigrationEngine é a raiz de composição: liga a configuração aos clientes
// reais e executa o migration.Job.
type MigrationEngine struct {
	Config          *config.MigrationConfig
	Logger          zerolog.Logger
	Metrics         metrics.Provider
	MetricProcessor *metrics.Processor
	Backend         migration.Backend
	Locker          lock.Locker
	Publisher       report.Publisher

	closers []io.Closer
}

var _ Executor = (*MigrationEngine)(nil)

// Dependencies permite substituir os colaboradores externos (usado em testes).
// Campos nil são criados a partir da configuração.
type Dependencies struct {
	Backend   migration.Backend
	Locker    lock.Locker
	Publisher report.Publisher
	Metrics   metrics.Provider
	Logger    *zerolog.Logger
}

// NewMigrationEngine cria os clientes AWS, Redis e Datadog conforme cfg.
func NewMigrationEngine(ctx context.Context, cfg *config.MigrationConfig) (*MigrationEngine, error) {
	return NewMigrationEngineWith(ctx, cfg, Dependencies{})
}

// NewMigrationEngineWith é o NewMigrationEngine com dependências injetadas.
func NewMigrationEngineWith(ctx context.Context, cfg *config.MigrationConfig, deps Dependencies) (*MigrationEngine, error) {
	var log zerolog.Logger
	if deps.Logger != nil {
		log = *deps.Logger
	} else {
		log = logger.Configure(cfg.Logging)
	}
	log = log.With().Str("service", cfg.Service.Name).Logger()

	se := &MigrationEngine{
		Config:    cfg,
		Logger:    log,
		Metrics:   deps.Metrics,
		Backend:   deps.Backend,
		Locker:    deps.Locker,
		Publisher: deps.Publisher,
	}

	if se.Metrics == nil {
		provider, err := observability.SetupMetrics(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("falha métricas: %w", err)
		}
		se.Metrics = provider
		if c, ok := provider.(io.Closer); ok {
			se.closers = append(se.closers, c)
		}
	}
	se.MetricProcessor = metrics.NewProcessor(se.Metrics, nil, log)

	if se.Backend == nil || (se.Publisher == nil && hasReport(cfg.Report)) {
		awsCfg, err := awsconf.Load(ctx, cfg.AWS)
		if err != nil {
			return nil, fmt.Errorf("falha ao carregar config AWS: %w", err)
		}

		if se.Backend == nil {
			se.Backend = dyndb.New(awsconf.NewDynamoDB(awsCfg, cfg.AWS), cfg.Table)
		}

		if se.Publisher == nil {
			var publishers report.Multi
			if cfg.Report.S3URI != "" {
				p, err := report.NewS3Publisher(s3.NewFromConfig(awsCfg), cfg.Report.S3URI)
				if err != nil {
					return nil, err
				}
				publishers = append(publishers, p)
			}
			if cfg.Report.SQSQueueURL != "" {
				publishers = append(publishers, report.NewSQSPublisher(sqs.NewFromConfig(awsCfg), cfg.Report.SQSQueueURL))
			}
			se.Publisher = publishers
		}
	}

	if se.Locker == nil {
		se.Locker = lock.Noop{}
		if cfg.Lock.RedisAddr != "" {
			client := lock.NewRedisClient(cfg.Lock)
			se.closers = append(se.closers, client)
			se.Locker = lock.NewRedisLock(client, lock.Key(cfg.Lock, cfg.Table.TableName), cfg.Lock.TTL)
		}
	}

	return se, nil
}

func hasReport(r config.ReportConf) bool {
	return r.S3URI != "" || r.SQSQueueURL != ""
}

// Options traduz a configuração (e os overrides) para migration.Options.
func (se *MigrationEngine) Options(o Overrides) (migration.Options, error) {
	m := se.Config.Migration
	if o.Mode != "" {
		m.Mode = o.Mode
	}
	if o.DryRun != nil {
		m.DryRun = *o.DryRun
	}

	mode, err := migration.ParseMode(m.Mode)
	if err != nil {
		return migration.Options{}, err
	}
	backoff, err := migration.ParseBackoffMode(se.Config.Retry.BackoffMode)
	if err != nil {
		return migration.Options{}, err
	}

	log := se.Logger
	return migration.Options{
		Table:       se.Config.Table.TableName,
		BatchSize:   m.BatchSize,
		PageSize:    m.PageSize,
		Mode:        mode,
		BufferPages: m.BufferPages,
		DryRun:      m.DryRun,
		Actor:       m.Actor,
		Retry: migration.RetryPolicy{
			BaseDelay:   se.Config.Retry.BaseDelay,
			MaxDelay:    se.Config.Retry.MaxDelay,
			MaxAttempts: se.Config.Retry.MaxAttempts,
			MaxElapsed:  se.Config.Retry.MaxElapsed,
			Mode:        backoff,
		},
		Logger:  &log,
		Metrics: se.MetricProcessor,
	}, nil
}

// Execute adquire o lock, roda o Job e publica o relatório.
//
// Falhas de publicação são logadas mas não alteram o resultado: o que foi
// gravado na tabela é o que importa.
func (se *MigrationEngine) Execute(ctx context.Context, o Overrides) (*migration.Summary, error) {
	opts, err := se.Options(o)
	if err != nil {
		return nil, err
	}

	if err := se.Locker.Acquire(ctx); err != nil {
		return nil, err
	}
	defer func() {
		// o ctx da execução pode já estar cancelado
		if err := se.Locker.Release(context.WithoutCancel(ctx)); err != nil {
			se.Logger.Warn().Err(err).Msg("falha ao liberar o lock")
		}
	}()

	job := migration.NewJob(se.Backend, opts)
	summary, runErr := job.Run(ctx)

	if se.Publisher != nil {
		if err := se.Publisher.Publish(context.WithoutCancel(ctx), report.New(summary, runErr)); err != nil {
			se.Logger.Error().Err(err).Str("run_id", job.RunID()).Msg("falha ao publicar o relatório")
		}
	}

	// no Lambda o processo continua vivo entre invocações e Shutdown não roda
	if f, ok := se.Metrics.(metrics.Flusher); ok {
		if err := f.Flush(); err != nil {
			se.Logger.Warn().Err(err).Msg("falha ao enviar métricas")
		}
	}

	return summary, runErr
}

// Shutdown fecha os clientes criados pelo engine.
func (se *MigrationEngine) Shutdown(ctx context.Context) error {
	var errs []error
	for _, c := range se.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	se.closers = nil
	return errors.Join(errs...)
}
