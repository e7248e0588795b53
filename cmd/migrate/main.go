package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/raywall/dynamodb-migrator/pkg/config"
	"github.com/raywall/dynamodb-migrator/pkg/engine"
	"github.com/raywall/dynamodb-migrator/pkg/logger"
	"github.com/raywall/dynamodb-migrator/pkg/report"
	"github.com/raywall/dynamodb-migrator/pkg/transport"
	"github.com/spf13/cobra"
)

var (
	// Variáveis injetáveis para mocking
	lambdaStarter = func(handler interface{}) { lambda.Start(handler) }
	newExecutor   = func(ctx context.Context, cfg *config.MigrationConfig) (engine.Executor, error) {
		return engine.NewMigrationEngine(ctx, cfg)
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		stop()
		os.Exit(1)
	}
}

type flags struct {
	configPath string
	envFile    string
	dryRun     bool
	mode       string
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	runE := func(cmd *cobra.Command, _ []string) error {
		var o engine.Overrides
		if cmd.Flags().Changed("dry-run") {
			o.DryRun = &f.dryRun
		}
		o.Mode = f.mode
		return run(cmd.Context(), f, o, cmd.OutOrStdout())
	}

	root := &cobra.Command{
		Use:   "dynamodb-migrator",
		Short: "Classifica registros de uma tabela DynamoDB como expert em lotes transacionais",
		Long: `Percorre a tabela inteira, marca isExpert=true nos registros sem previousDegrees
(e false nos demais), carimba updatedAt e grava em transações de até 25 itens.

Configuração: arquivo YAML (local, s3:// ou dynamodb://), .env e variáveis de ambiente.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runE,
	}

	root.PersistentFlags().StringVarP(&f.configPath, "config", "c", os.Getenv("CONFIG_FILE_PATH"), "arquivo YAML, s3://bucket/key ou dynamodb://tabela/chave")
	root.PersistentFlags().StringVar(&f.envFile, "env-file", ".env", "arquivo .env carregado antes da configuração (ignorado se não existir)")
	root.PersistentFlags().BoolVar(&f.dryRun, "dry-run", false, "lê e classifica sem gravar")
	root.PersistentFlags().StringVar(&f.mode, "mode", "", "buffered ou streaming (sobrescreve a configuração)")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Executa a migração (padrão)",
			Args:  cobra.NoArgs,
			RunE:  runE,
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Carrega e valida a configuração sem acessar a tabela",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return validate(cmd.Context(), f, cmd.OutOrStdout())
			},
		},
	)

	return root
}

func loadConfig(ctx context.Context, f *flags) (*config.MigrationConfig, error) {
	if err := engine.LoadEnvFile(f.envFile, f.envFile == ".env"); err != nil {
		return nil, err
	}
	return engine.Load(ctx, f.configPath)
}

// run contém a lógica principal testável
func run(ctx context.Context, f *flags, o engine.Overrides, out io.Writer) error {
	cfg, err := loadConfig(ctx, f)
	if err != nil {
		return err
	}

	exec, err := newExecutor(ctx, cfg)
	if err != nil {
		return err
	}
	defer exec.Shutdown(context.WithoutCancel(ctx))

	switch cfg.Service.Runtime {
	case "lambda":
		handler := transport.NewLambdaHandler(exec, logger.Configure(cfg.Logging))
		lambdaStarter(handler.Handle)
		return nil
	default:
		summary, runErr := exec.Execute(ctx, o)
		if summary != nil {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report.New(summary, runErr)); err != nil {
				return err
			}
		}
		return runErr
	}
}

func validate(ctx context.Context, f *flags, out io.Writer) error {
	cfg, err := loadConfig(ctx, f)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "configuração válida\n")
	fmt.Fprintf(out, "  tabela:  %s (hash=%s sort=%s)\n", cfg.Table.TableName, cfg.Table.HashKey, cfg.Table.SortKey)
	fmt.Fprintf(out, "  regra:   %s = %s ausente ou vazio\n", cfg.Table.FlagAttribute, cfg.Table.PredicateAttribute)
	fmt.Fprintf(out, "  lotes:   %d, modo %s, dry-run %t\n", cfg.Migration.BatchSize, cfg.Migration.Mode, cfg.Migration.DryRun)
	fmt.Fprintf(out, "  retry:   base %s, teto %s, tentativas %d, backoff %s\n",
		cfg.Retry.BaseDelay, cfg.Retry.MaxDelay, cfg.Retry.MaxAttempts, cfg.Retry.BackoffMode)
	return nil
}
