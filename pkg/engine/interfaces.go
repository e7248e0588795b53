package engine

import (
	"context"

	"github.com/raywall/dynamodb-migrator/migration"
	"github.com/raywall/dynamodb-migrator/pkg/config"
)

// Loader é responsável por carregar e decodificar a configuração da migração.
// Ele abstrai a origem do arquivo (Sistema de arquivos, S3, DynamoDB).
type Loader interface {
	// Load lê a configuração a partir de uma origem e retorna a struct validada.
	Load(ctx context.Context, source string) (*config.MigrationConfig, error)
}

// Executor é a interface de tempo de execução usada pelos runtimes (CLI e Lambda).
type Executor interface {
	// Execute roda a migração uma vez. O Summary é retornado sempre que o
	// Job chegou a iniciar, mesmo em caso de erro.
	Execute(ctx context.Context, o Overrides) (*migration.Summary, error)

	// Shutdown realiza o encerramento gracioso de recursos (fechar conexões, flush de métricas).
	Shutdown(ctx context.Context) error
}

// Overrides ajusta uma execução sem alterar a configuração carregada.
type Overrides struct {
	DryRun *bool
	Mode   string
}
