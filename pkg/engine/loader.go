package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"
	"github.com/raywall/dynamodb-migrator/envloader"
	"github.com/raywall/dynamodb-migrator/pkg/awsconf"
	localConfig "github.com/raywall/dynamodb-migrator/pkg/config"
	"github.com/raywall/dynamodb-migrator/pkg/config/injector"
	"gopkg.in/yaml.v3"
)

// Load é a função simplificada usada pelo CLI.
func Load(ctx context.Context, source string) (*localConfig.MigrationConfig, error) {
	return NewUniversalLoader().Load(ctx, source)
}

// LoadEnvFile carrega um arquivo .env sem sobrescrever variáveis já definidas.
// Um arquivo inexistente é ignorado quando optional é true.
func LoadEnvFile(path string, optional bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err != nil && optional && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("falha ao carregar %s: %w", path, err)
	}
	return nil
}

// --- Interfaces para Mocking ---

type S3Downloader interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type DynamoGetter interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// UniversalLoader suporta múltiplas fontes de configuração (Local, S3, DynamoDB).
//
// A precedência é: envDefault < YAML < variáveis de ambiente < placeholders
// ${env|ssm|secret.*}. Fonte vazia significa configuração só por ambiente.
type UniversalLoader struct {
	validator *localConfig.ConfigValidator
	params    injector.ParameterStore
	secrets   injector.SecretStore
}

// NewUniversalLoader cria uma nova instância.
func NewUniversalLoader() *UniversalLoader {
	return &UniversalLoader{
		validator: localConfig.NewValidator(),
	}
}

// WithStores troca as fontes de ${ssm.*} e ${secret.*}. Por padrão elas usam
// o SSM e o Secrets Manager da conta configurada.
func (ul *UniversalLoader) WithStores(params injector.ParameterStore, secrets injector.SecretStore) *UniversalLoader {
	ul.params = params
	ul.secrets = secrets
	return ul
}

// Load detecta o esquema da fonte e carrega a configuração.
func (ul *UniversalLoader) Load(ctx context.Context, source string) (*localConfig.MigrationConfig, error) {
	var rawData []byte
	var err error

	switch {
	case source == "":
		// apenas ambiente

	case strings.HasPrefix(source, "s3://"):
		conf, confErr := bootstrapAWS()
		if confErr != nil {
			return nil, confErr
		}
		cfg, cfgErr := awsconf.Load(ctx, conf)
		if cfgErr != nil {
			return nil, cfgErr
		}
		rawData, err = ul.loadFromS3Internal(ctx, s3.NewFromConfig(cfg), source)

	case strings.HasPrefix(source, "dynamodb://"):
		conf, confErr := bootstrapAWS()
		if confErr != nil {
			return nil, confErr
		}
		cfg, cfgErr := awsconf.Load(ctx, conf)
		if cfgErr != nil {
			return nil, cfgErr
		}
		rawData, err = ul.loadFromDynamoDBInternal(ctx, awsconf.NewDynamoDB(cfg, conf), source)

	default:
		rawData, err = ul.loadFromFile(source)
	}

	if err != nil {
		return nil, fmt.Errorf("falha leitura config (%s): %w", source, err)
	}

	return ul.parseAndValidate(ctx, rawData)
}

// bootstrapAWS lê do ambiente a configuração AWS usada para buscar o próprio
// arquivo de configuração.
func bootstrapAWS() (localConfig.AWSConf, error) {
	var conf localConfig.AWSConf
	if err := envloader.Load(&conf); err != nil {
		return conf, fmt.Errorf("falha ao ler a config AWS do ambiente: %w", err)
	}
	return conf, nil
}

// --- Estratégias de carregamento (métodos internos testáveis) ---

func (ul *UniversalLoader) loadFromFile(path string) ([]byte, error) {
	// Suporta tanto "file://config.yaml" quanto apenas "config.yaml"
	cleanPath := strings.TrimPrefix(path, "file://")
	return os.ReadFile(cleanPath)
}

func (ul *UniversalLoader) loadFromS3Internal(ctx context.Context, client S3Downloader, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("URL S3 inválida: %w", err)
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

func (ul *UniversalLoader) loadFromDynamoDBInternal(ctx context.Context, client DynamoGetter, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("URL DynamoDB inválida: %w", err)
	}

	tableName := u.Host
	pkValue := strings.TrimPrefix(u.Path, "/")

	// Query Params opcionais: dynamodb://tabela/chave?col=dado&pk=UserId
	colName := u.Query().Get("col")
	if colName == "" {
		colName = "config" // Coluna padrão onde o YAML está salvo
	}

	pkName := u.Query().Get("pk")
	if pkName == "" {
		pkName = "id" // Nome padrão da Partition Key
	}

	keyMap := map[string]types.AttributeValue{
		pkName: &types.AttributeValueMemberS{Value: pkValue},
	}

	out, err := client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &tableName,
		Key:       keyMap,
	})
	if err != nil {
		return nil, err
	}

	if out.Item == nil {
		return nil, fmt.Errorf("item não encontrado no DynamoDB")
	}

	var itemMap map[string]interface{}
	if err := attributevalue.UnmarshalMap(out.Item, &itemMap); err != nil {
		return nil, err
	}

	content, ok := itemMap[colName].(string)
	if !ok {
		return nil, fmt.Errorf("coluna '%s' inválida ou vazia no DynamoDB", colName)
	}

	return []byte(content), nil
}

// parseAndValidate aplica defaults, YAML, ambiente, injeção e validação.
func (ul *UniversalLoader) parseAndValidate(ctx context.Context, data []byte) (*localConfig.MigrationConfig, error) {
	var cfg localConfig.MigrationConfig

	// 1. Defaults (envDefault)
	if err := envloader.Defaults(&cfg); err != nil {
		return nil, fmt.Errorf("falha nos defaults: %w", err)
	}

	// 2. Unmarshal (YAML -> Struct)
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("YAML malformado: %w", err)
		}
	}

	// 3. Variáveis de ambiente
	if err := envloader.Override(&cfg); err != nil {
		return nil, fmt.Errorf("falha ao ler o ambiente: %w", err)
	}

	// 4. Injection (Env/Secrets/SSM)
	params, secrets := ul.params, ul.secrets
	if params == nil || secrets == nil {
		resolver := awsconf.NewResolver(cfg.AWS)
		if params == nil {
			params = resolver
		}
		if secrets == nil {
			secrets = resolver
		}
	}
	inj := injector.New(injector.WithParameterStore(params), injector.WithSecretStore(secrets))
	if err := inj.Inject(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("falha na injeção de variáveis: %w", err)
	}

	// 5. Validation
	if ul.validator != nil {
		if err := ul.validator.Validate(&cfg); err != nil {
			return nil, fmt.Errorf("validação da configuração falhou: %w", err)
		}
	}

	return &cfg, nil
}
