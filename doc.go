// Package dynamodb_migrator reúne uma migração em lote, executada uma única
// vez, que marca itens de uma tabela DynamoDB como especialistas.
//
// Visão Geral:
// Para cada item da tabela o job lê a chave primária e o atributo
// previousDegrees, grava isExpert = true quando a lista está ausente ou vazia
// (false caso contrário) e carimba updatedAt com o horário da execução e o
// autor "Batch update migration". As escritas são agrupadas em transações de
// até 25 operações, reenviadas com backoff exponencial limitado.
//
// Sub-Pacotes Principais:
//
// 1. migration:
//   - Reader (Scan paginado com projeção), Builder (regra isExpert e carimbo).
//   - Committer (lotes transacionais, RetryPolicy, BatchFailedError).
//   - Job nos modos buffered e streaming, com cancelamento por context.
//
// 2. dyndb:
//   - Implementação de migration.Backend sobre o aws-sdk-go-v2.
//   - Cursor de paginação opaco e ClientRequestToken determinístico por lote.
//
// 3. envloader:
//   - Carregamento de configurações via tags "env" e "envDefault".
//
// 4. pkg/*:
//   - config, engine (carregamento YAML/S3/DynamoDB e orquestração), logger,
//     metrics/observability (Datadog), lock (Redis), report (S3/SQS) e
//     transport (AWS Lambda).
//
// Exemplo de Início Rápido:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		"github.com/aws/aws-sdk-go-v2/config"
//		"github.com/aws/aws-sdk-go-v2/service/dynamodb"
//		"github.com/raywall/dynamodb-migrator/dyndb"
//		"github.com/raywall/dynamodb-migrator/migration"
//	)
//
//	func main() {
//		ctx := context.Background()
//
//		awsCfg, err := config.LoadDefaultConfig(ctx)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		// os nomes vêm de DYNAMODB_TABLE_NAME e afins
//		table, err := dyndb.NewFromEnv(dynamodb.NewFromConfig(awsCfg))
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		job := migration.NewJob(table, migration.Options{
//			Table: table.Name(),
//			Retry: migration.DefaultRetryPolicy(),
//		})
//		summary, err := job.Run(ctx)
//		if err != nil {
//			log.Fatalf("migração interrompida: %v", err)
//		}
//		log.Printf("%d itens, %d especialistas", summary.Records, summary.Experts)
//	}
package dynamodb_migrator
