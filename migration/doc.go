/*
Package migration implementa a migração em lote que classifica registros como
"expert".

O pipeline tem três estágios, executados em sequência e com fluxo de dados em
um único sentido:

  - Reader: pagina a tabela inteira (Scan) buscando apenas as chaves e o campo
    previousDegrees.
  - Builder: transforma cada Record em um UpdateOperation. isExpert é true se,
    e somente se, previousDegrees estiver ausente ou vazio.
  - Committer: agrupa as operações em lotes de até 25 e aplica cada lote como
    uma transação atômica, com retry e backoff exponencial.

Job coordena os estágios em dois modos: buffered (materializa a tabela em
memória) e streaming (páginas fluem por um canal limitado e os lotes são
gravados à medida que enchem).

O armazenamento é abstraído por Backend; a implementação DynamoDB fica no
pacote dyndb.

Exemplo:

	job := migration.NewJob(table, migration.Options{
		Table: table.Name(),
		Retry: migration.DefaultRetryPolicy(),
	})
	summary, err := job.Run(ctx)
*/
package migration
