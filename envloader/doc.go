// Copyright 2025 Raywall Malheiros de Souza
// Licensed under the Mozilla Public License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.mozilla.org/en-US/MPL/2.0/
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Package envloader carrega variáveis de ambiente diretamente para campos de
// uma struct Go, usando as tags `env` e `envDefault`.
//
// Visão Geral:
// O `envloader` é a última camada de configuração da migração: o arquivo
// YAML (opcional) define a base e o ambiente sempre prevalece. Para isso o
// pacote oferece três modos:
//   - Load: aplica o ambiente e, para campos ainda zerados, o `envDefault`.
//   - Defaults: aplica somente os valores `envDefault`.
//   - Override: aplica somente variáveis definidas, sem tocar nos demais campos.
//
// Tipos suportados: string, int*, uint*, bool, float* e time.Duration, além de
// structs aninhadas (incluindo ponteiros para structs).
//
// Variáveis definidas com valor vazio são ignoradas, exceto quando a tag
// traz a opção `allowempty` (ex: `env:"DYNAMODB_SORT_KEY,allowempty"`): nesse
// caso o campo string recebe "" mesmo havendo `envDefault`.
//
// Exemplo Básico:
//
//	type RetryConf struct {
//		BaseDelay   time.Duration `env:"RETRY_BASE_DELAY" envDefault:"1s"`
//		MaxAttempts int           `env:"RETRY_MAX_ATTEMPTS" envDefault:"10"`
//	}
//
//	var cfg RetryConf
//	if err := envloader.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
// Exemplo com YAML como base:
//
//	envloader.Defaults(&cfg)           // 1. valores padrão
//	yaml.Unmarshal(data, &cfg)         // 2. arquivo sobrescreve os padrões
//	envloader.Override(&cfg)           // 3. ambiente sobrescreve o arquivo
package envloader
