package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/raywall/dynamodb-migrator/pkg/config"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrLockHeld indica que outra execução já detém o lock da tabela.
	ErrLockHeld = errors.New("lock: migration already running for this table")
	// ErrLockLost indica que o lock expirou (ou foi tomado) antes do Release.
	ErrLockLost = errors.New("lock: lock expired before release")
)

// releaseScript só apaga a chave se o valor ainda for o nosso token.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// Client é o subconjunto do go-redis usado pelo lock (permite Mocking).
type Client interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// Locker garante uma única migração por tabela.
type Locker interface {
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
}

// RedisLock é um lock com expiração baseado em SET NX.
type RedisLock struct {
	client Client
	key    string
	ttl    time.Duration
	token  string
}

// NewRedisLock cria o lock para a chave informada.
func NewRedisLock(client Client, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{
		client: client,
		key:    key,
		ttl:    ttl,
		token:  uuid.NewString(),
	}
}

// NewRedisClient cria o cliente go-redis a partir da configuração.
func NewRedisClient(conf config.LockConf) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.RedisAddr,
		Password: conf.RedisPassword,
		DB:       conf.RedisDB,
	})
}

// Key retorna a chave do lock: a configurada ou uma derivada da tabela.
func Key(conf config.LockConf, table string) string {
	if conf.Key != "" {
		return conf.Key
	}
	return "dynamodb-migrator:lock:" + table
}

func (l *RedisLock) Acquire(ctx context.Context) error {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("lock: erro no redis: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w (%s)", ErrLockHeld, l.key)
	}
	return nil
}

func (l *RedisLock) Release(ctx context.Context) error {
	n, err := l.client.Eval(ctx, releaseScript, []string{l.key}, l.token).Int64()
	if err != nil {
		return fmt.Errorf("lock: erro no redis: %w", err)
	}
	if n == 0 {
		return ErrLockLost
	}
	return nil
}

// Noop é o Locker usado quando nenhum Redis está configurado.
type Noop struct{}

func (Noop) Acquire(context.Context) error { return nil }
func (Noop) Release(context.Context) error { return nil }
