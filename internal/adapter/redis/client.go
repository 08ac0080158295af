package redis

import (
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ClientOptions configures the connection to the store.
type ClientOptions struct {
	Addr    string
	DB      int
	Timeout time.Duration
}

// NewClient creates a go-redis client with bounded dial/read/write timeouts
// and client-side retries disabled. hooks are installed in order.
func NewClient(opts ClientOptions, hooks ...goredis.Hook) *goredis.Client {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         opts.Addr,
		DB:           opts.DB,
		DialTimeout:  opts.Timeout,
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
		MaxRetries:   -1,
	})
	for _, h := range hooks {
		rdb.AddHook(h)
	}
	return rdb
}
