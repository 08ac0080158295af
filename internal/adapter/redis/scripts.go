package redis

import goredis "github.com/redis/go-redis/v9"

// incrementAndWriteScript allocates the next id from a counter and writes a
// hash under prefix..id in one step.
// KEYS: [1]=counter  ARGV: [1]=key prefix, [2..]=field/value pairs
var incrementAndWriteScript = goredis.NewScript(`
local id = redis.call('INCR', KEYS[1])
redis.call('HSET', ARGV[1] .. id, unpack(ARGV, 2))
return id
`)

// incrementFieldIfExistsScript adds 1 to a hash field only when the hash exists.
// Returns the new value, or -1 when the hash is absent.
// KEYS: [1]=hash  ARGV: [1]=field
var incrementFieldIfExistsScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
return redis.call('HINCRBY', KEYS[1], ARGV[1], 1)
`)
