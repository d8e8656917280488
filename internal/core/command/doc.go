// Package command turns decoded request frames into typed commands and
// runs them against the storage backend.
//
// A request is an Array of non-null BulkStrings whose first element is
// the command name. Names are matched case-insensitively. Parse reports
// malformed requests as *Error values; Dispatch renders those as
// "-ERR ..." replies so the connection can continue.
//
// Supported commands:
//
//	GET key                      SET key value
//	HGET key field               HMGET key field [field ...]
//	HMSET key field value [...]  HGETALL key
//	HDEL key field [field ...]   HLEN key
//	SADD key member [...]        SMEMBERS key
//	SISMEMBER key member         SREM key member [...]
//	SCARD key                    DEL key [key ...]
//	EXISTS key [key ...]         DBSIZE
//	PING [message]               ECHO message
//	HELLO [protover]             QUIT
//
// HGETALL and SMEMBERS replies are sorted by field or member so that
// replies are stable across runs.
package command
