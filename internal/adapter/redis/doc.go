// Package redis implements the Redis-backed Store adapter and the survey repository.
//
// Store owns the go-redis client, its availability sentinel and the typed hash/counter operations.
// SurveyRepo encodes the key layout (next_survey_id, survey:{id}) on top of Store.
// Multi-step writes use Lua scripts so each one is atomic on the server.
package redis
