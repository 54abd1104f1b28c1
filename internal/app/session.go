package app

import (
	"net/http"

	"github.com/redis/go-redis/v9"
)

type sessionKey string

const (
	SessionKeyUserId = sessionKey("userID")
	SessionKeyGuest  = sessionKey("guest")
)

func (s sessionKey) String() string {
	return string(s)
}

func (app *Application) contextGetUserId(r *http.Request) int {
	userId, ok := r.Context().Value(SessionKeyUserId).(int)
	if !ok {
		panic("missing user id from context")
	}

	return userId
}

// migrateSessionData carries session-scoped redis state (seat holds held
// under the old session token) over to the renewed token after login.
func (app *Application) migrateSessionData(r *http.Request, oldSessionId, newSessionId string) error {
	ctx := r.Context()

	holds, err := app.redis.Get(ctx, holdSessionKey(oldSessionId)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil
		}
		return err
	}

	ttl, err := app.redis.TTL(ctx, holdSessionKey(oldSessionId)).Result()
	if err != nil {
		return err
	}

	pipe := app.redis.TxPipeline()
	pipe.Set(ctx, holdSessionKey(newSessionId), holds, ttl)
	pipe.Del(ctx, holdSessionKey(oldSessionId))

	_, err = pipe.Exec(ctx)

	return err
}
