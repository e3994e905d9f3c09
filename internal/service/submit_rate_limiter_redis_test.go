package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// scriptedRedis devuelve el contador configurado y guarda la ultima llamada a EVAL.
type scriptedRedis struct {
	sent   int64
	err    error
	calls  int
	script string
	keys   []string
	args   []interface{}
}

func (s *scriptedRedis) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	s.calls++
	s.script, s.keys, s.args = script, keys, args
	cmd := redis.NewCmd(ctx)
	if s.err != nil {
		cmd.SetErr(s.err)
	} else {
		cmd.SetVal(s.sent)
	}
	return cmd
}

func TestRedisSubmitRateLimiter(t *testing.T) {
	cases := []struct {
		name      string
		sessionID string
		sent      int64
		err       error
		want      bool
		wantCalls int
	}{
		{name: "primer mensaje de la ventana", sessionID: "0193a1b2-session", sent: 1, want: true, wantCalls: 1},
		{name: "ultimo mensaje permitido", sessionID: "0193a1b2-session", sent: 5, want: true, wantCalls: 1},
		{name: "sesion sobre el cupo", sessionID: "0193a1b2-session", sent: 6, want: false, wantCalls: 1},
		{name: "redis caido deja pasar", sessionID: "0193a1b2-session", err: errors.New("connection refused"), want: true, wantCalls: 1},
		{name: "sesion vacia no llega a redis", sessionID: "  ", want: false, wantCalls: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rdb := &scriptedRedis{sent: tc.sent, err: tc.err}
			l := newRedisSubmitRateLimiter(rdb, 90*time.Second, 5, zap.NewNop())

			if got := l.Allow(tc.sessionID); got != tc.want {
				t.Fatalf("Allow(%q) = %v, want %v", tc.sessionID, got, tc.want)
			}
			if rdb.calls != tc.wantCalls {
				t.Fatalf("expected %d EVAL calls, got %d", tc.wantCalls, rdb.calls)
			}
		})
	}
}

func TestRedisSubmitRateLimiter_KeyAndWindow(t *testing.T) {
	rdb := &scriptedRedis{sent: 1}
	l := newRedisSubmitRateLimiter(rdb, 90*time.Second, 5, nil)

	l.Allow(" 0193a1b2-session ")

	if rdb.script != submitWindowScript {
		t.Fatalf("expected the fixed window script")
	}
	if len(rdb.keys) != 1 || rdb.keys[0] != "lumora:submit:0193a1b2-session" {
		t.Fatalf("unexpected key %v", rdb.keys)
	}
	if len(rdb.args) != 1 || rdb.args[0] != 90 {
		t.Fatalf("expected window of 90 seconds, got %v", rdb.args)
	}
}

func TestRedisSubmitRateLimiter_Defaults(t *testing.T) {
	l := newRedisSubmitRateLimiter(&scriptedRedis{}, 0, 0, nil)
	if l.window != time.Minute || l.maxMessages != 1 {
		t.Fatalf("unexpected defaults window=%s max=%d", l.window, l.maxMessages)
	}
	if NewRedisSubmitRateLimiter(nil, time.Minute, 3, nil) != nil {
		t.Fatalf("expected nil limiter without a redis client")
	}

	var unset *redisSubmitRateLimiter
	if !unset.Allow("s1") {
		t.Fatalf("expected nil limiter to allow")
	}
}
