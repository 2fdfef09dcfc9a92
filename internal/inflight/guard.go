// Package inflight не дает повторному клику запустить то же действие, пока первое не завершилось.
package inflight

import (
	"strings"

	"golang.org/x/sync/singleflight"
)

type Guard struct {
	group singleflight.Group
}

func New() *Guard {
	return &Guard{}
}

// Do выполняет fn один раз на ключ; одновременные дубли получают тот же результат и shared=true.
func (g *Guard) Do(key string, fn func() (interface{}, error)) (v interface{}, err error, shared bool) {
	return g.group.Do(key, fn)
}

// Key собирает ключ из сессии, действия и цели.
func Key(sessionID, action string, target ...string) string {
	parts := append([]string{sessionID, action}, target...)
	return strings.Join(parts, ":")
}
