package utils

import (
	"fmt"
	"lrbs/src/config"
)

// WithSuffix namespaces a queue or topic name per environment so local,
// test and production workers never drain each other's queues.
func WithSuffix(name string) string {
	env := config.API_ENV
	if env == "" {
		return name
	}
	return fmt.Sprintf("%s_%s", name, env)
}
