package util

import (
	"time"

	"github.com/charmbracelet/log"
)

// Trace 记录耗时，用法：defer util.Trace("batch")()
func Trace(msg string) func() {
	start := time.Now()
	log.Debug("start", "op", msg)
	return func() {
		log.Debug("done", "op", msg, "elapsed", time.Since(start).Round(time.Millisecond))
	}
}
