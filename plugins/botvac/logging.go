package botvac

import (
	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"
)

func loggerOrDiscard(logger log.Interface) log.Interface {
	if logger == nil {
		return &log.Logger{Handler: discard.Default}
	}
	return logger
}
