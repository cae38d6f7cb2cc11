package deepgram

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/aida-voice/aida-core/core/speechtotext/deepgram"

var logger = otelslog.NewLogger(scopeName)
