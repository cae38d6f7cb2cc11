package wsspeech

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/aida-voice/aida-core/core/texttospeech/wsspeech"

var logger = otelslog.NewLogger(scopeName)
