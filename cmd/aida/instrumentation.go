package main

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/aida-voice/aida-core/cmd/aida"

var logger = otelslog.NewLogger(scopeName)
