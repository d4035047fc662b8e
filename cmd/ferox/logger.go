/*
 * This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0.
 * If a copy of the MPL was not distributed with this file, You can obtain one at
 * https://mozilla.org/MPL/2.0/.
 */

package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/feroxcrypt/ferox"
)

// zerologAdapter satisfies ferox.Logger over a zerolog.Logger writing
// a human-readable console format to stderr, so stdout stays free for
// batch report tables and other command output.
type zerologAdapter struct {
	log zerolog.Logger
}

func newLogger(verbose bool) ferox.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	return zerologAdapter{log: log}
}

func (a zerologAdapter) Debug(msg string, kv ...any) {
	a.log.Debug().Fields(kv).Msg(msg)
}

func (a zerologAdapter) Info(msg string, kv ...any) {
	a.log.Info().Fields(kv).Msg(msg)
}

func (a zerologAdapter) Error(msg string, err error, kv ...any) {
	a.log.Error().Err(err).Fields(kv).Msg(msg)
}
