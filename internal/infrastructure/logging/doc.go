// Package logging provides structured logging using uber/zap.
//
// Production mode emits JSON for machine parsing; development mode
// emits colored console output. Level and mode come from the engine
// configuration (LOG_LEVEL / LOG_DEV) via FromOptions.
package logging
