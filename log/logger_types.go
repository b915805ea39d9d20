package log

import (
	"io"
	"sync"
)

const (
	timestampFormat = "02/01/2006 15:04:05"
	spacer          = " | "
)

// Level is a log severity accepted by WriteLevel and the strategy-facing
// logging surface.
type Level uint8

// Log levels in ascending severity
const (
	DebugLvl Level = iota
	InfoLvl
	WarnLvl
	ErrorLvl
)

// Levels flags for each sub logger type
type Levels struct {
	Debug, Info, Warn, Error bool
}

// SubLogger defines an independently switchable logging entity for one
// subsystem
type SubLogger struct {
	name   string
	levels Levels
	output io.Writer
}

var (
	mu         sync.RWMutex
	subLoggers = map[string]*SubLogger{}
)

// Global vars for each core subsystem sub logger
var (
	Global     *SubLogger
	EngineMgr  *SubLogger
	GatewayMgr *SubLogger
	BackTester *SubLogger
	Strategy   *SubLogger
)
