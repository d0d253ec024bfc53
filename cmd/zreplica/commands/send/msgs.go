package send

import (
	_ "embed"
	"strings"
)

// Message constants
const (
	MsgShort = "Replicate one snapshot to a target dataset"
)

// Embedded message files
var (
	//go:embed send-long.txt
	msgLongRaw string
	MsgLong    = strings.TrimSpace(msgLongRaw)

	//go:embed send-example.txt
	msgExampleRaw string
	MsgExample    = strings.TrimSpace(msgExampleRaw)
)
