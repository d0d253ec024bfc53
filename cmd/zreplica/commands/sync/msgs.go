package sync

import (
	_ "embed"
	"strings"
)

// Message constants
const (
	MsgShort      = "Bring a target up to date with every newer source snapshot"
	MsgFlagFilter = "Only sync snapshots whose name matches this glob, or a regular expression prefixed with re: (default: sync.filter)"
	MsgFlagPlan   = "Print the sync plan before transferring"
	MsgNothingNew = "%s is up to date with %s\n"
)

// Embedded message files
var (
	//go:embed sync-long.txt
	msgLongRaw string
	MsgLong    = strings.TrimSpace(msgLongRaw)
)
