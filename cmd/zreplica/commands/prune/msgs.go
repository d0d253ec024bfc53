package prune

import (
	_ "embed"
	"strings"
)

// Message constants
const (
	MsgShort          = "Destroy snapshots beyond the retention policy"
	MsgFlagKeep       = "Retention rule N:PATTERN, keep the N newest snapshots matching PATTERN (repeatable)"
	MsgFlagPolicyFile = "Read retention rules from a TOML or YAML file"
	MsgErrNoRules     = "no retention rules: use --keep, --policy-file or the retention config"
)

// Embedded message files
var (
	//go:embed prune-long.txt
	msgLongRaw string
	MsgLong    = strings.TrimSpace(msgLongRaw)
)
