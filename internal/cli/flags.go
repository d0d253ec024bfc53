package cli

import (
	"github.com/spf13/cobra"
)

// TransferFlags are the flags of commands that move streams between
// datasets. Each one overrides its configuration key when given.
type TransferFlags struct {
	BWLimit     string
	Pipes       []string
	SendOpts    []string
	ReceiveOpts []string
}

// Register adds the transfer flags to cmd.
func (t *TransferFlags) Register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&t.BWLimit, "bwlimit", "", MsgFlagBWLimit)
	flags.StringArrayVar(&t.Pipes, "pipe", nil, MsgFlagPipe)
	flags.StringArrayVar(&t.SendOpts, "send-opt", nil, MsgFlagSendOpt)
	flags.StringArrayVar(&t.ReceiveOpts, "recv-opt", nil, MsgFlagRecvOpt)
}

// Overrides maps the flags set on cmd to configuration keys.
func (t *TransferFlags) Overrides(cmd *cobra.Command) map[string]interface{} {
	overrides := make(map[string]interface{})
	flags := cmd.Flags()
	if flags.Changed("bwlimit") {
		overrides["transfer.bwlimit"] = t.BWLimit
	}
	if flags.Changed("pipe") {
		overrides["transfer.pipes"] = t.Pipes
	}
	if flags.Changed("send-opt") {
		overrides["send.options"] = t.SendOpts
	}
	if flags.Changed("recv-opt") {
		overrides["receive.options"] = t.ReceiveOpts
	}
	return overrides
}
