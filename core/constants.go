package core

const (
	ReplyPong = "PONG"
	ReplyOK   = "OK"

	ErrMsgUnparseable     = "ERR Protocol error: unparseable frame"
	ErrMsgMultibulkLength = "ERR Protocol error: invalid multibulk length"
	ErrMsgBulkLength      = "ERR Protocol error: invalid bulk length"
	ErrMsgFrameTooLarge   = "ERR Protocol error: frame too large"

	// Label used in metrics for verbs outside the dispatch table.
	unknownVerbLabel = "UNKNOWN"
)
