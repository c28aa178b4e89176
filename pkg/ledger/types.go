package ledger

import "encoding/json"

// rpcRequest is a JSON-RPC 2.0 request to the ledger daemon.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

// rpcResponse is the daemon's response envelope. Result decoding is delayed
// so each call can unmarshal into its own type.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return e.Message
}

// filter is one predicate of a daemon-side record filter.
type filter struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value any    `json:"value"`
}

// ordersParams selects open orders from the daemon.
type ordersParams struct {
	Filters     []filter `json:"filters"`
	ShowExpired bool     `json:"show_expired"`
	OrderBy     string   `json:"order_by"`
	OrderDir    string   `json:"order_dir"`
}

// feedMessage is one status message of the daemon's event feed.
type feedMessage struct {
	CaughtUp     bool  `json:"caught_up"`
	MessageIndex int64 `json:"message_index"`
	BlockIndex   int64 `json:"block_index"`
}
