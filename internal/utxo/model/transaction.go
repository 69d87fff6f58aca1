package model

// Transaction is an ordered list of resolved inputs and outputs.
type Transaction struct {
	TxID    string
	Inputs  []TransactionInput
	Outputs []TransactionOutput
}

// TransactionInput describes a spent output as seen from the spending transaction.
type TransactionInput struct {
	Index     uint32
	PrevTxID  string
	PrevVout  uint32
	Value     uint64
	Addresses []string
}

// TransactionOutput represents an output produced by a transaction.
type TransactionOutput struct {
	Index      uint32
	Value      uint64
	ScriptType string
	Addresses  []string
}

// TransactionOutputLookup is the subset of an output needed to connect a later input to it.
type TransactionOutputLookup struct {
	TxID      string
	Index     uint32
	Value     uint64
	Addresses []string
}
