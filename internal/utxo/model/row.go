package model

// Stream names one of the two row destinations.
type Stream string

var (
	Inputs  Stream = "inputs"
	Outputs Stream = "outputs"
)

// Row is one extracted record: block time in Unix seconds, canonical address label and value in satoshis.
type Row struct {
	Timestamp int64
	Label     string
	Value     uint64
}

// PositionedRow is a Row tagged with its zero-based position inside its stream.
type PositionedRow struct {
	Position uint64
	Row
}
