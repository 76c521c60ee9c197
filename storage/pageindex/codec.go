package pageindex

import (
	"encoding/binary"
	"encoding/json"

	"github.com/latchdb/tablekernel/storage"
)

// encodeKey produces a big-endian encoding of a row key, so badger's
// byte-lexicographic key order matches numeric key order.
func encodeKey(key int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(key))
	return buf
}

func decodeKey(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}

// encodeRowValues serializes a row's column values. JSON is used rather
// than gob because row values are heterogeneous interface{} slices of
// plain scalar types (string/float64/bool/nil) with no fixed schema to
// register ahead of time.
func encodeRowValues(values []interface{}) ([]byte, error) {
	return json.Marshal(values)
}

func decodeRowValues(b []byte) ([]interface{}, error) {
	var values []interface{}
	if err := json.Unmarshal(b, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func rowToBytes(row *storage.Row) ([]byte, error) {
	return encodeRowValues(row.Values)
}

func bytesToRow(key int64, b []byte) (*storage.Row, error) {
	values, err := decodeRowValues(b)
	if err != nil {
		return nil, err
	}
	return storage.NewRow(key, values), nil
}
