package credstore

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Shared codecs; both are safe for concurrent use in the EncodeAll /
// DecodeAll mode.
var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

// encodeMeta serializes metadata as zstd-compressed JSON, the blob format
// stored next to each sealed secret.
func encodeMeta(m Meta) ([]byte, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return zstdEncoder.EncodeAll(raw, nil), nil
}

// decodeMeta is the inverse of encodeMeta. An empty blob yields zero
// metadata rather than an error, so rows written before metadata existed
// still load.
func decodeMeta(blob []byte) (Meta, error) {
	if len(blob) == 0 {
		return Meta{}, nil
	}
	raw, err := zstdDecoder.DecodeAll(blob, nil)
	if err != nil {
		return Meta{}, fmt.Errorf("decompress metadata: %w", err)
	}
	var m Meta
	if err := json.Unmarshal(raw, &m); err != nil {
		return Meta{}, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return m, nil
}
