package pagination

import (
	"fmt"
	"strconv"
)

const seqTokenPrefix = "seq"

// EncodeSeqToken creates a continuation token pointing just past seq.
func EncodeSeqToken(seq int64) string {
	return EncodeMultiFieldToken(seqTokenPrefix, strconv.FormatInt(seq, 10))
}

// DecodeSeqToken parses a token created by EncodeSeqToken.
func DecodeSeqToken(token string) (int64, error) {
	parts, err := DecodeMultiFieldToken(token)
	if err != nil {
		return 0, err
	}
	if len(parts) != 2 || parts[0] != seqTokenPrefix {
		return 0, fmt.Errorf("invalid pagination token format (fields)")
	}
	seq, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || seq <= 0 {
		return 0, fmt.Errorf("invalid pagination token format (seq parse)")
	}
	return seq, nil
}
