package metadata

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Codec chunks serialized values across numbered keys so they fit the
// archive's per-value length limit. A value stored under prefix "retur"
// becomes pairs ("retur0", chunk), ("retur1", chunk), ...
//
// Flags are the degenerate case handled by Pairs.SetFlag/HasFlag: a prefix
// with no numeric suffix holding "true" or "false".
type Codec struct {
	limit int
}

// NewCodec creates a codec for the given per-value character limit.
func NewCodec(limit int) Codec {
	if limit < 1 {
		panic(fmt.Sprintf("metadata: invalid value limit %d", limit))
	}
	return Codec{limit: limit}
}

// Encode serializes v and emits ordered chunk pairs under the key prefix.
func (c Codec) Encode(keyPrefix string, v any) (Pairs, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("metadata: encode %q: %w", keyPrefix, err)
	}

	chunks := splitChunks(string(raw), c.limit)
	pairs := make(Pairs, 0, len(chunks))
	for i, chunk := range chunks {
		pairs = append(pairs, Pair{Key: keyPrefix + strconv.Itoa(i), Value: chunk})
	}
	return pairs, nil
}

// Decode gathers every chunk pair under the key prefix, reassembles them in
// numeric suffix order, and deserializes into v. Returns false when no chunk
// exists for the prefix.
func (c Codec) Decode(keyPrefix string, pairs Pairs, v any) (bool, error) {
	type chunk struct {
		index int
		value string
	}
	var chunks []chunk
	for _, pair := range pairs {
		suffix, ok := chunkSuffix(pair.Key, keyPrefix)
		if !ok {
			continue
		}
		chunks = append(chunks, chunk{index: suffix, value: pair.Value})
	}
	if len(chunks) == 0 {
		return false, nil
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].index < chunks[j].index })

	var sb strings.Builder
	for _, ch := range chunks {
		sb.WriteString(ch.value)
	}
	if err := json.Unmarshal([]byte(sb.String()), v); err != nil {
		return false, fmt.Errorf("metadata: decode %q: %w", keyPrefix, err)
	}
	return true, nil
}

// Replace removes all existing chunk pairs under the prefix and re-encodes v
// in their place. The new chunks take the position of the first removed pair
// so overall ordering stays stable; with no prior chunks they are appended.
func (c Codec) Replace(keyPrefix string, pairs Pairs, v any) (Pairs, error) {
	encoded, err := c.Encode(keyPrefix, v)
	if err != nil {
		return nil, err
	}

	insertAt := -1
	kept := make(Pairs, 0, len(pairs)+len(encoded))
	for _, pair := range pairs {
		if hasChunkKey(pair.Key, keyPrefix) {
			if insertAt == -1 {
				insertAt = len(kept)
			}
			continue
		}
		kept = append(kept, pair)
	}
	if insertAt == -1 {
		return append(kept, encoded...), nil
	}

	out := make(Pairs, 0, len(kept)+len(encoded))
	out = append(out, kept[:insertAt]...)
	out = append(out, encoded...)
	out = append(out, kept[insertAt:]...)
	return out, nil
}

// splitChunks splits s into segments of at most limit characters, never
// splitting inside a multi-byte character.
func splitChunks(s string, limit int) []string {
	runes := []rune(s)
	if len(runes) <= limit {
		return []string{s}
	}
	chunks := make([]string, 0, (len(runes)+limit-1)/limit)
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

func chunkSuffix(key, prefix string) (int, bool) {
	rest, found := strings.CutPrefix(key, prefix)
	if !found || rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func hasChunkKey(key, prefix string) bool {
	_, ok := chunkSuffix(key, prefix)
	return ok
}
