package store

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"
)

// sortKeyMapping maps public sort-field names to storage attribute names.
var sortKeyMapping = map[string]string{
	"createTime":  "create_time",
	"uploadTime":  "upload_time",
	"beginTime":   "begin_time",
	"endTime":     "end_time",
	"likedNb":     "liked_nb",
	"replyNb":     "reply_nb",
	"photoNb":     "photo_nb",
	"accessLevel": "access_level",
	"name":        "name",
}

// ConvertSortKey maps one public sort-field name to its storage attribute
// name, preserving a leading "-" descending marker. Unknown keys pass
// through unchanged; a warning is logged since the permissive policy can
// mask caller typos.
func ConvertSortKey(key string) string {
	desc := strings.HasPrefix(key, "-")
	bare := strings.TrimPrefix(key, "-")
	mapped, ok := sortKeyMapping[bare]
	if !ok {
		mapped = bare
		if _, isStorage := reverseLookup(bare); !isStorage {
			log.Warn().Str("sortKey", bare).Msg("Unknown sort key passed through unmapped")
		}
	}
	if desc {
		return "-" + mapped
	}
	return mapped
}

func reverseLookup(name string) (string, bool) {
	for pub, storage := range sortKeyMapping {
		if storage == name {
			return pub, true
		}
	}
	return "", false
}

// ConvertSortKeys maps an ordered list of public sort-field names.
func ConvertSortKeys(keys []string) []string {
	converted := make([]string, len(keys))
	for i, k := range keys {
		converted[i] = ConvertSortKey(k)
	}
	return converted
}

// compareAttrs orders two attribute values of the same column: numbers
// numerically, strings lexicographically. Missing attributes sort first.
func compareAttrs(a, b types.AttributeValue) int {
	switch av := a.(type) {
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		if !ok {
			return 1
		}
		af, _ := strconv.ParseFloat(av.Value, 64)
		bf, _ := strconv.ParseFloat(bv.Value, 64)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		if !ok {
			return 1
		}
		return strings.Compare(av.Value, bv.Value)
	case nil:
		if b == nil {
			return 0
		}
		return -1
	default:
		if b == nil {
			return 1
		}
		return 0
	}
}

// OrderRows sorts rows by the given storage-name sort keys, applied as a
// composite tie-break chain; a "-" prefix means descending.
func OrderRows(rows []Row, sortKeys []string) {
	if len(sortKeys) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range sortKeys {
			desc := strings.HasPrefix(key, "-")
			attr := strings.TrimPrefix(key, "-")
			c := compareAttrs(rows[i][attr], rows[j][attr])
			if c == 0 {
				continue
			}
			if desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// FilterRows applies the uniform list contract shared by every projection
// read: order by the (public-name) sort keys, filter by exact access-level
// match after ordering, then slice [startIndex, startIndex+nb) over the
// filtered rows. A nil nb means unbounded from startIndex onward. The page
// boundary is computed only over matching rows; callers must not assume the
// pre-filter row count.
func FilterRows(rows []Row, sortKeys []string, nb *int, accessLevel string, startIndex int) ([]Row, error) {
	if nb != nil && *nb < 0 {
		return nil, fmt.Errorf("nb must be non-negative, got %d", *nb)
	}
	ordered := make([]Row, len(rows))
	copy(ordered, rows)
	OrderRows(ordered, ConvertSortKeys(sortKeys))

	filtered := ordered
	if accessLevel != "" {
		filtered = filtered[:0:0]
		for _, row := range ordered {
			if attrString(row, "access_level") == accessLevel {
				filtered = append(filtered, row)
			}
		}
	}

	if startIndex >= len(filtered) {
		return nil, nil
	}
	filtered = filtered[startIndex:]
	if nb != nil && *nb < len(filtered) {
		filtered = filtered[:*nb]
	}
	return filtered, nil
}
