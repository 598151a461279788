package store

import (
	"fmt"
	"strings"

	"github.com/agenthands/infoase/internal/core/common"
	"github.com/agenthands/infoase/internal/core/model"
)

const idKey = "id"

// storable converts props into values Neo4j accepts as properties: scalars
// and homogeneous scalar lists. Maps and mixed lists are stored as JSON
// text. The bookkeeping keys are dropped.
func storable(props model.Properties, dropKeys ...string) map[string]interface{} {
	out := make(map[string]interface{}, len(props))
	for k, v := range props {
		if k == model.CreatedKey || contains(dropKeys, k) {
			continue
		}
		out[k] = storableValue(v)
	}
	return out
}

func storableValue(v interface{}) interface{} {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float32:
		return float64(t)
	case []interface{}:
		if homogeneous(t) {
			return t
		}
		return common.EncodeJSON(t)
	case []string:
		return t
	default:
		if common.IsScalar(v) {
			return v
		}
		return common.EncodeJSON(v)
	}
}

func homogeneous(list []interface{}) bool {
	kind := ""
	for _, v := range list {
		if v == nil || !common.IsScalar(v) {
			return false
		}
		k := fmt.Sprintf("%T", storableValue(v))
		if kind == "" {
			kind = k
		} else if k != kind {
			return false
		}
	}
	return true
}

// quoteIdentifier backtick-quotes a Cypher identifier verbatim.
func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
