package emit

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/fixturegen/fixturegen/pkg/schema"
)

// EmitGoFixtures renders generated instances as a compilable Go source file:
// one exported slice of instances per model, values spelled as literals.
// Output is deterministic for equal inputs.
func EmitGoFixtures(pkgName string, model *schema.ModelDef, instances []map[string]any) ([]byte, error) {
	if pkgName == "" {
		pkgName = "fixtures"
	}

	var b strings.Builder
	b.WriteString("// Code generated by fixturegen. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", pkgName)
	if usesNumbers(instances) {
		b.WriteString("import \"encoding/json\"\n\n")
	}

	fmt.Fprintf(&b, "// %sFixtures holds generated %s instances.\n", model.Name, model.QualifiedName())
	fmt.Fprintf(&b, "var %sFixtures = []map[string]any{\n", model.Name)
	for _, instance := range instances {
		b.WriteString("\t")
		writeLiteral(&b, instance, 1)
		b.WriteString(",\n")
	}
	b.WriteString("}\n")
	return []byte(b.String()), nil
}

func usesNumbers(v any) bool {
	switch val := v.(type) {
	case json.Number:
		return true
	case map[string]any:
		for _, item := range val {
			if usesNumbers(item) {
				return true
			}
		}
	case []map[string]any:
		for _, item := range val {
			if usesNumbers(item) {
				return true
			}
		}
	case []any:
		for _, item := range val {
			if usesNumbers(item) {
				return true
			}
		}
	}
	return false
}

func writeLiteral(b *strings.Builder, v any, depth int) {
	indent := strings.Repeat("\t", depth)
	switch val := v.(type) {
	case nil:
		b.WriteString("nil")
	case bool:
		b.WriteString(strconv.FormatBool(val))
	case string:
		b.WriteString(strconv.Quote(val))
	case int:
		b.WriteString(strconv.Itoa(val))
	case int64:
		b.WriteString("int64(" + strconv.FormatInt(val, 10) + ")")
	case float64:
		// Integral floats keep a fractional digit so the literal stays a
		// float64 in the generated source.
		if val == float64(int64(val)) && math.Abs(val) < 1e15 {
			b.WriteString(strconv.FormatFloat(val, 'f', 1, 64))
		} else {
			b.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
		}
	case json.Number:
		b.WriteString("json.Number(" + strconv.Quote(string(val)) + ")")
	case []any:
		if len(val) == 0 {
			b.WriteString("[]any{}")
			return
		}
		b.WriteString("[]any{\n")
		for _, item := range val {
			b.WriteString(indent + "\t")
			writeLiteral(b, item, depth+1)
			b.WriteString(",\n")
		}
		b.WriteString(indent + "}")
	case map[string]any:
		if len(val) == 0 {
			b.WriteString("map[string]any{}")
			return
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("map[string]any{\n")
		for _, k := range keys {
			b.WriteString(indent + "\t" + strconv.Quote(k) + ": ")
			writeLiteral(b, val[k], depth+1)
			b.WriteString(",\n")
		}
		b.WriteString(indent + "}")
	default:
		b.WriteString(strconv.Quote(fmt.Sprintf("%v", val)))
	}
}
