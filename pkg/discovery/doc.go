// Package discovery loads model definitions from declarative YAML/JSON
// documents and imported OpenAPI 3 component schemas, applies include and
// exclude filters over qualified model names, and reports structural
// problems a generation run would trip over.
package discovery
