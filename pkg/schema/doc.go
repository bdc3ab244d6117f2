// Package schema defines the structured model descriptors consumed by the
// generation engine: model definitions with declared field order, the
// annotation tree describing each field's type shape, and the summarizer
// that normalizes an annotation plus its constraint metadata into a
// FieldSummary.
package schema
