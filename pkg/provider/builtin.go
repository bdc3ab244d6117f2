package provider

import (
	"fmt"

	"github.com/fixturegen/fixturegen/pkg/schema"
)

// RegisterBuiltins installs the built-in provider set into a registry.
// The registry must be empty of conflicting registrations; duplicates are
// configuration errors.
func RegisterBuiltins(r *Registry) error {
	type entry struct {
		typeID string
		format string
		name   string
		fn     Func
	}

	entries := []entry{
		{string(schema.KindInt), "", "number.int", Numeric},
		{string(schema.KindFloat), "", "number.float", Numeric},
		{string(schema.KindBool), "", "number.bool", Numeric},
		{string(schema.KindDecimal), "", "number.decimal", Numeric},
		{string(schema.KindBytes), "", "bytes", Bytes},

		{string(schema.KindString), "", "string.plain", String},
		{string(schema.KindString), "email", "string.email", Email},
		{string(schema.KindString), "url", "string.url", URL},
		{string(schema.KindString), "uri", "string.uri", URL},
		{string(schema.KindString), "hostname", "string.hostname", Hostname},
		{string(schema.KindString), "ipv4", "string.ipv4", IPv4},
		{string(schema.KindString), "ipv6", "string.ipv6", IPv6},
		{string(schema.KindString), "phone", "string.phone", Phone},
		{string(schema.KindString), "password", "string.password", Password},
		{string(schema.KindString), "secret", "string.secret", Secret},
		{string(schema.KindString), "slug", "string.slug", Slug},
		{string(schema.KindString), "name", "string.name", Name},
		{string(schema.KindString), "path", "string.path", FilePath},
		{string(schema.KindString), "uuid", "id.uuid", UUID},
		{string(schema.KindString), "identifier", "id.identifier", Identifier},
		{string(schema.KindString), "date-time", "time.datetime", DateTime},
		{string(schema.KindString), "date", "time.date", Date},
		{string(schema.KindString), "time", "time.time", TimeOfDay},
		{string(schema.KindString), "duration", "time.duration", Duration},
	}

	for _, e := range entries {
		if _, err := r.Register(e.typeID, e.fn, RegisterOptions{Format: e.format, Name: e.name}); err != nil {
			return fmt.Errorf("register builtin %s: %w", e.name, err)
		}
	}
	return nil
}

// NewBuiltinRegistry returns a registry pre-populated with the built-in
// provider set.
func NewBuiltinRegistry() (*Registry, error) {
	r := NewRegistry()
	if err := RegisterBuiltins(r); err != nil {
		return nil, err
	}
	return r, nil
}
