// Package generate implements the instance-generation core: it drives the
// recursive construction of model instances from resolved field strategies,
// applying per-field policy overrides, relation links, cycle protection, and
// a bounded retry budget against user-declared validators.
package generate
