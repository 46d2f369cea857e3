// Package archive persists received event envelopes to PostgreSQL for
// audit and offline analysis. It is optional: syncd only starts it when
// archive.enabled is set, and the sync core is unaware of it beyond the
// event tap.
package archive
