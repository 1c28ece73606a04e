// Package config loads, normalizes, and validates bahaibot configuration data.
//
// It supplies repository defaults (including the bahaidata.org property-ID
// mapping table), expands user paths, reads TOML files, and honours environment
// fallbacks such as WIKIBASE_USERNAME and OPENAI_API_KEY. Dotenv files in the
// working directory are loaded before those fallbacks are consulted.
//
// Always obtain settings through this package so workflows receive sanitized
// paths, canonical identifiers, and clear validation errors.
package config
