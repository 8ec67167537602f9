// Package source implements upstream price data sources.
//
// A Source produces one price observation per call. The HTTP source issues
// a GET request and extracts a numeric field from the JSON response body by
// gjson path, so differently shaped upstream payloads only differ in config.
package source
