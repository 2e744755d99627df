// Package internal holds token codecs and random material generation shared
// by the goAccount engine. Nothing here is part of the public API.
package internal
