// Package uniuri generates the random identifiers of portal records,
// prefix_fragment with a base-36 fragment read from crypto/rand.
package uniuri
