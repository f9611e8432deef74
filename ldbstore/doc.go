// Package ldbstore keeps snapshots of a cfr.Table on disk in a LevelDB
// database, one record per information set.
//
// Unlike a gzip checkpoint, a store can be queried for a single information
// set without loading the whole table into memory, which makes it suitable
// for serving processes with tables larger than memory.
package ldbstore
