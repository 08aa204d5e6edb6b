// Package store is a small persistent store with two kinds of data:
// a scalar map (key -> value) and a list map (name -> values).
//
// Each map is kept in its own file and the file is re-written in full,
// atomically, on every change to that map. After Set or Append returns
// nil, the file on disk matches memory.
//
// # Basic Usage
//
//	s := store.Open(&store.Store{Dir: "."})
//	if err := s.Set("user", "bob"); err != nil {
//	    // *store.WriteFailure
//	}
//	err = s.Append("tasks", "buy-milk")
//	snap := s.Snapshot()
//	for _, k := range snap.Keys() {
//	    fmt.Printf("%s: %s\n", k, snap.Scalars[k])
//	}
//
// # File Formats
//
// The file name picks the encoding: ".yaml" and ".yml" files are YAML,
// anything else is JSON. A trailing ".gz", ".zst" or ".br" compresses
// the file, e.g. "kv_store.json.zst".
//
// Files that exist but can't be read or decoded don't fail Open. That
// map starts empty and the problem is reported as *LoadAnomaly via
// Store.OnLoadAnomaly and Store.Anomalies().
package store
