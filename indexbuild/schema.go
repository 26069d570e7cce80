// Package indexbuild builds the sharded prefix search index from the
// packer's accepted tracks: tokenization, shard assignment bounded by a
// byte ceiling, and master index emission.
package indexbuild

// Preview is the redundant, denormalized record embedded in every
// posting that references a track.
type Preview struct {
	Title      string `json:"t"`
	Artist     string `json:"a"`
	OriginalID int    `json:"i"`
	SuperID    int    `json:"s"`
}

// Shard maps a lowercased token to its ordered posting list.
type Shard map[string][]Preview

// MasterIndex is the top-level artifact describing every shard.
type MasterIndex struct {
	TotalRecords int            `json:"totalRecords"`
	Words        []string       `json:"words"`
	WordToChunk  map[string]int `json:"wordToChunkMap"`
	BuildTimeMs  int64          `json:"buildTime"`
	LastBuiltISO string         `json:"lastBuilt"`
}
