package model

type Notes = []uint8

// Chord is the set of pitches sounding in one part from Tick until the next
// onset or release.
type Chord struct {
	Tick   int
	Notes  Notes
	PartID string

	// every pitch in the chord started at Tick
	FormedByOnset bool
}

type ReducedEvent struct {
	Tick      int
	IsNoteOff bool
	Note      uint8
}
