package model

type ImportResponse struct {
	Score    *Score    `json:"score" yaml:"score" cbor:"score"`
	Warnings []Warning `json:"warnings" yaml:"warnings" cbor:"warnings"`
}

type ExpandedPart struct {
	PartID string `json:"part_id" yaml:"part_id" cbor:"part_id"`
	// measure numbers in playback order
	Measures []string `json:"measures" yaml:"measures" cbor:"measures"`
	// zero-based source indices in playback order
	Indices []int `json:"indices" yaml:"indices" cbor:"indices"`
}

type ExpandResponse struct {
	Parts []ExpandedPart `json:"parts" yaml:"parts" cbor:"parts"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
