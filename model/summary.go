package model

// ScoreSummary is what the index command stores per imported file.
type ScoreSummary struct {
	ID       string   `dynamodbav:"PK"`
	Path     string   `dynamodbav:"Path"`
	Title    string   `dynamodbav:"Title,omitempty"`
	Composer string   `dynamodbav:"Composer,omitempty"`
	Parts    []string `dynamodbav:"Parts,stringset,omitempty"`
	Notes    int      `dynamodbav:"Notes"`
	Warnings int      `dynamodbav:"Warnings"`
	Length   int      `dynamodbav:"Length"`
}

func Summarize(id, path string, s *Score, warnings []Warning) ScoreSummary {
	sum := ScoreSummary{
		ID:       id,
		Path:     path,
		Title:    s.Metadata.Title,
		Composer: s.Metadata.Composer,
		Notes:    s.NoteCount(),
		Warnings: len(warnings),
		Length:   s.Length(),
	}
	for _, p := range s.Parts {
		sum.Parts = append(sum.Parts, p.ID)
	}
	return sum
}
