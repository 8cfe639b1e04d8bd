package constants

import "os"

func GetScoresDir() string {
	path := os.Getenv("SCORES_PATH")
	if path != "" {
		return path
	}
	return "."
}

func GetIndexTable() string {
	table := os.Getenv("INDEX_TABLE")
	if table != "" {
		return table
	}
	return "scoreline-summaries"
}

// labels used when a segno or coda carries no name of its own
const DefaultMarkerLabel = "default"

// backward repeats without an explicit times attribute play twice
const DefaultRepeatTimes = 2

// the expander stops after len(measures) * CeilingFactor indices
const CeilingFactor = 50

// mezzo-forte
const DefaultVelocity = 64

// 4 = quarter note, as in <beat-type>
const DefaultBeatType = 4

const MaxPitch = 127
const MaxVelocity = 127

// dynamo BatchGetItem hard limit
const MaxBatchGet = 100

// dynamo BatchWriteItem hard limit
const MaxBatchWrite = 25
