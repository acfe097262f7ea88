package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/goalseek/internal/dynamo"
)

type ExportData struct {
	RunMetadata
	Times    []float64        `json:"times"`
	Poses    []dynamo.Pose    `json:"poses"`
	Commands []dynamo.Command `json:"commands"`
}

// NewExport combines a run's metadata with its full trajectory.
func NewExport(meta RunMetadata, result *dynamo.Result) ExportData {
	data := ExportData{
		RunMetadata: meta,
		Times:       result.Times,
		Poses:       make([]dynamo.Pose, len(result.States)),
		Commands:    make([]dynamo.Command, len(result.Controls)),
	}
	for i, s := range result.States {
		data.Poses[i] = dynamo.PoseFromState(s)
	}
	for i, c := range result.Controls {
		if len(c) >= 2 {
			data.Commands[i] = dynamo.Command{Linear: c[0], Angular: c[1]}
		}
	}
	return data
}

func ExportJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
