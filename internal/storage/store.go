package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/goalseek/internal/config"
	"github.com/san-kum/goalseek/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

var ErrRunNotFound = errors.New("run not found")

// StatesHeader is the column layout of states.csv.
var StatesHeader = []string{"time", "x", "y", "theta", "linear", "angular"}

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Integrator string             `json:"integrator"`
	Controller string             `json:"controller"`
	Start      dynamo.Pose        `json:"start"`
	Goal       dynamo.Goal        `json:"goal"`
	Gains      dynamo.Gains       `json:"gains"`
	Steps      int                `json:"steps"`
	Settled    bool               `json:"settled"`
	SettleTime float64            `json:"settle_time"`
	Metrics    map[string]float64 `json:"metrics"`
}

// NewMetadata describes a finished run of cfg.
func NewMetadata(cfg *config.Config, result *dynamo.Result) RunMetadata {
	return RunMetadata{
		Seed:       cfg.Seed,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Integrator: cfg.Integrator,
		Controller: cfg.Controller,
		Start:      cfg.Start,
		Goal:       cfg.Goal,
		Gains:      cfg.Gains,
		Steps:      result.StepsTaken,
		Settled:    result.Settled,
		SettleTime: result.SettleTime,
		Metrics:    finite(result.Metrics),
	}
}

// encoding/json rejects NaN and Inf.
func finite(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[k] = v
	}
	return out
}

// Save writes metadata.json and states.csv under a fresh run directory and
// returns the run ID.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	now := s.now()
	meta.ID = fmt.Sprintf("run_%s_%s", now.Format("20060102-150405"), uuid.NewString()[:8])
	meta.Timestamp = now
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, statesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteStates(csvFile, result); err != nil {
		return "", fmt.Errorf("write states: %w", err)
	}
	return meta.ID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return ExportJSON(f, v)
}

// WriteStates writes one row per recorded state. The command column holds
// the command applied from that state; the last row has none and gets zeros.
func WriteStates(out io.Writer, result *dynamo.Result) error {
	w := csv.NewWriter(out)
	if err := w.Write(StatesHeader); err != nil {
		return err
	}

	format := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for i, x := range result.States {
		p := dynamo.PoseFromState(x)
		var u dynamo.Control
		if i < len(result.Controls) {
			u = result.Controls[i]
		}
		cmd := dynamo.Command{}
		if len(u) > 0 {
			cmd.Linear = u[0]
		}
		if len(u) > 1 {
			cmd.Angular = u[1]
		}
		row := []string{format(result.Times[i]), format(p.X), format(p.Y), format(p.Theta), format(cmd.Linear), format(cmd.Angular)}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns all readable runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata of %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadResult reads states.csv back into a result. Metrics come from the
// metadata.
func (s *Store) LoadResult(runID string) (*dynamo.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(StatesHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read states of %s: %w", runID, err)
	}

	result := &dynamo.Result{
		Metrics:    meta.Metrics,
		StepsTaken: meta.Steps,
		Settled:    meta.Settled,
		SettleTime: meta.SettleTime,
	}
	if len(records) < 2 {
		return result, nil
	}

	for i, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("states of %s, row %d: %w", runID, i+1, err)
			}
			vals[j] = v
		}
		result.Times = append(result.Times, vals[0])
		result.States = append(result.States, dynamo.State{vals[1], vals[2], vals[3]})
		result.Controls = append(result.Controls, dynamo.Control{vals[4], vals[5]})
	}
	// the last row's command is padding
	result.Controls = result.Controls[:len(result.Controls)-1]
	return result, nil
}

// CopyStates streams the raw states.csv of a run.
func (s *Store) CopyStates(runID string, w io.Writer) error {
	f, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}
