package experiments

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Writer dumps trial records and summaries as CSV files under a
// timestamped run directory.
type Writer struct {
	baseDir string
}

func NewWriter(root string) (*Writer, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	baseDir := filepath.Join(root, timestamp)
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	return &Writer{baseDir: baseDir}, nil
}

func (w *Writer) BaseDir() string { return w.baseDir }

func (w *Writer) WriteTrialRecords(policy string, records []TrialRecord) error {
	path := filepath.Join(w.baseDir, policy+"_trials.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create trial records file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	header := []string{"trial", "cost", "steps", "reached_goal", "duration"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write trial records header: %w", err)
	}
	for _, record := range records {
		row := []string{
			strconv.Itoa(record.Trial),
			strconv.FormatFloat(record.Cost, 'g', -1, 64),
			strconv.Itoa(record.Steps),
			strconv.FormatBool(record.ReachedGoal),
			record.Duration.String(),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write trial record row: %w", err)
		}
	}
	return nil
}

func (w *Writer) WriteSummaries(summaries []Summary) error {
	path := filepath.Join(w.baseDir, "summaries.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summaries file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	header := []string{"policy", "trials", "mean_cost", "stddev_cost", "goal_rate", "mean_steps", "duration"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write summaries header: %w", err)
	}
	for _, s := range summaries {
		row := []string{
			s.Policy,
			strconv.Itoa(s.Trials),
			strconv.FormatFloat(s.MeanCost, 'g', -1, 64),
			strconv.FormatFloat(s.StddevCost, 'g', -1, 64),
			strconv.FormatFloat(s.GoalRate, 'g', -1, 64),
			strconv.FormatFloat(s.MeanSteps, 'g', -1, 64),
			s.Duration.String(),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	return nil
}
