// Package spider answers spider plot queries: it loads the dataset fresh for
// every call and returns the rows that pass the requested filters.
package spider

import (
	"context"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GiorgioRPo/ClinicalDataVisualization/internal/dataset"
	"github.com/GiorgioRPo/ClinicalDataVisualization/internal/metrics"
	"github.com/GiorgioRPo/ClinicalDataVisualization/internal/query"
)

// Options lists the distinct filter values present in the dataset, in the
// order they first appear.
type Options struct {
	Arms       []string `json:"arms"`
	Doses      []int64  `json:"doses"`
	TumorTypes []string `json:"tumor_types"`
}

type Service struct {
	source dataset.CSVFile
}

func New(source dataset.CSVFile) *Service {
	return &Service{source: source}
}

// DatasetPath returns the path of the backing CSV file.
func (s *Service) DatasetPath() string {
	return s.source.Path
}

// Check reports whether the dataset can currently be read.
func (s *Service) Check() error {
	return s.source.Check()
}

// Query parses the filter parameters, loads the dataset and returns the
// matching rows. Invalid parameters are reported before the dataset is read.
func (s *Service) Query(ctx context.Context, params url.Values) ([]dataset.Row, error) {
	filter, err := query.Parse(params)
	if err != nil {
		return nil, err
	}

	table, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	rows := filter.Apply(table.Rows)
	metrics.RowsReturned.Observe(float64(len(rows)))

	undosed := 0
	for _, r := range table.Rows {
		if !r.HasDose {
			undosed++
		}
	}
	if undosed > 0 {
		log.Warn().Int("rows", undosed).Str("dataset", s.source.Path).Msg("rows without a whole-number dose")
	}

	log.Debug().
		Bool("filtered", filter.Active()).
		Int("rows_total", len(table.Rows)).
		Int("rows_returned", len(rows)).
		Msg("spider query")

	return rows, nil
}

// Options loads the dataset and collects the distinct filter values.
func (s *Service) Options(ctx context.Context) (Options, error) {
	table, err := s.load(ctx)
	if err != nil {
		return Options{}, err
	}

	opts := Options{Arms: []string{}, Doses: []int64{}, TumorTypes: []string{}}
	arms := map[string]struct{}{}
	doses := map[int64]struct{}{}
	tumors := map[string]struct{}{}

	for _, r := range table.Rows {
		if _, ok := arms[r.Arm]; !ok && r.Arm != "" {
			arms[r.Arm] = struct{}{}
			opts.Arms = append(opts.Arms, r.Arm)
		}
		if _, ok := doses[r.Dose]; !ok && r.HasDose {
			doses[r.Dose] = struct{}{}
			opts.Doses = append(opts.Doses, r.Dose)
		}
		if _, ok := tumors[r.TumorType]; !ok && r.TumorType != "" {
			tumors[r.TumorType] = struct{}{}
			opts.TumorTypes = append(opts.TumorTypes, r.TumorType)
		}
	}

	return opts, nil
}

func (s *Service) load(ctx context.Context) (*dataset.Table, error) {
	start := time.Now()
	table, err := s.source.Load(ctx)

	status := "ok"
	if err != nil {
		status = "error"
		log.Error().Err(err).Str("dataset", s.source.Path).Msg("load dataset")
	}
	metrics.DatasetLoadLatency.WithLabelValues(status).Observe(time.Since(start).Seconds())

	return table, err
}
