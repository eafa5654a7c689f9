package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"gallery-twin/internal/domain"
	"gallery-twin/internal/observability"
)

// maxDwellSample is the upper bound on a single view duration. Pairs longer
// than this are treated as abandoned tabs, not engagement, and excluded
// from the mean.
const maxDwellSample = time.Hour

// AnalyticsService derives engagement metrics from the session, event, and
// answer stores. Every computation is a pure read: the service holds no
// state beyond its repositories, tolerates empty datasets, and may run
// concurrently with writes (results are a point-in-time snapshot).
type AnalyticsService struct {
	stats    domain.AnalyticsRepository
	exhibits domain.ExhibitRepository
}

func NewAnalyticsService(stats domain.AnalyticsRepository, exhibits domain.ExhibitRepository) *AnalyticsService {
	return &AnalyticsService{stats: stats, exhibits: exhibits}
}

// ExhibitDwellStat reports viewing time for one exhibit. MeanSeconds is nil
// when no valid start/end pair exists, which is distinct from a mean of
// zero.
type ExhibitDwellStat struct {
	ExhibitID   int64    `json:"exhibit_id"`
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	SampleCount int      `json:"sample_count"`
	MeanSeconds *float64 `json:"mean_seconds"`
}

// ValueCount is one bucket of a frequency table.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// LikertStats carries the extra aggregates computed for Likert questions.
// Histogram always spans the full 1..N scale, including empty buckets.
type LikertStats struct {
	Mean      float64 `json:"mean"`
	Histogram []int   `json:"histogram"`
}

// QuestionDistribution is the frequency table for one question, ordered by
// value so repeated runs produce identical, diff-friendly output.
type QuestionDistribution struct {
	QuestionID    int64               `json:"question_id"`
	QuestionText  string              `json:"question_text"`
	QuestionType  domain.QuestionType `json:"question_type"`
	ResponseCount int                 `json:"response_count"`
	Counts        []ValueCount        `json:"counts"`
	Likert        *LikertStats        `json:"likert,omitempty"`
}

// Dashboard is the one-call aggregate consumed by the operator view. A
// failure in any sub-metric fails the whole call; partial results never
// mask a broken aggregation.
type Dashboard struct {
	TotalSessions       int64                  `json:"total_sessions"`
	CompletedSessions   int64                  `json:"completed_sessions"`
	CompletionRate      float64                `json:"completion_rate"`
	AverageDwellSeconds *float64               `json:"average_dwell_seconds"`
	ExhibitDwellTimes   []ExhibitDwellStat     `json:"exhibit_dwell_times"`
	SelfEval            []QuestionDistribution `json:"self_eval"`
	Feedback            []QuestionDistribution `json:"feedback"`
}

// TotalSessions counts sessions, optionally restricted to a time window.
func (s *AnalyticsService) TotalSessions(ctx context.Context, window domain.TimeWindow) (int64, error) {
	return s.stats.CountSessions(ctx, window)
}

// CompletedSessions counts sessions flagged as having finished the visit.
func (s *AnalyticsService) CompletedSessions(ctx context.Context, window domain.TimeWindow) (int64, error) {
	return s.stats.CountCompletedSessions(ctx, window)
}

// CompletionRate returns completed/total as a fraction in [0, 1]. Zero
// sessions yields a rate of 0, not a division error.
func (s *AnalyticsService) CompletionRate(ctx context.Context, window domain.TimeWindow) (float64, error) {
	total, err := s.stats.CountSessions(ctx, window)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	if total == 0 {
		return 0, nil
	}
	completed, err := s.stats.CountCompletedSessions(ctx, window)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed sessions: %w", err)
	}
	return float64(completed) / float64(total), nil
}

// AverageDwellTimes computes per-exhibit mean viewing time from paired
// view_start/view_end events. Every exhibit in the catalogue is reported;
// those without a single valid pair carry a nil mean.
func (s *AnalyticsService) AverageDwellTimes(ctx context.Context) ([]ExhibitDwellStat, error) {
	exhibits, err := s.exhibits.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list exhibits: %w", err)
	}

	events, err := s.stats.ListViewEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list view events: %w", err)
	}

	durations := pairDwellDurations(events)

	stats := make([]ExhibitDwellStat, 0, len(exhibits))
	for _, exhibit := range exhibits {
		stat := ExhibitDwellStat{
			ExhibitID: exhibit.ID,
			Slug:      exhibit.Slug,
			Title:     exhibit.Title,
		}
		if samples := durations[exhibit.ID]; len(samples) > 0 {
			mean := meanSeconds(samples)
			stat.SampleCount = len(samples)
			stat.MeanSeconds = &mean
		}
		stats = append(stats, stat)
	}
	return stats, nil
}

// SelfEvalDistribution aggregates the fixed-category self-evaluation
// answers (gender, age bracket, education) into frequency tables.
func (s *AnalyticsService) SelfEvalDistribution(ctx context.Context) ([]QuestionDistribution, error) {
	values, err := s.stats.ListAnswerValues(ctx, domain.CategorySelfEval)
	if err != nil {
		return nil, fmt.Errorf("failed to list self-eval answers: %w", err)
	}
	return buildDistributions(values), nil
}

// FeedbackDistribution aggregates the closed-form post-visit questions.
// Likert questions additionally get a mean and a dense 1..N histogram.
func (s *AnalyticsService) FeedbackDistribution(ctx context.Context) ([]QuestionDistribution, error) {
	values, err := s.stats.ListAnswerValues(ctx, domain.CategoryFeedback)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback answers: %w", err)
	}
	return buildDistributions(values), nil
}

// BuildDashboard assembles every metric in one call. Each underlying table
// is scanned once; any sub-aggregation error propagates.
func (s *AnalyticsService) BuildDashboard(ctx context.Context) (*Dashboard, error) {
	start := time.Now()
	defer func() {
		observability.DashboardDuration.Observe(time.Since(start).Seconds())
	}()

	total, err := s.stats.CountSessions(ctx, domain.TimeWindow{})
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	completed, err := s.stats.CountCompletedSessions(ctx, domain.TimeWindow{})
	if err != nil {
		return nil, fmt.Errorf("failed to count completed sessions: %w", err)
	}

	rate := 0.0
	if total > 0 {
		rate = float64(completed) / float64(total)
	}

	dwell, err := s.AverageDwellTimes(ctx)
	if err != nil {
		return nil, err
	}

	selfEval, err := s.SelfEvalDistribution(ctx)
	if err != nil {
		return nil, err
	}

	feedback, err := s.FeedbackDistribution(ctx)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		TotalSessions:       total,
		CompletedSessions:   completed,
		CompletionRate:      rate,
		AverageDwellSeconds: overallDwellMean(dwell),
		ExhibitDwellTimes:   dwell,
		SelfEval:            selfEval,
		Feedback:            feedback,
	}, nil
}

// pairDwellDurations pairs each view_start with the chronologically next
// view_end for the same (session, exhibit), scanning in (timestamp, id)
// order. The pairing is greedy nearest-neighbor:
//
//   - a start followed by another start is dropped (the later start wins);
//   - an end with no pending start is dropped;
//   - a non-positive duration (clock skew) is dropped;
//   - durations of an hour or more are dropped as outliers.
//
// Returned samples are grouped by exhibit, in seconds.
func pairDwellDurations(events []domain.ViewEvent) map[int64][]float64 {
	type streamKey struct {
		sessionID int64
		exhibitID int64
	}

	durations := make(map[int64][]float64)
	pending := make(map[streamKey]*domain.ViewEvent)

	for i := range events {
		event := events[i]
		key := streamKey{event.SessionID, event.ExhibitID}

		switch event.Type {
		case domain.EventViewStart:
			// A second start before any end supersedes the first; the
			// unmatched start contributes no sample.
			pending[key] = &events[i]
		case domain.EventViewEnd:
			start, ok := pending[key]
			if !ok {
				continue
			}
			delete(pending, key)

			d := event.Timestamp.Sub(start.Timestamp)
			if d <= 0 || d >= maxDwellSample {
				continue
			}
			durations[event.ExhibitID] = append(durations[event.ExhibitID], d.Seconds())
		}
	}
	return durations
}

func meanSeconds(samples []float64) float64 {
	sum := 0.0
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}

// overallDwellMean averages the per-exhibit means, nil when no exhibit has
// data.
func overallDwellMean(stats []ExhibitDwellStat) *float64 {
	sum := 0.0
	n := 0
	for _, stat := range stats {
		if stat.MeanSeconds != nil {
			sum += *stat.MeanSeconds
			n++
		}
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}

// buildDistributions folds answer rows into per-question frequency tables.
// Rows arrive ordered by question; value ordering within a table is
// lexicographic, never insertion order.
func buildDistributions(values []domain.AnswerValue) []QuestionDistribution {
	order := []int64{}
	byQuestion := map[int64]*QuestionDistribution{}
	counts := map[int64]map[string]int{}
	options := map[int64][]string{}

	for _, value := range values {
		dist, ok := byQuestion[value.QuestionID]
		if !ok {
			dist = &QuestionDistribution{
				QuestionID:   value.QuestionID,
				QuestionText: value.QuestionText,
				QuestionType: value.QuestionType,
			}
			byQuestion[value.QuestionID] = dist
			counts[value.QuestionID] = map[string]int{}
			options[value.QuestionID] = value.Options
			order = append(order, value.QuestionID)
		}

		answered := false
		for _, v := range answerValues(value) {
			counts[value.QuestionID][v]++
			answered = true
		}
		if answered {
			dist.ResponseCount++
		}
	}

	result := make([]QuestionDistribution, 0, len(order))
	for _, questionID := range order {
		dist := byQuestion[questionID]
		dist.Counts = sortedCounts(counts[questionID])
		if dist.QuestionType == domain.QuestionLikert {
			dist.Likert = likertStats(counts[questionID], len(options[questionID]))
		}
		result = append(result, *dist)
	}
	return result
}

// answerValues extracts the countable values from one answer row: the text
// value for single/likert/text answers, each array element for multi.
func answerValues(value domain.AnswerValue) []string {
	if value.ValueText != nil && *value.ValueText != "" {
		return []string{*value.ValueText}
	}
	if len(value.ValueJSON) == 0 {
		return nil
	}

	var multi []string
	if err := json.Unmarshal(value.ValueJSON, &multi); err == nil {
		return multi
	}

	// Scalar JSON values (a bare string or number) count as one value.
	var scalar interface{}
	if err := json.Unmarshal(value.ValueJSON, &scalar); err != nil {
		return nil
	}
	switch v := scalar.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case float64:
		return []string{strconv.FormatFloat(v, 'f', -1, 64)}
	}
	return nil
}

func sortedCounts(counts map[string]int) []ValueCount {
	result := make([]ValueCount, 0, len(counts))
	for value, count := range counts {
		result = append(result, ValueCount{Value: value, Count: count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Value < result[j].Value })
	return result
}

// likertStats computes the mean and the dense 1..scale histogram. Buckets
// with no responses are emitted as zeros, never omitted. Values outside
// 1..scale are ignored.
func likertStats(counts map[string]int, scale int) *LikertStats {
	if scale <= 0 {
		scale = 5
	}

	histogram := make([]int, scale)
	sum := 0
	n := 0
	for value, count := range counts {
		point, err := strconv.Atoi(value)
		if err != nil || point < 1 || point > scale {
			continue
		}
		histogram[point-1] += count
		sum += point * count
		n += count
	}

	stats := &LikertStats{Histogram: histogram}
	if n > 0 {
		stats.Mean = float64(sum) / float64(n)
	}
	return stats
}
