// Package soak hammers a GuardedSet and a GuardedList from many goroutines at once and
// checks that nothing was lost, duplicated or fabricated along the way.
//
// Every key is offered to a shared set several times by different workers, in
// alternating letter case. Whichever worker inserts it first appends it to a shared list.
// While doing so each worker keeps sampling the list's lock-free Count and Get.
package soak

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"guarded/utils/config"
	"guarded/utils/lists"
	"guarded/utils/sets"

	"github.com/samber/lo"
	lop "github.com/samber/lo/parallel"
	"github.com/sanity-io/litter"
	log "github.com/sirupsen/logrus"
)

var ErrViolation = errors.New("soak property violated")

type Report struct {
	Workers    int
	Offered    int
	Inserted   int
	Duplicates int
	SetCount   int
	ListCount  int
	Samples    int
	Elapsed    time.Duration
}

type workerStats struct {
	offered    int
	inserted   int
	duplicates int
	samples    int
	violations []error
}

func key(i int) string {
	return fmt.Sprintf("item-%06d", i)
}

// The same key in a different case on odd passes, so deduplication has to go through the hasher.
func variant(i, pass int) string {
	if pass%2 == 1 {
		return strings.ToUpper(key(i))
	}

	return key(i)
}

func Run(cfg config.Soak) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}

	seen := sets.NewGuarded(sets.FoldHasher())
	found := lists.New[string]()

	log.WithFields(log.Fields{
		"workers":    cfg.Workers,
		"items":      cfg.Items,
		"duplicates": cfg.Duplicates,
	}).Info("starting soak run")

	start := time.Now()
	stats := lop.Map(lo.Range(cfg.Workers), func(w int, _ int) workerStats {
		return work(w, cfg, seen, found)
	})
	elapsed := time.Since(start)

	report := Report{
		Workers:    cfg.Workers,
		Offered:    lo.SumBy(stats, func(s workerStats) int { return s.offered }),
		Inserted:   lo.SumBy(stats, func(s workerStats) int { return s.inserted }),
		Duplicates: lo.SumBy(stats, func(s workerStats) int { return s.duplicates }),
		Samples:    lo.SumBy(stats, func(s workerStats) int { return s.samples }),
		SetCount:   seen.Count(),
		ListCount:  found.Count(),
		Elapsed:    elapsed,
	}

	violations := lo.FlatMap(stats, func(s workerStats, _ int) []error { return s.violations })
	violations = append(violations, verify(cfg, report, seen, found)...)

	if err := seen.Close(); err != nil {
		violations = append(violations, fmt.Errorf("closing set: %w", err))
	}

	entry := log.WithFields(log.Fields{
		"inserted":   report.Inserted,
		"duplicates": report.Duplicates,
		"elapsed":    report.Elapsed,
	})
	if log.IsLevelEnabled(log.DebugLevel) {
		log.Debug(litter.Sdump(report))
	}

	if len(violations) > 0 {
		entry.WithField("violations", len(violations)).Error("soak run failed")
		return report, fmt.Errorf("%w: %w", ErrViolation, errors.Join(violations...))
	}

	entry.Info("soak run finished")
	return report, nil
}

func work(w int, cfg config.Soak, seen *sets.GuardedSet[string], found lists.Sequence[string]) (stats workerStats) {
	last := 0

	for pass := range cfg.Duplicates {
		for i := range cfg.Items {
			if (i+pass)%cfg.Workers != w {
				continue
			}

			stats.offered++
			if seen.Add(variant(i, pass)) {
				found.Add(variant(i, pass))
				stats.inserted++
			} else {
				stats.duplicates++
			}

			// Nothing clears the list during the run, so a reader's view only grows.
			n := found.Count()
			stats.samples++
			if n < last {
				stats.violations = append(stats.violations, fmt.Errorf("worker %d saw count drop from %d to %d", w, last, n))
			}
			if n > 0 {
				if _, err := found.Get(n - 1); err != nil {
					stats.violations = append(stats.violations, fmt.Errorf("worker %d: %w", w, err))
				}
			}
			last = n
		}
	}

	return stats
}

func verify(cfg config.Soak, report Report, seen *sets.GuardedSet[string], found *lists.GuardedList[string]) (violations []error) {
	if report.Offered != cfg.Items*cfg.Duplicates {
		violations = append(violations, fmt.Errorf("offered %d keys, expected %d", report.Offered, cfg.Items*cfg.Duplicates))
	}
	if report.Inserted != cfg.Items {
		violations = append(violations, fmt.Errorf("inserted %d keys, expected %d", report.Inserted, cfg.Items))
	}
	if report.SetCount != cfg.Items {
		violations = append(violations, fmt.Errorf("set holds %d keys, expected %d", report.SetCount, cfg.Items))
	}
	if report.ListCount != cfg.Items {
		violations = append(violations, fmt.Errorf("list holds %d keys, expected %d", report.ListCount, cfg.Items))
	}

	expected := sets.FromSlice(lo.Map(lo.Range(cfg.Items), func(i int, _ int) string { return key(i) }))
	stored := sets.FromSlice(lo.Map(seen.Items(), func(v string, _ int) string { return strings.ToLower(v) }))

	listed := sets.Make[string](found.Count())
	for v := range found.Values() {
		if !listed.Insert(strings.ToLower(v)) {
			violations = append(violations, fmt.Errorf("%s appended more than once", v))
		}
	}

	for _, k := range sets.Sorted(expected.Difference(stored)) {
		violations = append(violations, fmt.Errorf("%s missing from set", k))
	}
	for _, k := range sets.Sorted(expected.Difference(listed)) {
		violations = append(violations, fmt.Errorf("%s missing from list", k))
	}
	for _, k := range sets.Sorted(stored.Union(listed).Difference(expected)) {
		violations = append(violations, fmt.Errorf("%s was never offered", k))
	}

	return violations
}
