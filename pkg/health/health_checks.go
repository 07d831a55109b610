package health

import (
	"fmt"
	"runtime"

	"github.com/dd0wney/cluso-gds/pkg/concurrency"
	"github.com/dd0wney/cluso-gds/pkg/progress"
)

// PoolCheck reports the worker pools cached by reg.
func PoolCheck(reg *concurrency.PoolRegistry) CheckFunc {
	return func() Check {
		pools := reg.Len()
		return Check{
			Name:    "pools",
			Status:  StatusHealthy,
			Message: fmt.Sprintf("%d worker pools", pools),
			Details: map[string]any{"pools": pools},
		}
	}
}

// TaskCheck summarizes the task trees registered in store. Any failed tree
// degrades the check.
func TaskCheck(store progress.TaskStore) CheckFunc {
	return func() Check {
		counts := make(map[string]int)
		for _, ut := range store.All() {
			counts[ut.Task.Status().String()]++
		}
		details := make(map[string]any, len(counts)+1)
		details["registered"] = store.Count()
		for status, n := range counts {
			details[status] = n
		}

		check := Check{Name: "tasks", Status: StatusHealthy, Details: details}
		if failed := counts[progress.Failed.String()]; failed > 0 {
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("%d failed task trees", failed)
		} else {
			check.Message = fmt.Sprintf("%d running task trees", counts[progress.Running.String()])
		}
		return check
	}
}

// TerminationCheck reports whether flag has been stopped. A stopped flag
// means the process no longer accepts work, so it fails readiness.
func TerminationCheck(flag *concurrency.TerminationFlag) CheckFunc {
	return func() Check {
		if flag.Running() {
			return Check{Name: "termination", Status: StatusHealthy, Message: "Running"}
		}
		return Check{
			Name:    "termination",
			Status:  StatusUnhealthy,
			Message: "Stopped",
			Details: map[string]any{"reason": flag.Reason()},
		}
	}
}

// MemoryCheck degrades once heap allocation exceeds limit bytes. A zero
// limit only reports usage.
func MemoryCheck(limit uint64) CheckFunc {
	return func() Check {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)

		check := Check{
			Name:   "memory",
			Status: StatusHealthy,
			Details: map[string]any{
				"alloc_bytes": ms.Alloc,
				"sys_bytes":   ms.Sys,
				"goroutines":  runtime.NumGoroutine(),
			},
			Message: "Memory usage normal",
		}
		if limit > 0 && ms.Alloc > limit {
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("Heap above %d bytes", limit)
		}
		return check
	}
}
