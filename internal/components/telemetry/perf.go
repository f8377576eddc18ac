package telemetry

import (
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/process"
)

const report_perf_stats = "perf.stats"

// ReportPerfStats reports the resident memory of the current process and the
// go heap, used once at the end of a long crawl.
func ReportPerfStats(tel API) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	tel.ReportCount("perf.allocated-mb", int64(memStats.Alloc/1_000_000))

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		tel.ReportWarning(report_perf_stats, fmt.Errorf("open process: %w", err))
		return
	}
	info, err := proc.MemoryInfo()
	if err != nil {
		tel.ReportWarning(report_perf_stats, fmt.Errorf("memory info: %w", err))
		return
	}
	tel.ReportCount("perf.rss-mb", int64(info.RSS/1_000_000))
}
