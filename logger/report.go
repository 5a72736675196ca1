package logger

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

var (
	logins            int64
	fetches           int64
	recordsNormalized int64
	filesWritten      int64
	uploads           int64
	componentErrors   sync.Map // map[string]*int64
	componentWarns    sync.Map // map[string]*int64
)

func recordWarn(component string) {
	v, _ := componentWarns.LoadOrStore(component, new(int64))
	atomic.AddInt64(v.(*int64), 1)
}

func recordError(component string) {
	v, _ := componentErrors.LoadOrStore(component, new(int64))
	atomic.AddInt64(v.(*int64), 1)
}

// IncrementLogin records a successful login handshake.
func IncrementLogin() {
	atomic.AddInt64(&logins, 1)
}

// IncrementFetch records a completed index-list fetch.
func IncrementFetch() {
	atomic.AddInt64(&fetches, 1)
}

// AddRecordsNormalized records how many raw records were normalized.
func AddRecordsNormalized(n int) {
	atomic.AddInt64(&recordsNormalized, int64(n))
}

// IncrementFileWritten records one persisted master artifact.
func IncrementFileWritten() {
	atomic.AddInt64(&filesWritten, 1)
}

// IncrementUpload records one artifact uploaded to object storage.
func IncrementUpload() {
	atomic.AddInt64(&uploads, 1)
}

func startReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logReport(ctx, log)
			}
		}
	}()
}

// StartReport begins periodic logging of run and system statistics.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	startReport(ctx, log, interval)
}

// LogRunReport emits a single end-of-run report. The pipeline calls it
// once before exiting so short runs still surface their counters.
func LogRunReport(ctx context.Context, log *Log) {
	logReport(ctx, log)
}

func logReport(ctx context.Context, log *Log) {
	cpuPercent, _ := cpu.Percent(0, false)
	memStats, _ := mem.VirtualMemory()
	diskStats, _ := disk.Usage("/")

	cpuPct := 0.0
	if len(cpuPercent) > 0 {
		cpuPct = cpuPercent[0]
	}
	memUsed := uint64(0)
	if memStats != nil {
		memUsed = memStats.Used
	}
	diskUsed := uint64(0)
	if diskStats != nil {
		diskUsed = diskStats.Used
	}

	errorCount := int64(0)
	componentErrors.Range(func(k, v any) bool {
		errorCount += atomic.LoadInt64(v.(*int64))
		return true
	})
	warnCount := int64(0)
	componentWarns.Range(func(k, v any) bool {
		warnCount += atomic.LoadInt64(v.(*int64))
		return true
	})

	fields := Fields{
		"logins":             atomic.LoadInt64(&logins),
		"fetches":            atomic.LoadInt64(&fetches),
		"records_normalized": atomic.LoadInt64(&recordsNormalized),
		"files_written":      atomic.LoadInt64(&filesWritten),
		"uploads":            atomic.LoadInt64(&uploads),
		"errors":             errorCount,
		"warns":              warnCount,
		"goroutines":         runtime.NumGoroutine(),
		"cpu_percent":        cpuPct,
		"memory_mb":          int64(memUsed) / 1024 / 1024,
		"disk_mb":            int64(diskUsed) / 1024 / 1024,
	}

	log.WithComponent("report").WithFields(fields).Info("run report")

	data := []cwtypes.MetricDatum{
		{MetricName: aws.String("Logins"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["logins"].(int64)))},
		{MetricName: aws.String("Fetches"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["fetches"].(int64)))},
		{MetricName: aws.String("RecordsNormalized"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["records_normalized"].(int64)))},
		{MetricName: aws.String("FilesWritten"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["files_written"].(int64)))},
		{MetricName: aws.String("Uploads"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["uploads"].(int64)))},
		{MetricName: aws.String("Errors"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(errorCount))},
		{MetricName: aws.String("Warns"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(warnCount))},
		{MetricName: aws.String("CPUPercent"), Unit: cwtypes.StandardUnitPercent, Value: aws.Float64(cpuPct)},
		{MetricName: aws.String("MemoryMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(memUsed) / 1024 / 1024)},
	}

	publishMetrics(ctx, data)
}
