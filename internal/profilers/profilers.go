// Package profilers installs the profiling flags shared by the programs (-prof, -cpu_profile and
// -mem_profile), to investigate the cost of search and training.
package profilers

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagProfiler   = flag.Int("prof", -1, "If set, serves the pprof HTTP profiler at the given port, and keeps the program alive at the end.")
	flagCPUProfile = flag.String("cpu_profile", "", "Write CPU profile to `file`.")
	flagMemProfile = flag.String("mem_profile", "", "Write heap profile to `file` at exit.")
	profilerAddr   string

	// globalCtx is set on the call to Setup.
	globalCtx context.Context
)

// Setup starts the HTTP (flag -prof) and CPU profilers (flag -cpu_profile), if they were configured.
// It should be followed by a deferred call to OnQuit.
func Setup(ctx context.Context) error {
	globalCtx = ctx
	if *flagProfiler >= 0 {
		setupHTTPProfiler()
	}
	if *flagCPUProfile != "" {
		f, err := os.Create(*flagCPUProfile)
		if err != nil {
			return errors.Wrap(err, "failed to create CPU profile")
		}
		if err = pprof.StartCPUProfile(f); err != nil {
			return errors.Wrap(err, "failed to start CPU profile")
		}
	}
	return nil
}

// OnQuit stops the profilers, and writes the heap profile if -mem_profile is set.
// With -prof it keeps the program alive until the context given to Setup is done.
func OnQuit() {
	if *flagCPUProfile != "" {
		pprof.StopCPUProfile()
	}
	if *flagMemProfile != "" {
		if err := writeHeapProfile(*flagMemProfile); err != nil {
			klog.Errorf("Heap profile: %+v", err)
		}
	}
	if *flagProfiler >= 0 {
		httpProfilerOnQuit()
	}
}

func writeHeapProfile(fileName string) error {
	f, err := os.Create(fileName)
	if err != nil {
		return errors.Wrap(err, "failed to create heap profile")
	}
	defer func() { _ = f.Close() }()
	runtime.GC()
	return errors.Wrap(pprof.WriteHeapProfile(f), "failed to write heap profile")
}

func setupHTTPProfiler() {
	profilerAddr = fmt.Sprintf("localhost:%d", *flagProfiler)
	fmt.Printf("Starting profiler on %s/debug/pprof\n", profilerAddr)
	fmt.Printf("- Access it with: $ go tool pprof %s/debug/pprof/heap\n", profilerAddr)
	fmt.Printf("- Program will be kept alive on end, interrupt it (Ctrl+C) to exit\n")
	go func() {
		klog.Fatal(http.ListenAndServe(profilerAddr, nil))
	}()
}

func httpProfilerOnQuit() {
	// Don't freeze on panic.
	if err := recover(); err != nil {
		panic(err)
	}
	if globalCtx == nil || globalCtx.Err() != nil {
		return
	}
	for range 10 {
		runtime.GC()
	}
	fmt.Printf("- Program finished: kept alive with profiler opened at %s/debug/pprof\n", profilerAddr)
	fmt.Printf("- Interrupt (Ctrl+C) to exit\n")
	<-globalCtx.Done()
}
