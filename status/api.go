package status

import (
	"fmt"
	"net/http"
	"net/http/pprof"
	"runtime"
	"time"

	"github.com/gorilla/mux"

	"github.com/modelq-io/modelq/pkg/http/middlewares"
	"github.com/modelq-io/modelq/pkg/http/response"
	"github.com/modelq-io/modelq/pkg/stats"
	"github.com/modelq-io/modelq/status/health"
	"github.com/modelq-io/modelq/utils"
)

type API struct {
	startAt        time.Time
	debugEndpoints bool
	indicators     []*health.Indicator
}

func bytesToMiB(b uint64) float64 {
	return float64(b) / 1024 / 1024
}

func (api *API) Index(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	resp := StatusResponse{
		UpTime: time.Since(api.startAt).Round(time.Second).String(),
		Runtime: RuntimeStats{
			Go:         runtime.Version(),
			Goroutines: runtime.NumGoroutine(),
		},
		Memory: MemoryStats{
			Alloc:       fmt.Sprintf("%.2f MiB", bytesToMiB(memStats.Alloc)),
			Sys:         fmt.Sprintf("%.2f MiB", bytesToMiB(memStats.Sys)),
			HeapObjects: int64(memStats.HeapObjects),
			GC:          int64(memStats.NumGC),
		},
		Scheduler: stats.Collect(),
	}

	response.JSON(w, http.StatusOK, resp)
}

func (api *API) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:     health.StatusUp,
		Components: make(map[string]HealthResult),
	}
	for _, check := range api.indicators {
		res := HealthResult{
			Status: health.StatusUp,
			Error:  nil,
		}
		err := check.Check()
		if err != nil {
			resp.Status = health.StatusDown

			res.Status = health.StatusDown
			res.Error = utils.Pointer(err.Error())
		}
		resp.Components[check.Name] = res
	}

	if resp.Status != health.StatusUp {
		response.JSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	response.JSON(w, http.StatusOK, resp)
}

func (api *API) Handler() http.Handler {
	r := mux.NewRouter()

	r.Use(middlewares.PanicRecovery)

	r.HandleFunc("/", api.Index).Methods("GET")
	r.HandleFunc("/health", api.Health).Methods("GET")

	if api.debugEndpoints {
		r.HandleFunc("/debug/pprof/profile", pprof.Profile).Methods("GET")
		r.HandleFunc("/debug/pprof/symbol", pprof.Symbol).Methods("GET")
		r.HandleFunc("/debug/pprof/trace", pprof.Trace).Methods("GET")
		r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline).Methods("GET")
		r.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index).Methods("GET")
	}

	return r
}
