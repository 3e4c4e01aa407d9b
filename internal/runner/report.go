package runner

import (
	"time"

	"github.com/bakkerme/reviewbot/internal/core"
	"github.com/bakkerme/reviewbot/internal/observability/metrics"
)

// Report summarises one run.
type Report struct {
	RunID       string         `json:"run_id"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
	Android     PlatformReport `json:"android"`
	IOS         PlatformReport `json:"ios"`
}

type PlatformReport struct {
	Fetched       int      `json:"fetched"`
	New           int      `json:"new"`
	Notified      int      `json:"notified"`
	Suppressed    int      `json:"suppressed"`
	Failed        int      `json:"failed"`
	PersistErrors int      `json:"persist_errors"`
	FetchErrors   int      `json:"fetch_errors"`
	Errors        []string `json:"errors,omitempty"`
}

func (p *PlatformReport) add(o PlatformReport) {
	p.Fetched += o.Fetched
	p.New += o.New
	p.Notified += o.Notified
	p.Suppressed += o.Suppressed
	p.Failed += o.Failed
	p.PersistErrors += o.PersistErrors
	p.FetchErrors += o.FetchErrors
	p.Errors = append(p.Errors, o.Errors...)
}

func (p PlatformReport) counts(platform core.Platform) metrics.PlatformCounts {
	return metrics.PlatformCounts{
		Platform:   string(platform),
		Fetched:    p.Fetched,
		Notified:   p.Notified,
		Suppressed: p.Suppressed,
		Failed:     p.Failed + p.PersistErrors,
		Errors:     p.FetchErrors,
	}
}
