package tasklet

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/marina21-cs/weteweta.github.io/internal/config"
	"github.com/marina21-cs/weteweta.github.io/internal/pipeline"
	"github.com/marina21-cs/weteweta.github.io/internal/report"
	"github.com/marina21-cs/weteweta.github.io/internal/support/exception"
)

const StepReport = "report"

// ReportTasklet asks for a city name (or takes the pre-configured one) and
// writes that city's PDF and CSV report. The step is a no-op when neither an
// interactive prompt nor a configured city is available, and every failure
// is skippable.
type ReportTasklet struct {
	service *report.Service
	cfg     config.ReportConfig
	in      io.Reader
	out     io.Writer
}

// NewReportTasklet creates a ReportTasklet reading the city prompt from in
// (normally os.Stdin) and writing it to out.
func NewReportTasklet(service *report.Service, cfg config.ReportConfig, in io.Reader, out io.Writer) *ReportTasklet {
	return &ReportTasklet{service: service, cfg: cfg, in: in, out: out}
}

func (t *ReportTasklet) Name() string {
	return StepReport
}

func (t *ReportTasklet) Execute(ctx context.Context, stepExecution *pipeline.StepExecution) (pipeline.ExitStatus, error) {
	city := strings.TrimSpace(t.cfg.City)
	if t.cfg.Interactive {
		prompted, err := t.promptCity()
		if err != nil {
			return pipeline.ExitStatusFailed, exception.New(StepReport, "failed to read city prompt", err, true)
		}
		if prompted != "" {
			city = prompted
		}
	}
	if city == "" {
		fmt.Fprintln(t.out, "No city selected; skipping report.")
		return pipeline.ExitStatusNoOp, nil
	}

	if err := t.service.GenerateCityReport(ctx, city); err != nil {
		return pipeline.ExitStatusFailed, asSkippableReport(err)
	}
	stepExecution.WriteCount = 1
	return pipeline.ExitStatusCompleted, nil
}

func (t *ReportTasklet) Close(ctx context.Context) error {
	return nil
}

// promptCity reads one free-text line. EOF (e.g. a closed stdin in
// non-interactive shells) counts as no selection, not an error.
func (t *ReportTasklet) promptCity() (string, error) {
	fmt.Fprint(t.out, "Enter a city name for a detailed report (blank to skip): ")
	scanner := bufio.NewScanner(t.in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", nil
	}
	return strings.TrimSpace(scanner.Text()), nil
}

func asSkippableReport(err error) error {
	if exception.IsSkippable(err) {
		return err
	}
	return exception.New(StepReport, "report failed", err, true)
}

var _ pipeline.Tasklet = (*ReportTasklet)(nil)
