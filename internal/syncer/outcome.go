package syncer

import (
	"log/slog"

	"github.com/lepinkainen/bookfill/internal/enrichment/book"
)

type outcomeKind int

const (
	outcomeUpdated outcomeKind = iota
	outcomeSkipped
	outcomeNoData
	outcomeFailed
)

// outcome is the result of processing one page, logged as a single line.
type outcome struct {
	kind        outcomeKind
	title       string
	strategy    string
	coverSource book.CoverSource
	columns     []string
	coverSet    bool
	dryRun      bool
	reason      string
	err         error
}

func (o outcome) updated() outcome {
	o.kind = outcomeUpdated
	return o
}

func (o outcome) skipped(reason string) outcome {
	o.kind = outcomeSkipped
	o.reason = reason
	return o
}

func (o outcome) noData() outcome {
	o.kind = outcomeNoData
	return o
}

func (o outcome) failed(err error) outcome {
	o.kind = outcomeFailed
	o.err = err
	return o
}

func (o outcome) log(logger *slog.Logger) {
	switch o.kind {
	case outcomeUpdated:
		msg := "Updated"
		if o.dryRun {
			msg = "Would update"
		}
		logger.Info(msg,
			"title", o.title,
			"strategy", o.strategy,
			"cover_source", string(o.coverSource),
			"cover", o.coverSet,
			"columns", o.columns)
	case outcomeSkipped:
		logger.Info("Skipped", "title", o.title, "reason", o.reason)
	case outcomeNoData:
		logger.Warn("No data found", "title", o.title)
	case outcomeFailed:
		logger.Error("Failed", "title", o.title, "error", o.err)
	}
}
