package felix

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"
	pb "gopkg.in/cheggaaa/pb.v1"
)

// Result is a construct annotated in a batch
type Result struct {
	Construct *Construct
	Output    Output
}

// AnnotateFiles parses, validates and annotates every record of every file. A file or record
// that fails to parse is logged and skipped. Progress over files is drawn to progress if
// it's not nil.
func (e *Engine) AnnotateFiles(ctx context.Context, runID string, files []string, progress io.Writer) ([]Result, error) {
	var bar *pb.ProgressBar
	if progress != nil && len(files) > 1 {
		bar = pb.New(len(files))
		bar.Output = progress
		bar.Start()
		defer bar.Finish()
	}

	results := []Result{}
	for _, file := range files {
		records, err := ReadGenbankFile(file)
		if err != nil {
			e.logger.Error("skipping file", zap.String("file", file), zap.Error(err))
		}

		for _, record := range records {
			if record.Err != nil {
				e.logger.Error("skipping record", zap.String("file", file), zap.Error(record.Err))
				continue
			}

			result, err := e.annotateRecord(ctx, runID, record.Construct)
			if err != nil {
				return results, err
			}
			results = append(results, result)
		}

		if bar != nil {
			bar.Increment()
		}
	}

	return results, nil
}

// annotateRecord validates the junctions of a construct and then infers its parts' roles
func (e *Engine) annotateRecord(ctx context.Context, runID string, c *Construct) (Result, error) {
	start := time.Now()

	gaps := c.Gaps()
	reports, err := e.Annotate(ctx, c)
	if err != nil {
		return Result{}, err
	}

	rejected := 0
	for _, r := range reports {
		if len(r.Warnings) > 0 {
			rejected++
		}
	}
	e.logger.Info("annotated construct",
		zap.String("construct", c.Name),
		zap.Int("parts", len(reports)),
		zap.Int("rejected", rejected),
		zap.Int("gaps", len(gaps)),
	)

	return Result{
		Construct: c,
		Output:    NewOutput(runID, c, reports, gaps, time.Since(start).Seconds()),
	}, nil
}
