package deck

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	cerrors "github.com/FocuswithJustin/Slidecast/core/errors"
	"github.com/FocuswithJustin/Slidecast/core/slide"
	"github.com/FocuswithJustin/Slidecast/core/timing"
	"github.com/FocuswithJustin/Slidecast/core/visibility"
	"github.com/FocuswithJustin/Slidecast/internal/logging"
	"github.com/FocuswithJustin/Slidecast/internal/opc"
)

// Mode selects the conversion strategy.
type Mode string

const (
	// ModeTimeline expands every animated slide into one static slide
	// per animation step, in original order.
	ModeTimeline Mode = "timeline"
	// ModeSplit brackets each animated slide with a static Before/After
	// pair.
	ModeSplit Mode = "split"
)

// SplitOriginal says what happens to the source slide in split mode.
type SplitOriginal string

const (
	// KeepOriginal leaves the animated source slide in place, followed
	// by Before and After.
	KeepOriginal SplitOriginal = "keep"
	// ReplaceOriginal rewrites the source slide as the Before snapshot;
	// only After is inserted.
	ReplaceOriginal SplitOriginal = "replace"
)

// Options configures one conversion run.
type Options struct {
	Mode          Mode
	SplitOriginal SplitOriginal
}

// Result summarizes one conversion run.
type Result struct {
	RunID           string
	Mode            Mode
	SlidesConverted int // slides that had qualifying animation
	SlidesUnchanged int // slides passed through with no detected animation
	SlidesAdded     int // newly materialized slide parts
	NodesSkipped    int // malformed timing nodes ignored
	OutputDigest    string
}

// Convert rewrites every animated slide in the package according to
// opts. Slides are visited strictly in presentation order; each slide's
// classify/snapshot/materialize/splice sequence completes before the
// next begins. Malformed timing nodes are skipped per slide; structural
// failures abort the run with nothing written.
func Convert(pkg *opc.Package, opts Options) (*Result, error) {
	if opts.Mode == "" {
		opts.Mode = ModeTimeline
	}
	if opts.SplitOriginal == "" {
		opts.SplitOriginal = KeepOriginal
	}

	s, err := newSplicer(pkg)
	if err != nil {
		return nil, err
	}
	entries, err := s.slideEntries()
	if err != nil {
		return nil, err
	}

	res := &Result{RunID: uuid.NewString(), Mode: opts.Mode}
	for _, entry := range entries {
		var convErr error
		switch opts.Mode {
		case ModeTimeline:
			convErr = convertTimeline(s, entry, res)
		case ModeSplit:
			convErr = convertSplit(s, entry, opts.SplitOriginal, res)
		default:
			return nil, cerrors.NewValidation("mode", fmt.Sprintf("unknown mode %q", opts.Mode))
		}
		if convErr != nil {
			return nil, cerrors.Wrapf(convErr, "converting %s", entry.part)
		}
	}

	if err := s.flush(); err != nil {
		return nil, err
	}
	return res, nil
}

// convertTimeline expands one slide into a snapshot sequence: snapshot 0
// replaces the source part in place, snapshots 1..N become new slides
// directly after it.
func convertTimeline(s *splicer, entry slideEntry, res *Result) error {
	raw, err := s.pkg.Bytes(entry.part)
	if err != nil {
		return err
	}
	doc, err := s.pkg.Doc(entry.part)
	if err != nil {
		return err
	}

	events, skipped := timing.CollectEvents(doc)
	if skipped > 0 {
		logging.TimingNodeSkipped(entry.part, skipped)
	}
	res.NodesSkipped += skipped
	if len(events) == 0 {
		res.SlidesUnchanged++
		return nil
	}

	shapeIDs := slide.ShapeIDs(doc)
	snapshots := visibility.Timeline(shapeIDs, events)
	logging.SlideClassified(entry.part, len(events), len(snapshots))

	first, err := slide.Materialize(raw, snapshots[0])
	if err != nil {
		return err
	}
	s.replacePart(entry.part, first)

	anchor := entry.node
	for _, snap := range snapshots[1:] {
		data, err := slide.Materialize(raw, snap)
		if err != nil {
			return err
		}
		anchor, err = s.insertAfter(anchor, data, entry.part)
		if err != nil {
			return err
		}
		res.SlidesAdded++
	}
	res.SlidesConverted++
	return nil
}

// convertSplit brackets one slide with its Before/After pair. With
// KeepOriginal the source stays put and both boundary slides are
// inserted after it; with ReplaceOriginal the source becomes Before.
func convertSplit(s *splicer, entry slideEntry, policy SplitOriginal, res *Result) error {
	raw, err := s.pkg.Bytes(entry.part)
	if err != nil {
		return err
	}
	doc, err := s.pkg.Doc(entry.part)
	if err != nil {
		return err
	}

	buckets, skipped := timing.ClassifyInOut(doc)
	if skipped > 0 {
		logging.TimingNodeSkipped(entry.part, skipped)
	}
	res.NodesSkipped += skipped
	if buckets.Empty() {
		res.SlidesUnchanged++
		return nil
	}
	logging.SlideBuckets(entry.part, len(buckets.Entrance), len(buckets.Exit))

	shapeIDs := slide.ShapeIDs(doc)
	beforeSnap, afterSnap := visibility.Split(shapeIDs, buckets)

	before, err := slide.Materialize(raw, beforeSnap)
	if err != nil {
		return err
	}
	after, err := slide.Materialize(raw, afterSnap)
	if err != nil {
		return err
	}

	anchor := entry.node
	if policy == ReplaceOriginal {
		s.replacePart(entry.part, before)
	} else {
		anchor, err = s.insertAfter(anchor, before, entry.part)
		if err != nil {
			return err
		}
		res.SlidesAdded++
	}
	if _, err := s.insertAfter(anchor, after, entry.part); err != nil {
		return err
	}
	res.SlidesAdded++
	res.SlidesConverted++
	return nil
}

// ConvertFile is the whole pipeline: open the input package, convert it,
// and atomically save the result, recording a BLAKE3 digest of the
// written archive in the summary.
func ConvertFile(input, output string, opts Options) (*Result, error) {
	pkg, err := opc.Open(input)
	if err != nil {
		return nil, err
	}
	res, err := Convert(pkg, opts)
	if err != nil {
		return nil, err
	}
	if err := pkg.Save(output); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(output)
	if err != nil {
		return nil, cerrors.NewIO("read", output, err)
	}
	sum := blake3.Sum256(data)
	res.OutputDigest = fmt.Sprintf("%x", sum)
	return res, nil
}
